// Package database owns the collection's persistent state: the GORM
// connection, schema migration, and note-type seeding. Domain-specific
// operations live in the repository subpackages (notes, sessions, users);
// this package only opens and migrates the store.
package database
