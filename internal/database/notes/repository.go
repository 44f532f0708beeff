// Package notes provides database operations for the note collection:
// note-type lookup, note scans for duplicate-index building, and the
// transactional write surface the import engine runs on.
package notes

import (
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/mlevchik/mnemo/internal/entities"
)

// Repository handles all collection database operations. A single
// instance is shared by the HTTP layer, the CLI, and the import engine;
// its import mutex is the collection's exclusive write lock.
type Repository struct {
	db       *gorm.DB
	importMu sync.Mutex
}

// NewRepository creates a new collection repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DB exposes the base connection for queries outside a session.
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// LockForImport takes the exclusive collection write lock. Held by an
// import session for its entire Running phase.
func (r *Repository) LockForImport() {
	r.importMu.Lock()
}

// UnlockImport releases the collection write lock.
func (r *Repository) UnlockImport() {
	r.importMu.Unlock()
}

// Transaction runs fn inside one database transaction; any error rolls
// back every write made within it.
func (r *Repository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// NoteTypeByName retrieves a note type with its ordered fields and
// templates.
func (r *Repository) NoteTypeByName(name string) (*entities.NoteType, error) {
	var nt entities.NoteType
	err := r.db.Preload("Fields", func(db *gorm.DB) *gorm.DB {
		return db.Order("ord ASC")
	}).Preload("Templates", func(db *gorm.DB) *gorm.DB {
		return db.Order("ord ASC")
	}).Where("name = ?", name).First(&nt).Error
	if err != nil {
		return nil, err
	}
	return &nt, nil
}

// NoteTypeByID retrieves a note type with its ordered fields and
// templates.
func (r *Repository) NoteTypeByID(id uint) (*entities.NoteType, error) {
	var nt entities.NoteType
	err := r.db.Preload("Fields", func(db *gorm.DB) *gorm.DB {
		return db.Order("ord ASC")
	}).Preload("Templates", func(db *gorm.DB) *gorm.DB {
		return db.Order("ord ASC")
	}).First(&nt, id).Error
	if err != nil {
		return nil, err
	}
	return &nt, nil
}

// AllNoteTypes lists every note type with fields.
func (r *Repository) AllNoteTypes() ([]entities.NoteType, error) {
	var types []entities.NoteType
	err := r.db.Preload("Fields", func(db *gorm.DB) *gorm.DB {
		return db.Order("ord ASC")
	}).Order("name ASC").Find(&types).Error
	return types, err
}

// NoteByID retrieves a note with tags and cards.
func (r *Repository) NoteByID(id uint) (*entities.Note, error) {
	var note entities.Note
	err := r.db.Preload("Tags").Preload("Cards", func(db *gorm.DB) *gorm.DB {
		return db.Order("template_ord ASC")
	}).First(&note, id).Error
	if err != nil {
		return nil, err
	}
	return &note, nil
}

// SearchNotes lists notes of a note type, optionally filtered by a
// case-insensitive match on the sort field.
func (r *Repository) SearchNotes(noteTypeID uint, query string, limit, offset int) ([]entities.Note, error) {
	var result []entities.Note
	q := r.db.Preload("Tags").Where("note_type_id = ?", noteTypeID).Order("sort_field ASC, id ASC")
	if query != "" {
		q = q.Where("LOWER(sort_field) LIKE LOWER(?)", "%"+query+"%")
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	err := q.Find(&result).Error
	return result, err
}

// CardsForNote returns a note's cards in template order.
func (r *Repository) CardsForNote(noteID uint) ([]entities.Card, error) {
	var cards []entities.Card
	err := r.db.Where("note_id = ?", noteID).Order("template_ord ASC").Find(&cards).Error
	return cards, err
}

// Stats returns total note and card counts.
func (r *Repository) Stats() (totalNotes int64, totalCards int64, err error) {
	err = r.db.Model(&entities.Note{}).Count(&totalNotes).Error
	if err != nil {
		return
	}
	err = r.db.Model(&entities.Card{}).Count(&totalCards).Error
	return
}

// NotesOfType scans every note of a note type with tags preloaded,
// ordered by ID. Package-level so it works against the base connection or
// an open transaction; the import engine calls it inside its transaction
// to build the duplicate index.
func NotesOfType(db *gorm.DB, noteTypeID uint) ([]*entities.Note, error) {
	var result []*entities.Note
	err := db.Preload("Tags").Where("note_type_id = ?", noteTypeID).Order("id ASC").Find(&result).Error
	return result, err
}

// GetOrCreateTag finds a tag by name or creates it. Safe to call inside a
// transaction; tag names are globally unique.
func GetOrCreateTag(db *gorm.DB, name string) (*entities.Tag, error) {
	var tag entities.Tag
	err := db.Where("name = ?", name).First(&tag).Error
	if err == gorm.ErrRecordNotFound {
		tag = entities.Tag{Name: name}
		if err := db.Create(&tag).Error; err != nil {
			return nil, fmt.Errorf("failed to create tag %s: %w", name, err)
		}
		return &tag, nil
	}
	if err != nil {
		return nil, err
	}
	return &tag, nil
}
