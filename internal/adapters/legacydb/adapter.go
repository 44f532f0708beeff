// Package legacydb adapts legacy SQLite lesson databases. Those files
// carry one facts table with question/answer/category columns; rows are
// read in primary-key order so the importer sees them in authoring order.
package legacydb

import (
	"database/sql"
	"fmt"
	"io"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/mlevchik/mnemo/internal/importer"
)

const factsQuery = `
	SELECT id, question, answer, IFNULL(category, '')
	FROM facts
	ORDER BY id ASC
`

// Adapter streams facts from a legacy lesson database. It implements
// importer.RecordSource; Close releases the connection.
type Adapter struct {
	db        *sql.DB
	rows      *sql.Rows
	recordNum int
}

// Open connects read-only and validates that the facts table exists, so
// a wrong or corrupt file fails before the session mutates anything.
func Open(path string) (*Adapter, error) {
	db, err := sql.Open("sqlite3", path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open lesson database: %w", err)
	}

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='facts'").Scan(&count)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to inspect lesson database: %w", err)
	}
	if count == 0 {
		db.Close()
		return nil, fmt.Errorf("not a lesson database: facts table missing")
	}

	rows, err := db.Query(factsQuery)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to query facts: %w", err)
	}

	return &Adapter{db: db, rows: rows}, nil
}

// Hints suggests the Basic note type: legacy facts are front/back pairs.
func (a *Adapter) Hints() importer.Hints {
	return importer.Hints{NoteType: "Basic", FieldCount: 2}
}

// Next implements importer.RecordSource. The category column becomes
// tags, split on whitespace.
func (a *Adapter) Next() (importer.RawRecord, error) {
	if !a.rows.Next() {
		if err := a.rows.Err(); err != nil {
			return importer.RawRecord{}, fmt.Errorf("error iterating facts: %w", err)
		}
		return importer.RawRecord{}, io.EOF
	}

	var id int64
	var question, answer, category string
	if err := a.rows.Scan(&id, &question, &answer, &category); err != nil {
		return importer.RawRecord{}, fmt.Errorf("failed to scan fact %d: %w", a.recordNum+1, err)
	}

	a.recordNum++
	return importer.RawRecord{
		Index:  a.recordNum,
		Fields: []string{question, answer},
		Tags:   strings.Fields(category),
	}, nil
}

func (a *Adapter) Close() error {
	if a.rows != nil {
		a.rows.Close()
	}
	return a.db.Close()
}

// Compile-time interface check
var _ importer.RecordSource = (*Adapter)(nil)
