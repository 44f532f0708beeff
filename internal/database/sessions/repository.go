// Package sessions persists import-session history: one row per run,
// updated as the run finishes, queried by the API for progress display.
package sessions

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/mlevchik/mnemo/internal/entities"
	"github.com/mlevchik/mnemo/internal/importer"
)

// Repository handles import-session database operations.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create records the start of an import run.
func (r *Repository) Create(sourceName string, noteTypeID uint) (*entities.ImportSession, error) {
	session := &entities.ImportSession{
		SourceName: sourceName,
		NoteTypeID: noteTypeID,
		Status:     entities.ImportStatusRunning,
		StartedAt:  time.Now(),
	}
	if err := r.db.Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// Finalize stores the outcome of a finished run. The report's problems
// are serialized to JSON; fatalErr is empty for completed runs.
func (r *Repository) Finalize(session *entities.ImportSession, report *importer.Report, status entities.ImportStatus, fatalErr string) error {
	now := time.Now()
	session.Status = status
	session.CompletedAt = &now
	session.FatalError = fatalErr
	if report != nil {
		session.Added = report.Added
		session.Updated = report.Updated
		session.Skipped = report.Skipped
		session.Errored = report.Errored
		if len(report.Problems) > 0 {
			if data, err := json.Marshal(report.Problems); err == nil {
				session.Problems = string(data)
			}
		}
	}
	return r.db.Save(session).Error
}

// ByID retrieves one session.
func (r *Repository) ByID(id uint) (*entities.ImportSession, error) {
	var session entities.ImportSession
	if err := r.db.First(&session, id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// Recent lists sessions newest first.
func (r *Repository) Recent(limit int) ([]entities.ImportSession, error) {
	var result []entities.ImportSession
	q := r.db.Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&result).Error
	return result, err
}
