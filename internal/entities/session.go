package entities

import "time"

type ImportStatus string

const (
	ImportStatusPending   ImportStatus = "pending"
	ImportStatusRunning   ImportStatus = "running"
	ImportStatusCompleted ImportStatus = "completed"
	ImportStatusAborted   ImportStatus = "aborted"
)

// ImportSession is the persisted record of one import run, used for
// history and progress display. The in-memory session state machine in
// internal/importer owns the live run; this row is its durable shadow.
type ImportSession struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	SourceName  string       `gorm:"size:100" json:"source_name"`
	NoteTypeID  uint         `gorm:"index" json:"note_type_id"`
	Status      ImportStatus `gorm:"size:20;default:'pending'" json:"status"`
	Added       int          `json:"added"`
	Updated     int          `json:"updated"`
	Skipped     int          `json:"skipped"`
	Errored     int          `json:"errored"`
	Problems    string       `gorm:"type:text" json:"problems,omitempty"` // JSON array of per-record problems
	FatalError  string       `gorm:"type:text" json:"fatal_error,omitempty"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

func (ImportSession) TableName() string {
	return "import_sessions"
}
