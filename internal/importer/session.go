package importer

import (
	"context"
	"errors"
	"io"
	"sync"

	"gorm.io/gorm"

	"github.com/mlevchik/mnemo/internal/database/notes"
	"github.com/mlevchik/mnemo/internal/entities"
)

// State is the session lifecycle: Idle -> Running -> {Completed, Aborted}.
// Terminal states are final; a session is not reusable.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return "idle"
	}
}

// Policy bundles the session-wide import options. DryRun runs the full
// pipeline but rolls the transaction back at the end, so the report shows
// what an import would do without mutating the collection.
type Policy struct {
	OnDuplicate OnDuplicate
	Key         KeyPolicy
	ReplaceTags bool
	DryRun      bool
}

// errDryRunRollback forces the transaction to roll back after a clean
// dry run. Never surfaces to callers.
var errDryRunRollback = errors.New("dry run rollback")

// Session orchestrates one import run: it builds the duplicate index,
// pipes every record through Normalize -> Resolve -> Apply inside a single
// transaction, and accumulates the report. The collection's import lock is
// held for the whole Running phase, so no other session or mutation
// interleaves.
type Session struct {
	repo     *notes.Repository
	noteType *entities.NoteType
	mapping  FieldMapping
	policy   Policy

	mu     sync.Mutex
	state  State
	report Report
}

func NewSession(repo *notes.Repository, noteType *entities.NoteType, mapping FieldMapping, policy Policy) *Session {
	return &Session{
		repo:     repo,
		noteType: noteType,
		mapping:  mapping,
		policy:   policy,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns a copy of the report, safe to read while Run is in
// flight. Used for progress display.
func (s *Session) Snapshot() *Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report.clone()
}

// Run consumes the record stream to exhaustion and commits all mutations
// as a single unit, or rolls everything back on a fatal error or
// cancellation. Per-record problems land in the report and never abort the
// batch. Run may be called once; later calls return ErrSessionFinished.
func (s *Session) Run(ctx context.Context, src RecordSource) (*Report, error) {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return nil, ErrSessionFinished
	}
	s.state = StateRunning
	s.mu.Unlock()

	s.repo.LockForImport()
	defer s.repo.UnlockImport()

	err := s.repo.Transaction(func(tx *gorm.DB) error {
		if err := s.consume(ctx, tx, src); err != nil {
			return err
		}
		if s.policy.DryRun {
			return errDryRunRollback
		}
		return nil
	})
	if errors.Is(err, errDryRunRollback) {
		err = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateAborted
		return s.report.clone(), err
	}
	s.state = StateCompleted
	return s.report.clone(), nil
}

func (s *Session) consume(ctx context.Context, tx *gorm.DB, src RecordSource) error {
	existing, err := notes.NotesOfType(tx, s.noteType.ID)
	if err != nil {
		return &StorageError{Op: "scan existing notes", Err: err}
	}
	index := NewDuplicateIndex(existing, s.noteType.KeyFieldOrd, s.policy.Key)
	exec := NewExecutor(tx, s.noteType, s.policy.ReplaceTags)

	for {
		// Cancellation is cooperative: checked between records, never
		// mid-record-application.
		if err := ctx.Err(); err != nil {
			return ErrCanceled
		}

		raw, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return &AdapterError{Err: err}
		}

		norm, err := Normalize(raw, s.noteType, s.mapping, s.policy.Key)
		if err != nil {
			s.recordError(raw.Index, err)
			continue
		}

		decision := Resolve(norm, index, s.policy.OnDuplicate)
		if decision.Warning != "" {
			s.recordWarning(norm.RecordIndex, decision.Warning)
		}

		result, err := exec.Apply(decision, norm)
		if err != nil {
			// Storage failures are session-fatal and trigger rollback.
			return err
		}

		s.mu.Lock()
		switch decision.Action {
		case ActionInsert:
			s.report.Added++
			index.Add(result.Note)
		case ActionUpdate:
			s.report.Updated++
		case ActionSkip:
			s.report.Skipped++
		}
		s.mu.Unlock()
	}
}

func (s *Session) recordError(index int, err error) {
	s.mu.Lock()
	s.report.addError(index, err.Error())
	s.mu.Unlock()
}

func (s *Session) recordWarning(index int, msg string) {
	s.mu.Lock()
	s.report.addWarning(index, msg)
	s.mu.Unlock()
}
