// Package services wires the import engine to persistence and exposes
// the synchronous startImport contract the HTTP layer and CLI call.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mlevchik/mnemo/internal/database/notes"
	"github.com/mlevchik/mnemo/internal/database/sessions"
	"github.com/mlevchik/mnemo/internal/entities"
	"github.com/mlevchik/mnemo/internal/importer"
)

// Options configure one import run. Mapping may be nil, in which case the
// identity mapping for the target note type is used.
type Options struct {
	SourceName  string
	NoteType    string
	Mapping     *importer.FieldMapping
	TagsColumn  int // raw column to read tags from; < 0 disables
	OnDuplicate importer.OnDuplicate
	CaseFold    bool
	ReplaceTags bool
	DryRun      bool
}

// ImportService runs import sessions, persists their history, and tracks
// live runs so they can be observed and canceled through the API.
type ImportService struct {
	repo     *notes.Repository
	sessions *sessions.Repository

	mu      sync.Mutex
	live    map[uint]*importer.Session
	cancels map[uint]context.CancelFunc
}

func NewImportService(repo *notes.Repository, sessionRepo *sessions.Repository) *ImportService {
	return &ImportService{
		repo:     repo,
		sessions: sessionRepo,
		live:     make(map[uint]*importer.Session),
		cancels:  make(map[uint]context.CancelFunc),
	}
}

// ImportStream runs one full import session over the record source and
// returns the final report together with the persisted session row.
// Per-record problems are inside the report; a non-nil error means the
// session aborted and the collection was left untouched.
func (s *ImportService) ImportStream(ctx context.Context, src importer.RecordSource, opts Options) (*importer.Report, *entities.ImportSession, error) {
	noteType, err := s.repo.NoteTypeByName(opts.NoteType)
	if err != nil {
		return nil, nil, fmt.Errorf("unknown note type %q: %w", opts.NoteType, err)
	}

	mapping := importer.NewIdentityMapping(len(noteType.Fields))
	if opts.Mapping != nil {
		mapping = *opts.Mapping
	}
	if opts.TagsColumn >= 0 {
		mapping.TagsColumn = opts.TagsColumn
	}

	policy := importer.Policy{
		OnDuplicate: opts.OnDuplicate,
		Key:         importer.KeyPolicy{CaseFold: opts.CaseFold},
		ReplaceTags: opts.ReplaceTags,
		DryRun:      opts.DryRun,
	}
	session := importer.NewSession(s.repo, noteType, mapping, policy)

	sourceName := opts.SourceName
	if opts.DryRun {
		sourceName += " (dry run)"
	}
	row, err := s.sessions.Create(sourceName, noteType.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to record import session: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.track(row.ID, session, cancel)
	defer s.untrack(row.ID)

	report, runErr := session.Run(runCtx, src)

	status := entities.ImportStatusCompleted
	fatal := ""
	if runErr != nil {
		status = entities.ImportStatusAborted
		fatal = runErr.Error()
	}
	if err := s.sessions.Finalize(row, report, status, fatal); err != nil {
		// History write failure is not worth surfacing over a clean run.
		if runErr == nil {
			runErr = fmt.Errorf("import finished but session record update failed: %w", err)
		}
	}

	return report, row, runErr
}

// Cancel requests cooperative cancellation of a running session. Returns
// false when no live session has that ID.
func (s *ImportService) Cancel(sessionID uint) bool {
	s.mu.Lock()
	cancel, ok := s.cancels[sessionID]
	s.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Progress returns a report snapshot for a live session, or nil when the
// session is not running (consult the persisted row instead).
func (s *ImportService) Progress(sessionID uint) *importer.Report {
	s.mu.Lock()
	session, ok := s.live[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return session.Snapshot()
}

// IsCanceled reports whether err is the engine's cancellation sentinel.
func IsCanceled(err error) bool {
	return errors.Is(err, importer.ErrCanceled)
}

func (s *ImportService) track(id uint, session *importer.Session, cancel context.CancelFunc) {
	s.mu.Lock()
	s.live[id] = session
	s.cancels[id] = cancel
	s.mu.Unlock()
}

func (s *ImportService) untrack(id uint) {
	s.mu.Lock()
	delete(s.live, id)
	delete(s.cancels, id)
	s.mu.Unlock()
}
