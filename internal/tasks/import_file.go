package tasks

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mlevchik/mnemo/internal/adapters/legacydb"
	"github.com/mlevchik/mnemo/internal/adapters/pack"
	"github.com/mlevchik/mnemo/internal/adapters/textfile"
	"github.com/mlevchik/mnemo/internal/entities"
	"github.com/mlevchik/mnemo/internal/importer"
	"github.com/mlevchik/mnemo/internal/services"
)

// Source file formats the import task understands.
const (
	FormatText   = "text"
	FormatPack   = "pack"
	FormatLegacy = "legacy"
)

// ImportFileTask imports one spooled file into the collection. Used by
// the async upload path and the inbox watcher.
type ImportFileTask struct {
	Path        string `json:"path"`
	Format      string `json:"format"`
	NoteType    string `json:"note_type"`
	OnDuplicate string `json:"on_duplicate"`
	CaseFold    bool   `json:"case_fold"`
	ReplaceTags bool   `json:"replace_tags"`
	DeleteAfter bool   `json:"delete_after"`
}

// Config returns the queue configuration for file import tasks. The
// collection write lock serializes imports anyway, and failed files stay
// on disk for inspection.
func (t ImportFileTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "import_file",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ImportFileProcessor creates the processor for ImportFileTask.
func ImportFileProcessor(service *services.ImportService) backlite.QueueProcessor[ImportFileTask] {
	return func(ctx context.Context, task ImportFileTask) error {
		if service == nil {
			return fmt.Errorf("import service not configured")
		}

		report, session, err := runImport(ctx, service, task)
		if err != nil {
			return fmt.Errorf("import %s: %w", task.Path, err)
		}

		log.Printf("[TASK] Imported %s (session %d): %d added, %d updated, %d skipped, %d errored",
			filepath.Base(task.Path), session.ID, report.Added, report.Updated, report.Skipped, report.Errored)

		if task.DeleteAfter {
			if err := os.Remove(task.Path); err != nil {
				log.Printf("[TASK] Failed to remove spooled file %s: %v", task.Path, err)
			}
		}
		return nil
	}
}

func runImport(ctx context.Context, service *services.ImportService, task ImportFileTask) (*importer.Report, *entities.ImportSession, error) {
	onDuplicate, err := importer.ParseOnDuplicate(task.OnDuplicate)
	if err != nil {
		return nil, nil, err
	}

	opts := services.Options{
		SourceName:  filepath.Base(task.Path),
		NoteType:    task.NoteType,
		TagsColumn:  -1,
		OnDuplicate: onDuplicate,
		CaseFold:    task.CaseFold,
		ReplaceTags: task.ReplaceTags,
	}
	if opts.NoteType == "" {
		opts.NoteType = "Basic"
	}

	switch task.Format {
	case FormatText:
		f, err := os.Open(task.Path)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()
		adapter, err := textfile.Open(f)
		if err != nil {
			return nil, nil, err
		}
		return service.ImportStream(ctx, adapter, opts)

	case FormatPack:
		adapter, err := pack.Open(task.Path)
		if err != nil {
			return nil, nil, err
		}
		defer adapter.Close()
		hints := adapter.Hints()
		if task.NoteType == "" && hints.NoteType != "" {
			opts.NoteType = hints.NoteType
		}
		opts.Mapping = hints.Mapping
		return service.ImportStream(ctx, adapter, opts)

	case FormatLegacy:
		adapter, err := legacydb.Open(task.Path)
		if err != nil {
			return nil, nil, err
		}
		defer adapter.Close()
		if task.NoteType == "" {
			opts.NoteType = adapter.Hints().NoteType
		}
		return service.ImportStream(ctx, adapter, opts)

	default:
		return nil, nil, fmt.Errorf("unknown import format %q", task.Format)
	}
}

// NewImportFileQueue creates the backlite queue for file imports.
func NewImportFileQueue(service *services.ImportService) backlite.Queue {
	return backlite.NewQueue(ImportFileProcessor(service))
}
