// Package scheduler runs the inbox watcher: a cron job that scans a
// drop directory and enqueues every recognized file as an import task.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mlevchik/mnemo/internal/config"
	"github.com/mlevchik/mnemo/internal/tasks"
)

// spoolDirName is the inbox subdirectory files are moved to before they
// are enqueued, so a rescan never picks the same file up twice.
const spoolDirName = ".spool"

// InboxScheduler periodically scans the inbox directory for files to
// import. Recognized files are moved into the spool subdirectory and
// handed to the task queue, which deletes them once imported.
type InboxScheduler struct {
	cfg        config.Inbox
	taskClient *tasks.Client

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isScanning bool
	cancelFunc context.CancelFunc
}

// NewInboxScheduler creates a new scheduler instance.
func NewInboxScheduler(cfg config.Inbox, taskClient *tasks.Client) *InboxScheduler {
	return &InboxScheduler{
		cfg:        cfg,
		taskClient: taskClient,
		cron:       cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if the inbox watcher is enabled.
func (s *InboxScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.cfg.Enabled {
		log.Printf("Inbox watcher: disabled")
		return nil
	}
	if s.taskClient == nil {
		log.Printf("Inbox watcher: task queue disabled, skipping")
		return nil
	}

	if err := os.MkdirAll(filepath.Join(s.cfg.Dir, spoolDirName), 0o755); err != nil {
		return fmt.Errorf("failed to prepare inbox directory: %w", err)
	}

	entryID, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		s.runScan()
	})
	if err != nil {
		return fmt.Errorf("invalid inbox schedule '%s': %w", s.cfg.Schedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Inbox watcher: started with schedule '%s' on %s", s.cfg.Schedule, s.cfg.Dir)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running scan.
func (s *InboxScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Inbox watcher: stopped")
}

// RunNow triggers an immediate scan.
func (s *InboxScheduler) RunNow() {
	go s.runScan()
}

// IsRunning returns whether the scheduler is active.
func (s *InboxScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next scan will occur.
func (s *InboxScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runScan performs one pass over the inbox directory.
func (s *InboxScheduler) runScan() {
	s.mu.Lock()
	if s.isScanning {
		s.mu.Unlock()
		log.Printf("Inbox watcher: scan skipped (already scanning)")
		return
	}
	s.isScanning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isScanning = false
		s.mu.Unlock()
	}()

	entries, err := os.ReadDir(s.cfg.Dir)
	if err != nil {
		log.Printf("Inbox watcher: failed to read %s: %v", s.cfg.Dir, err)
		return
	}

	var enqueued int
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		format := formatForFile(entry.Name())
		if format == "" {
			continue
		}

		src := filepath.Join(s.cfg.Dir, entry.Name())
		spooled := filepath.Join(s.cfg.Dir, spoolDirName, fmt.Sprintf("%d-%s", time.Now().UnixNano(), entry.Name()))
		if err := os.Rename(src, spooled); err != nil {
			log.Printf("Inbox watcher: failed to spool %s: %v", entry.Name(), err)
			continue
		}

		task := tasks.ImportFileTask{
			Path:        spooled,
			Format:      format,
			NoteType:    s.cfg.NoteType,
			DeleteAfter: true,
		}
		if _, err := s.taskClient.Add(task).Save(); err != nil {
			log.Printf("Inbox watcher: failed to enqueue %s: %v", entry.Name(), err)
			continue
		}
		enqueued++
	}

	if enqueued > 0 {
		log.Printf("Inbox watcher: enqueued %d file(s)", enqueued)
	}
}

// formatForFile maps a filename to an import format by extension; empty
// means the file is not importable and stays in the inbox.
func formatForFile(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".csv", ".tsv":
		return tasks.FormatText
	case ".zip", ".mpack":
		return tasks.FormatPack
	case ".db", ".sqlite":
		return tasks.FormatLegacy
	}
	return ""
}
