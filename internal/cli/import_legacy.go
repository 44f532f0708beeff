package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mlevchik/mnemo/internal/adapters/legacydb"
	"github.com/mlevchik/mnemo/internal/config"
	"github.com/mlevchik/mnemo/internal/importer"
	"github.com/mlevchik/mnemo/internal/services"
)

// ImportLegacyCommand imports a legacy SQLite lesson database.
type ImportLegacyCommand struct {
	FilePath     string
	DatabasePath string
	NoteType     string
	OnDuplicate  string
	CaseFold     bool
	ReplaceTags  bool
	Verbose      bool
}

func NewImportLegacyCommand() *ImportLegacyCommand {
	return &ImportLegacyCommand{}
}

func (cmd *ImportLegacyCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import-legacy", flag.ExitOnError)

	fs.StringVar(&cmd.FilePath, "file", "", "Path to the legacy lesson database (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the collection database file")
	fs.StringVar(&cmd.NoteType, "note-type", "", "Note type override (default: Basic)")
	fs.StringVar(&cmd.OnDuplicate, "on-duplicate", "skip", "Duplicate policy: skip, update or allow")
	fs.BoolVar(&cmd.CaseFold, "case-fold", false, "Case-insensitive duplicate matching")
	fs.BoolVar(&cmd.ReplaceTags, "replace-tags", false, "Replace tags on updated notes instead of merging")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Print every per-record problem")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import-legacy -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import question/answer facts from a legacy SQLite lesson database.\n")
		fmt.Fprintf(os.Stderr, "The category column becomes tags.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.FilePath == "" {
		return fmt.Errorf("required flag -file not provided")
	}
	return nil
}

func (cmd *ImportLegacyCommand) Run() error {
	onDuplicate, err := importer.ParseOnDuplicate(cmd.OnDuplicate)
	if err != nil {
		return err
	}

	if _, err := os.Stat(cmd.FilePath); os.IsNotExist(err) {
		return fmt.Errorf("lesson database not found: %s", cmd.FilePath)
	}

	adapter, err := legacydb.Open(cmd.FilePath)
	if err != nil {
		return err
	}
	defer adapter.Close()

	noteType := cmd.NoteType
	if noteType == "" {
		noteType = adapter.Hints().NoteType
	}

	db, service, err := openCollection(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Printf("Importing %s into note type %q (on duplicate: %s)\n",
		filepath.Base(cmd.FilePath), noteType, onDuplicate)

	report, session, err := service.ImportStream(context.Background(), adapter, services.Options{
		SourceName:  filepath.Base(cmd.FilePath),
		NoteType:    noteType,
		TagsColumn:  -1,
		OnDuplicate: onDuplicate,
		CaseFold:    cmd.CaseFold,
		ReplaceTags: cmd.ReplaceTags,
	})
	if err != nil {
		return fmt.Errorf("import aborted: %w", err)
	}

	fmt.Printf("Session %d completed.\n", session.ID)
	printReport(report, cmd.Verbose)
	return nil
}
