package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mlevchik/mnemo/internal/adapters/pack"
	"github.com/mlevchik/mnemo/internal/config"
	"github.com/mlevchik/mnemo/internal/importer"
	"github.com/mlevchik/mnemo/internal/services"
)

// ImportPackCommand imports a zipped deck pack into the collection.
type ImportPackCommand struct {
	FilePath     string
	DatabasePath string
	NoteType     string
	OnDuplicate  string
	CaseFold     bool
	ReplaceTags  bool
	Verbose      bool
}

func NewImportPackCommand() *ImportPackCommand {
	return &ImportPackCommand{}
}

func (cmd *ImportPackCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import-pack", flag.ExitOnError)

	fs.StringVar(&cmd.FilePath, "file", "", "Path to the deck pack (.zip) to import (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the collection database file")
	fs.StringVar(&cmd.NoteType, "note-type", "", "Note type override (default: the pack manifest's hint)")
	fs.StringVar(&cmd.OnDuplicate, "on-duplicate", "skip", "Duplicate policy: skip, update or allow")
	fs.BoolVar(&cmd.CaseFold, "case-fold", false, "Case-insensitive duplicate matching")
	fs.BoolVar(&cmd.ReplaceTags, "replace-tags", false, "Replace tags on updated notes instead of merging")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Print every per-record problem")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import-pack -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import a deck pack: a zip archive holding manifest.yaml and notes.tsv.\n")
		fmt.Fprintf(os.Stderr, "Manifest tags are applied to every imported note.\n\n")
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

func (cmd *ImportPackCommand) Run() error {
	onDuplicate, err := importer.ParseOnDuplicate(cmd.OnDuplicate)
	if err != nil {
		return err
	}

	adapter, err := pack.Open(cmd.FilePath)
	if err != nil {
		return err
	}
	defer adapter.Close()

	hints := adapter.Hints()
	noteType := cmd.NoteType
	if noteType == "" {
		noteType = hints.NoteType
	}
	if noteType == "" {
		noteType = "Basic"
	}

	db, service, err := openCollection(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	manifest := adapter.Manifest()
	if manifest.Name != "" {
		fmt.Printf("Pack: %s\n", manifest.Name)
	}
	fmt.Printf("Importing %s into note type %q (on duplicate: %s)\n",
		filepath.Base(cmd.FilePath), noteType, onDuplicate)

	report, session, err := service.ImportStream(context.Background(), adapter, services.Options{
		SourceName:  filepath.Base(cmd.FilePath),
		NoteType:    noteType,
		Mapping:     hints.Mapping,
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
