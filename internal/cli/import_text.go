package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mlevchik/mnemo/internal/adapters/textfile"
	"github.com/mlevchik/mnemo/internal/config"
	"github.com/mlevchik/mnemo/internal/importer"
	"github.com/mlevchik/mnemo/internal/services"
)

// ImportTextCommand imports a delimited text file into the collection.
type ImportTextCommand struct {
	FilePath     string
	DatabasePath string
	NoteType     string
	OnDuplicate  string
	MappingPath  string
	TagsColumn   int
	CaseFold     bool
	ReplaceTags  bool
	DryRun       bool
	Verbose      bool
}

func NewImportTextCommand() *ImportTextCommand {
	return &ImportTextCommand{}
}

func (cmd *ImportTextCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import-text", flag.ExitOnError)

	fs.StringVar(&cmd.FilePath, "file", "", "Path to the text file to import (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the collection database file")
	fs.StringVar(&cmd.NoteType, "note-type", "Basic", "Note type the records target")
	fs.StringVar(&cmd.OnDuplicate, "on-duplicate", "skip", "Duplicate policy: skip, update or allow")
	fs.StringVar(&cmd.MappingPath, "mapping", "", "Path to a YAML field mapping (default: column i -> field i)")
	fs.IntVar(&cmd.TagsColumn, "tags-column", -1, "Column index whose value becomes tags (-1 disables)")
	fs.BoolVar(&cmd.CaseFold, "case-fold", false, "Case-insensitive duplicate matching")
	fs.BoolVar(&cmd.ReplaceTags, "replace-tags", false, "Replace tags on updated notes instead of merging")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Show what would be imported without making changes")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Print every per-record problem")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import-text -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import notes from a delimited text file (TSV, CSV, semicolon or pipe).\n")
		fmt.Fprintf(os.Stderr, "The delimiter is guessed from the first line. Lines starting with '#'\n")
		fmt.Fprintf(os.Stderr, "are comments; a leading 'tags:' line applies tags to every record.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s import-text -file vocab.tsv -note-type Vocabulary\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s import-text -file deck.csv -on-duplicate update -case-fold\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.FilePath == "" {
		return fmt.Errorf("required flag -file not provided")
	}
	return nil
}

func (cmd *ImportTextCommand) Run() error {
	onDuplicate, err := importer.ParseOnDuplicate(cmd.OnDuplicate)
	if err != nil {
		return err
	}

	var mapping *importer.FieldMapping
	if cmd.MappingPath != "" {
		m, err := importer.LoadMapping(cmd.MappingPath)
		if err != nil {
			return err
		}
		mapping = &m
	}

	file, err := os.Open(cmd.FilePath)
	if err != nil {
		return fmt.Errorf("failed to open import file: %w", err)
	}
	defer file.Close()

	adapter, err := textfile.Open(file)
	if err != nil {
		return err
	}

	db, service, err := openCollection(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Printf("Importing %s into note type %q (on duplicate: %s)\n",
		filepath.Base(cmd.FilePath), cmd.NoteType, onDuplicate)

	report, session, err := service.ImportStream(context.Background(), adapter, services.Options{
		SourceName:  filepath.Base(cmd.FilePath),
		NoteType:    cmd.NoteType,
		Mapping:     mapping,
		TagsColumn:  cmd.TagsColumn,
		OnDuplicate: onDuplicate,
		CaseFold:    cmd.CaseFold,
		ReplaceTags: cmd.ReplaceTags,
		DryRun:      cmd.DryRun,
	})
	if err != nil {
		return fmt.Errorf("import aborted: %w", err)
	}

	if cmd.DryRun {
		fmt.Println("Dry run complete. Use without -dry-run to import.")
	} else {
		fmt.Printf("Session %d completed.\n", session.ID)
	}
	printReport(report, cmd.Verbose)
	return nil
}
