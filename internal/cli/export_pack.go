package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mlevchik/mnemo/internal/config"
	"github.com/mlevchik/mnemo/internal/database/notes"
	"github.com/mlevchik/mnemo/internal/exporters"
)

// ExportPackCommand exports all notes of a note type as a deck pack.
type ExportPackCommand struct {
	OutPath      string
	DatabasePath string
	NoteType     string
	DeckName     string
}

func NewExportPackCommand() *ExportPackCommand {
	return &ExportPackCommand{}
}

func (cmd *ExportPackCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("export-pack", flag.ExitOnError)

	fs.StringVar(&cmd.OutPath, "out", "", "Path of the pack to write (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the collection database file")
	fs.StringVar(&cmd.NoteType, "note-type", "Basic", "Note type to export")
	fs.StringVar(&cmd.DeckName, "name", "", "Deck name stored in the manifest (default: derived from -out)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s export-pack -out <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Export every note of a note type as a deck pack (zip with manifest\n")
		fmt.Fprintf(os.Stderr, "and notes.tsv). The pack re-imports losslessly, tags included.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.OutPath == "" {
		return fmt.Errorf("required flag -out not provided")
	}
	if cmd.DeckName == "" {
		base := cmd.OutPath
		if i := strings.LastIndexByte(base, '/'); i >= 0 {
			base = base[i+1:]
		}
		cmd.DeckName = strings.TrimSuffix(base, ".zip")
	}
	return nil
}

func (cmd *ExportPackCommand) Run() error {
	db, _, err := openCollection(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	exporter := exporters.NewPackExporter(notes.NewRepository(db.DB))
	result, err := exporter.Export(cmd.NoteType, cmd.DeckName, cmd.OutPath)
	if err != nil {
		return err
	}

	fmt.Printf("Exported %d notes to %s\n", result.NotesExported, result.Path)
	return nil
}
