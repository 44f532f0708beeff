package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mlevchik/mnemo/internal/config"
	"github.com/mlevchik/mnemo/internal/database/notes"
	"github.com/mlevchik/mnemo/internal/database/sessions"
)

// StatsCommand prints collection statistics and recent import history.
type StatsCommand struct {
	DatabasePath string
	Sessions     int
}

func NewStatsCommand() *StatsCommand {
	return &StatsCommand{}
}

func (cmd *StatsCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the collection database file")
	fs.IntVar(&cmd.Sessions, "sessions", 5, "Number of recent import sessions to show")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s stats [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Show collection totals, note types and recent import sessions.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *StatsCommand) Run() error {
	db, _, err := openCollection(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	noteRepo := notes.NewRepository(db.DB)
	sessionRepo := sessions.NewRepository(db.DB)

	totalNotes, totalCards, err := noteRepo.Stats()
	if err != nil {
		return fmt.Errorf("failed to read collection stats: %w", err)
	}

	fmt.Println("Collection")
	fmt.Println("==========")
	fmt.Printf("Notes: %d\n", totalNotes)
	fmt.Printf("Cards: %d\n", totalCards)

	types, err := noteRepo.AllNoteTypes()
	if err != nil {
		return fmt.Errorf("failed to list note types: %w", err)
	}

	fmt.Println("\nNote types")
	fmt.Println("==========")
	for _, nt := range types {
		fmt.Printf("%-20s %s\n", nt.Name, strings.Join(nt.FieldNames(), " / "))
	}

	if cmd.Sessions <= 0 {
		return nil
	}

	recent, err := sessionRepo.Recent(cmd.Sessions)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(recent) == 0 {
		return nil
	}

	fmt.Println("\nRecent imports")
	fmt.Println("==============")
	for _, s := range recent {
		fmt.Printf("#%d %s %s: +%d added, %d updated, %d skipped, %d errored\n",
			s.ID, s.StartedAt.Format("2006-01-02 15:04"), s.SourceName,
			s.Added, s.Updated, s.Skipped, s.Errored)
		if s.FatalError != "" {
			fmt.Printf("    aborted: %s\n", s.FatalError)
		}
	}
	return nil
}
