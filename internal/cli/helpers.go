// Package cli implements the command-line subcommands: direct imports
// against a collection file, user management, and collection stats.
package cli

import (
	"fmt"
	"path/filepath"

	"github.com/mlevchik/mnemo/internal/database"
	"github.com/mlevchik/mnemo/internal/database/notes"
	"github.com/mlevchik/mnemo/internal/database/sessions"
	"github.com/mlevchik/mnemo/internal/importer"
	"github.com/mlevchik/mnemo/internal/services"
)

// openCollection opens (and migrates) the collection database and builds
// the import service on top of it.
func openCollection(dbPath string) (*database.Database, *services.ImportService, error) {
	absPath, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve database path: %w", err)
	}

	db, err := database.NewDatabase(absPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	noteRepo := notes.NewRepository(db.DB)
	sessionRepo := sessions.NewRepository(db.DB)
	return db, services.NewImportService(noteRepo, sessionRepo), nil
}

// printReport writes the import outcome in the shared summary format.
func printReport(report *importer.Report, verbose bool) {
	if report == nil {
		return
	}

	fmt.Println("\n=== Import Summary ===")
	fmt.Printf("Added:   %d\n", report.Added)
	fmt.Printf("Updated: %d\n", report.Updated)
	fmt.Printf("Skipped: %d\n", report.Skipped)
	fmt.Printf("Errored: %d\n", report.Errored)

	if len(report.Problems) == 0 {
		return
	}
	if !verbose && len(report.Problems) > 10 {
		fmt.Printf("\n%d problems (first 10 shown, use -verbose for all):\n", len(report.Problems))
	} else {
		fmt.Printf("\n%d problems:\n", len(report.Problems))
	}
	for i, p := range report.Problems {
		if !verbose && i >= 10 {
			break
		}
		kind := "ERROR"
		if p.Warning {
			kind = "WARN"
		}
		fmt.Printf("  [%s] record %d: %s\n", kind, p.RecordIndex, p.Message)
	}
}
