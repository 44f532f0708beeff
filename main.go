package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/mlevchik/mnemo/internal/cli"
	"github.com/mlevchik/mnemo/internal/config"
	"github.com/mlevchik/mnemo/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded environment from .env")
	}

	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		cfg := config.NewConfig()
		entrypoint.Run(cfg, Version)
		return
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "import-text":
		runCommand(cli.NewImportTextCommand(), args)

	case "import-pack":
		runCommand(cli.NewImportPackCommand(), args)

	case "import-legacy":
		runCommand(cli.NewImportLegacyCommand(), args)

	case "export-pack":
		runCommand(cli.NewExportPackCommand(), args)

	case "create-user":
		runCommand(cli.NewCreateUserCommand(), args)

	case "stats":
		runCommand(cli.NewStatsCommand(), args)

	case "-h", "--help", "help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// command is the contract every CLI subcommand satisfies.
type command interface {
	ParseFlags(args []string) error
	Run() error
}

func runCommand(cmd command, args []string) {
	if err := cmd.ParseFlags(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve          Start the HTTP server (default if no command given)\n")
	fmt.Fprintf(os.Stderr, "  import-text    Import notes from a delimited text file\n")
	fmt.Fprintf(os.Stderr, "  import-pack    Import notes from a zipped deck pack\n")
	fmt.Fprintf(os.Stderr, "  import-legacy  Import facts from a legacy SQLite lesson database\n")
	fmt.Fprintf(os.Stderr, "  export-pack    Export a note type as a deck pack\n")
	fmt.Fprintf(os.Stderr, "  create-user    Create an API user for token authentication\n")
	fmt.Fprintf(os.Stderr, "  stats          Show collection statistics and import history\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}
