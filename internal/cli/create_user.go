package cli

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mlevchik/mnemo/internal/auth"
	"github.com/mlevchik/mnemo/internal/config"
	"github.com/mlevchik/mnemo/internal/database/users"
)

// CreateUserCommand creates an API user and prints its bearer token.
type CreateUserCommand struct {
	DatabasePath string
	Username     string
	Password     string
	BcryptCost   int
}

func NewCreateUserCommand() *CreateUserCommand {
	return &CreateUserCommand{}
}

func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the collection database file")
	fs.StringVar(&cmd.Username, "username", "", "Username for the new user (required)")
	fs.StringVar(&cmd.Password, "password", "", "Password (prompted on stdin when omitted)")
	fs.IntVar(&cmd.BcryptCost, "bcrypt-cost", 12, "Bcrypt cost for the password hash")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user -username <name> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create an API user for token authentication (AUTH_MODE=token).\n")
		fmt.Fprintf(os.Stderr, "The generated token is printed once; store it securely.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Username == "" {
		return fmt.Errorf("required flag -username not provided")
	}
	return nil
}

func (cmd *CreateUserCommand) Run() error {
	password := cmd.Password
	if password == "" {
		fmt.Printf("Password (min %d characters): ", auth.MinPasswordLength)
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	hash, err := auth.HashPassword(password, cmd.BcryptCost)
	if err != nil {
		return err
	}

	db, _, err := openCollection(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	user, err := users.NewRepository(db.DB).Create(cmd.Username, hash)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("Created user %q (id %d)\n", user.Username, user.ID)
	fmt.Printf("API token: %s\n", user.Token)
	return nil
}
