// Command authctl is the operator CLI: account creation and token
// housekeeping against the server's database, without going through the
// HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/iudanet/authkeeper/internal/config"
	"github.com/iudanet/authkeeper/internal/iocli"
	"github.com/iudanet/authkeeper/internal/models"
	"github.com/iudanet/authkeeper/internal/server/storage"
	"github.com/iudanet/authkeeper/internal/server/storage/sqlite"
	"github.com/iudanet/authkeeper/internal/validation"
)

const usage = `Usage: authctl [flags] <command> [args]

Commands:
  create-user <username> <email>   Create an account (prompts for a password)
  purge-expired                    Delete all expired auth tokens
  revoke-all <username>            Delete every auth token of a user

Flags:
  -config <path>   JSON config file (for the database path)
  -db <path>       SQLite database path (overrides config)
`

func main() {
	configPath := flag.String("config", "", "Path to JSON config file")
	dbPath := flag.String("db", "", "Path to the SQLite database (overrides config)")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*configPath, *dbPath, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "authctl: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, dbPath string, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.DatabasePath = dbPath
	}

	ctx := context.Background()

	db, err := sqlite.New(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	app := &app{io: iocli.NewStdio(), users: db, tokens: db}

	switch args[0] {
	case "create-user":
		if len(args) != 3 {
			return errors.New("usage: authctl create-user <username> <email>")
		}
		return app.createUser(ctx, args[1], args[2])
	case "purge-expired":
		return app.purgeExpired(ctx)
	case "revoke-all":
		if len(args) != 2 {
			return errors.New("usage: authctl revoke-all <username>")
		}
		return app.revokeAll(ctx, args[1])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// app holds a command's dependencies; tests drive it with scripted IO
// and an in-memory database
type app struct {
	io     iocli.IO
	users  storage.UserStorage
	tokens storage.TokenStorage
}

func (a *app) createUser(ctx context.Context, username, email string) error {
	if err := validation.ValidateUsername(username); err != nil {
		return err
	}
	if err := validation.ValidateEmail(email); err != nil {
		return err
	}

	password, err := a.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return err
	}

	confirm, err := a.io.ReadPassword("Confirm password: ")
	if err != nil {
		return fmt.Errorf("failed to read password confirmation: %w", err)
	}
	if err := validation.ValidatePasswordConfirmation(password, confirm); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    time.Now(),
	}

	if err := a.users.CreateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, storage.ErrUserAlreadyExists):
			return fmt.Errorf("username %q is already taken", username)
		case errors.Is(err, storage.ErrEmailAlreadyExists):
			return fmt.Errorf("email %q is already taken", email)
		default:
			return fmt.Errorf("failed to create user: %w", err)
		}
	}

	a.io.Printf("user %s created (id %s)\n", username, user.ID)
	return nil
}

func (a *app) purgeExpired(ctx context.Context) error {
	deleted, err := a.tokens.DeleteExpiredTokens(ctx)
	if err != nil {
		return fmt.Errorf("failed to purge expired tokens: %w", err)
	}

	a.io.Printf("%d expired token(s) deleted\n", deleted)
	return nil
}

func (a *app) revokeAll(ctx context.Context, username string) error {
	user, err := a.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return fmt.Errorf("user %q not found", username)
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	deleted, err := a.tokens.DeleteUserTokens(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}

	a.io.Printf("%d token(s) revoked for %s\n", deleted, username)
	return nil
}
