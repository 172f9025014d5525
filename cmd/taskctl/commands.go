package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/cryptox"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

// options holds the global flags. Empty values fall back to the server
// configuration (defaults and environment).
type options struct {
	driver string
	dsn    string
	logger logging.Logger
}

func newApp(stdin io.Reader, stdout io.Writer) *cli.App {
	opts := options{
		logger: logging.NewZerologLogger(zerolog.New(zerolog.ConsoleWriter{Out: stdout, NoColor: true}).
			With().Timestamp().Logger()),
	}
	return &cli.App{
		Name:      "taskctl",
		Usage:     "Administer the taskkeeper database",
		Writer:    stdout,
		ErrWriter: stdout,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "driver",
				Aliases:     []string{"k"},
				Usage:       "database driver (pgx or sqlite)",
				Destination: &opts.driver,
			},
			&cli.StringFlag{
				Name:        "dsn",
				Aliases:     []string{"d"},
				Usage:       "database connection string",
				Destination: &opts.dsn,
			},
		},
		Commands: []*cli.Command{
			migrateCmd(&opts, stdout),
			signupCmd(&opts, stdin, stdout),
		},
	}
}

func migrateCmd(opts *options, stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending schema migrations",
		Action: func(ctx *cli.Context) error {
			cfg, db, m, err := open(ctx.Context, opts)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := m.RunMigrations(ctx.Context, db); err != nil {
				return fmt.Errorf("migration error: %w", err)
			}
			fmt.Fprintf(stdout, "migrations applied (%s)\n", cfg.DatabaseDriver)
			return nil
		},
	}
}

func signupCmd(opts *options, stdin io.Reader, stdout io.Writer) *cli.Command {
	var username string
	return &cli.Command{
		Name:  "signup",
		Usage: "Create an account (password is prompted for, or read from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "username",
				Aliases:     []string{"u", "user"},
				Usage:       "Name of the account to create",
				Destination: &username,
				Required:    true,
			},
		},
		Action: func(ctx *cli.Context) error {
			fmt.Fprintln(stdout, "Enter password")
			password, err := readPassword(stdin)
			if err != nil {
				return err
			}

			cfg, db, m, err := open(ctx.Context, opts)
			if err != nil {
				return err
			}
			defer db.Close()

			accounts := services.NewAccountService(db, m,
				cryptox.NewHasher(server.HasherParams(cfg)),
				auth.NewIssuer([]byte(cfg.SecretKey), cfg.AccessTokenValidityDuration),
				opts.logger)

			if err := accounts.SignUp(ctx.Context, username, password); err != nil {
				return fmt.Errorf("signup %q: %w", username, err)
			}
			fmt.Fprintln(stdout, "Success!")
			return nil
		},
	}
}

func open(ctx context.Context, opts *options) (*config.Config, *sql.DB, repomanager.RepositoryManager, error) {
	cfg, err := config.LoadConfig(nil)
	if err != nil {
		return nil, nil, nil, err
	}
	if opts.driver != "" {
		cfg.DatabaseDriver = opts.driver
	}
	if opts.dsn != "" {
		cfg.DatabaseDSN = opts.dsn
	}

	m, err := repomanager.NewRepositoryManager(cfg.DatabaseDriver, opts.logger)
	if err != nil {
		return nil, nil, nil, err
	}

	db, err := repomanager.OpenDB(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, nil, err
	}

	return cfg, db, m, nil
}

// readPassword reads a password without echo from a terminal, or the first
// line of in otherwise.
func readPassword(in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	sc := bufio.NewScanner(in)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", errors.New("missing password from stdin")
	}
	// Only the line terminator is stripped; spaces belong to the password.
	password := strings.TrimRight(sc.Text(), "\r\n")
	if password == "" {
		return "", errors.New("missing password from stdin")
	}
	return password, nil
}
