// Command migrate applies the embedded SQL migrations to PostgreSQL.
//
//	migrate [-database-url URL] up
//	migrate [-database-url URL] [-steps N] down
//	migrate [-database-url URL] status
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/userprov/userprov/internal/migrations"
)

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		steps       = flag.Int("steps", 1, "Number of migrations to roll back with down")
		timeout     = flag.Duration("timeout", 5*time.Minute, "Overall timeout, including waiting for the migration lock")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}
	if err := validateCommand(command, *steps); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := sql.Open("postgres", *databaseURL)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := run(ctx, logger, db, os.Stdout, command, *steps); err != nil {
		logger.Error("migrate failed", "command", command, "error", err)
		os.Exit(1)
	}
}

func validateCommand(command string, steps int) error {
	switch command {
	case "up", "status":
		return nil
	case "down":
		if steps < 1 {
			return fmt.Errorf("-steps must be at least 1, got %d", steps)
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q (want up, down or status)", command)
	}
}

func run(ctx context.Context, logger *slog.Logger, db *sql.DB, out io.Writer, command string, steps int) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	p, err := migrations.NewProvider(db)
	if err != nil {
		return err
	}

	switch command {
	case "up":
		results, err := p.Up(ctx)
		if err != nil {
			return err
		}
		for _, r := range results {
			logger.Info("applied migration", "version", r.Source.Version, "file", path.Base(r.Source.Path), "duration", r.Duration)
		}
		logger.Info("migrations applied", "count", len(results))
	case "down":
		n := 0
		for ; n < steps; n++ {
			r, err := p.Down(ctx)
			if errors.Is(err, goose.ErrNoNextVersion) {
				break
			}
			if err != nil {
				return err
			}
			logger.Info("rolled back migration", "version", r.Source.Version, "file", path.Base(r.Source.Path))
		}
		logger.Info("migrations rolled back", "count", n)
	case "status":
		statuses, err := p.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			fmt.Fprintf(out, "%06d\t%s\t%s\n", s.Source.Version, path.Base(s.Source.Path), s.State)
		}
	default:
		return validateCommand(command, steps)
	}

	return nil
}
