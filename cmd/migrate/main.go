// Package main applies or inspects the SQLite schema migrations of the local
// paper cache and search history store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/paper-discovery-service/internal/config"
	"github.com/helixir/paper-discovery-service/internal/database"
	"github.com/helixir/paper-discovery-service/internal/observability"
)

type action struct {
	name string
	run  func(ctx context.Context, db *database.DB, m *database.Migrator, logger zerolog.Logger) error
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		up      = flag.Bool("up", false, "Apply all pending migrations")
		down    = flag.Bool("down", false, "Roll back all migrations (drops cached papers and history)")
		steps   = flag.Int("steps", 0, "Apply N steps (positive=up, negative=down)")
		version = flag.Bool("version", false, "Print the current schema version")
		status  = flag.Bool("status", false, "Print the schema version and store health")
		force   = flag.Int("force", -1, "Force the schema version after a failed migration")
		dbPath  = flag.String("db", "", "SQLite file to migrate (default: storage.path)")
	)
	flag.Parse()

	var selected []action
	if *up {
		selected = append(selected, action{"up", func(_ context.Context, _ *database.DB, m *database.Migrator, _ zerolog.Logger) error {
			return m.Up()
		}})
	}
	if *down {
		selected = append(selected, action{"down", func(_ context.Context, _ *database.DB, m *database.Migrator, _ zerolog.Logger) error {
			return m.Down()
		}})
	}
	if *steps != 0 {
		n := *steps
		selected = append(selected, action{"steps", func(_ context.Context, _ *database.DB, m *database.Migrator, _ zerolog.Logger) error {
			return m.Steps(n)
		}})
	}
	if *version {
		selected = append(selected, action{"version", func(context.Context, *database.DB, *database.Migrator, zerolog.Logger) error {
			return nil
		}})
	}
	if *status {
		selected = append(selected, action{"status", func(ctx context.Context, db *database.DB, _ *database.Migrator, logger zerolog.Logger) error {
			h := db.Health(ctx)
			logger.Info().
				Str("path", h.Path).
				Str("status", h.Status).
				Str("error", h.Error).
				Msg("store health")
			return nil
		}})
	}
	if *force >= 0 {
		v := *force
		selected = append(selected, action{"force", func(_ context.Context, _ *database.DB, m *database.Migrator, _ zerolog.Logger) error {
			return m.Force(v)
		}})
	}

	switch len(selected) {
	case 0:
		flag.Usage()
		return errors.New("specify one of -up, -down, -steps N, -version, -status, -force V")
	case 1:
	default:
		return errors.New("specify only one action at a time")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	}).With().Str("component", "migrate").Logger()

	storage := cfg.Storage
	if *dbPath != "" {
		storage.Path = *dbPath
	}
	if storage.Path == database.MemoryPath {
		return errors.New("refusing to migrate an in-memory database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Open(ctx, &storage, logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	migrator, err := database.NewMigrator(db, logger)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("failed to close migrator")
		}
	}()

	act := selected[0]
	logger.Info().Str("action", act.name).Str("path", db.Path()).Msg("running migration action")
	if err := act.run(ctx, db, migrator, logger); err != nil {
		return fmt.Errorf("migrate %s: %w", act.name, err)
	}
	logVersion(migrator, logger)
	return nil
}

func logVersion(migrator *database.Migrator, logger zerolog.Logger) {
	v, dirty, err := migrator.Version()
	if err != nil {
		logger.Warn().Err(err).Msg("could not determine schema version")
		return
	}
	logger.Info().Uint("version", v).Bool("dirty", dirty).Msg("current schema version")
}
