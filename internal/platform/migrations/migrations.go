// Package migrations embeds the schema migrations for every supported
// database driver and runs them through goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
)

//go:embed sql/postgres/*.sql sql/sqlite/*.sql
var embedded embed.FS

// Supported driver names, matching the database.driver config values.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Commands accepted by Run.
const (
	CommandUp      = "up"
	CommandDown    = "down"
	CommandReset   = "reset"
	CommandStatus  = "status"
	CommandVersion = "version"
)

// ErrUnknownCommand is returned when Run receives a command it does not support.
var ErrUnknownCommand = errors.New("unknown migration command")

// ErrUnknownDriver is returned for a driver with no embedded migrations.
var ErrUnknownDriver = errors.New("unknown database driver")

// Source returns the embedded migration files for a driver.
func Source(driver string) (fs.FS, goose.Dialect, error) {
	var dir string
	var dialect goose.Dialect
	switch driver {
	case DriverPostgres:
		dir, dialect = "sql/postgres", goose.DialectPostgres
	case DriverSQLite:
		dir, dialect = "sql/sqlite", goose.DialectSQLite3
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	sub, err := fs.Sub(embedded, dir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open embedded migrations for %s: %w", driver, err)
	}
	return sub, dialect, nil
}

// Run executes a goose command against db using the migrations embedded
// for driver. It logs every applied or rolled back migration.
func Run(ctx context.Context, db *sql.DB, driver, command string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With(
		"component", "migrations",
		"correlation_id", uuid.New().String(),
		"driver", driver,
		"command", command,
	)

	fsys, dialect, err := Source(driver)
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	startTime := time.Now()
	log.Info("starting migration operation")

	switch command {
	case CommandUp:
		var results []*goose.MigrationResult
		results, err = provider.Up(ctx)
		logResults(log, results)
	case CommandDown:
		var result *goose.MigrationResult
		result, err = provider.Down(ctx)
		if result != nil {
			logResults(log, []*goose.MigrationResult{result})
		}
	case CommandReset:
		var results []*goose.MigrationResult
		results, err = provider.DownTo(ctx, 0)
		logResults(log, results)
	case CommandStatus:
		var statuses []*goose.MigrationStatus
		statuses, err = provider.Status(ctx)
		for _, s := range statuses {
			log.Info("migration status",
				"version", s.Source.Version,
				"path", s.Source.Path,
				"state", string(s.State),
				"applied_at", s.AppliedAt)
		}
	case CommandVersion:
		var version int64
		version, err = provider.GetDBVersion(ctx)
		if err == nil {
			log.Info("current database migration version", "version", version)
		}
	default:
		log.Error("unknown migration command",
			"valid_commands", []string{CommandUp, CommandDown, CommandReset, CommandStatus, CommandVersion})
		return fmt.Errorf("%w: %s (expected up, down, reset, status, or version)", ErrUnknownCommand, command)
	}

	if err != nil {
		log.Error("migration command failed",
			"error", err,
			"duration_ms", time.Since(startTime).Milliseconds())
		return fmt.Errorf("migration command '%s' failed: %w", command, err)
	}

	log.Info("migration operation completed",
		"duration_ms", time.Since(startTime).Milliseconds())
	return nil
}

func logResults(log *slog.Logger, results []*goose.MigrationResult) {
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		log.Info("migration applied",
			"version", r.Source.Version,
			"path", r.Source.Path,
			"direction", r.Direction,
			"duration_ms", r.Duration.Milliseconds())
	}
}
