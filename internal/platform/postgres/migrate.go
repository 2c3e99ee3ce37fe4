package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskboard/internal/redact"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const migrationsDir = "migrations"

// MigrationTableName is the name of the table used by goose to track migrations.
const MigrationTableName = "schema_migrations"

// Migration commands accepted by Migrate.
var MigrationCommands = []string{"up", "down", "reset", "status", "version"}

// Migrate runs a goose command against db using the embedded migrations.
func Migrate(ctx context.Context, db *sql.DB, command string, logger *slog.Logger) error {
	log := logger.With("component", "migrations", "command", command)

	run, err := migrationFunc(command)
	if err != nil {
		return err
	}

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(&slogGooseLogger{logger: log})
	goose.SetTableName(MigrationTableName)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	start := time.Now()
	log.Info("starting migration command")
	if err := run(ctx, db, migrationsDir); err != nil {
		log.Error("migration command failed",
			"error", redact.Error(err),
			"duration_ms", time.Since(start).Milliseconds())
		return fmt.Errorf("migration command '%s' failed: %w", command, err)
	}

	log.Info("migration command executed successfully",
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

type migrationRunner func(ctx context.Context, db *sql.DB, dir string) error

func migrationFunc(command string) (migrationRunner, error) {
	switch command {
	case "up":
		return func(ctx context.Context, db *sql.DB, dir string) error {
			return goose.UpContext(ctx, db, dir)
		}, nil
	case "down":
		return func(ctx context.Context, db *sql.DB, dir string) error {
			return goose.DownContext(ctx, db, dir)
		}, nil
	case "reset":
		return func(ctx context.Context, db *sql.DB, dir string) error {
			return goose.ResetContext(ctx, db, dir)
		}, nil
	case "status":
		return func(ctx context.Context, db *sql.DB, dir string) error {
			return goose.StatusContext(ctx, db, dir)
		}, nil
	case "version":
		return func(ctx context.Context, db *sql.DB, dir string) error {
			return goose.VersionContext(ctx, db, dir)
		}, nil
	default:
		return nil, fmt.Errorf(
			"unknown migration command: %s (expected up, down, reset, status, or version)",
			command,
		)
	}
}

// slogGooseLogger adapts the goose logger interface to slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

// Printf forwards goose progress messages at info level.
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

// Fatalf forwards goose failures at error level.
// Unlike the standard Fatalf it does NOT call os.Exit; the command
// returns the error to its caller instead.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}
