package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationTableName is the goose version table.
const MigrationTableName = "schema_migrations"

// MigrationsDir is the directory of the embedded migrations.
const MigrationsDir = "migrations"

// gooseLogger routes goose output through slog.
type gooseLogger struct {
	log *slog.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.Info(fmt.Sprintf(format, v...))
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.log.Error(fmt.Sprintf(format, v...))
}

func configureGoose(log *slog.Logger) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetTableName(MigrationTableName)
	goose.SetLogger(gooseLogger{log: log.With(slog.String("component", "migrations"))})
	return goose.SetDialect("postgres")
}

// Migrate applies every pending embedded migration.
func Migrate(ctx context.Context, db *sql.DB, log *slog.Logger) error {
	if err := configureGoose(log); err != nil {
		return fmt.Errorf("failed to configure migrations: %w", err)
	}
	if err := goose.UpContext(ctx, db, MigrationsDir); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// MigrateReset rolls back every embedded migration. Used by integration tests.
func MigrateReset(ctx context.Context, db *sql.DB, log *slog.Logger) error {
	if err := configureGoose(log); err != nil {
		return fmt.Errorf("failed to configure migrations: %w", err)
	}
	if err := goose.ResetContext(ctx, db, MigrationsDir); err != nil {
		return fmt.Errorf("failed to reset migrations: %w", err)
	}
	return nil
}

// SchemaVersion returns the current goose version of the database.
func SchemaVersion(ctx context.Context, db *sql.DB, log *slog.Logger) (int64, error) {
	if err := configureGoose(log); err != nil {
		return 0, fmt.Errorf("failed to configure migrations: %w", err)
	}
	return goose.GetDBVersionContext(ctx, db)
}
