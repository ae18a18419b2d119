package store

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

// gooseLogger routes migration output through zap.
type gooseLogger struct {
	sugar *zap.SugaredLogger
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.sugar.Fatalf(format, v...)
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

// Migrate runs all pending database migrations.
func Migrate(db *sql.DB, logger *zap.Logger) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{sugar: logger.Named("migrate").Sugar()})

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

// MigrationVersion returns the current schema version.
func MigrationVersion(db *sql.DB) (int64, error) {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return 0, fmt.Errorf("setting goose dialect: %w", err)
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

// SchemaVersion returns the schema version of the open store.
func (s *Store) SchemaVersion() (int64, error) {
	return MigrationVersion(s.db)
}
