package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"fujirock/internal/core"
)

const memoryPath = ":memory:"

// Store is the SQLite content store.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open opens the SQLite database at cfg.Path with WAL and foreign keys
// enabled and applies pending migrations.
func Open(ctx context.Context, cfg core.StoreConfig, logger *zap.Logger) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = core.DefaultStorePath
	}
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_foreign_keys=on", path, busy.Milliseconds())

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite allows a single writer; an in-memory database also lives on
	// exactly one connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w: %w", core.ErrStoreUnavailable, err)
	}

	if err := Migrate(db, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("Content store ready", zap.String("path", path))

	return &Store{db: db, logger: logger, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable("pinging database", err)
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, core.ErrStoreUnavailable, err)
}

func isConstraint(err error, code sqlite3.ErrNoExtended) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == code
}

func marshalStrings(s []string) string {
	if s == nil {
		return "[]"
	}
	data, _ := json.Marshal(s)
	return string(data)
}

func unmarshalStrings(data string) []string {
	if data == "" || data == "[]" {
		return nil
	}
	var result []string
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil
	}
	return result
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
