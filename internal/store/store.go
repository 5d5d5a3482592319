package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/BitcoinErrorLog/bitkit-core/internal/activity"
)

//go:embed schema.sql
var schemaSQL string

// Store provides durable storage for the wallet's activity ledger.
// Construct one at the application's composition root and pass it to
// every component that needs it; there is no ambient global handle.
//
// SQLite supports one writer at a time, so the connection pool is capped
// at a single connection. Concurrent use from multiple Store instances
// over the same file is serialized by the engine's own locking; readers
// see either the pre- or post-commit state, never a partial one.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open creates or opens the activity database at the given path.
// Parent directories are created as needed. If the path does not already
// name a .db or .sqlite file, activity.db is appended.
//
// Schema creation is idempotent - safe to call on every startup. A
// failure here is fatal and non-retryable.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if !strings.HasSuffix(path, ".db") && !strings.HasSuffix(path, ".sqlite") {
		path = filepath.Join(strings.TrimRight(path, "/"), "activity.db")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, activity.NewError(activity.KindInitialization, "create database directory", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, activity.NewError(activity.KindInitialization, "open database", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, activity.NewError(activity.KindInitialization, "connect to database", err)
	}

	// Single writer to avoid SQLITE_BUSY on one file handle.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, activity.NewError(activity.KindInitialization, "apply pragmas", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, activity.NewError(activity.KindInitialization, "execute schema", err)
	}

	logger.Info("activity database initialized", zap.String("path", path))

	return &Store{db: db, logger: logger}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// WipeAll deletes every activity (cascading tags and child rows), all
// pre-activity metadata, and all closed channels in one transaction.
// This is a full reset, never a partial one.
func (s *Store) WipeAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return activity.NewError(activity.KindData, "wipe all: begin tx", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM activities`); err != nil {
		return activity.NewError(activity.KindData, "wipe all: delete activities", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM pre_activity_metadata`); err != nil {
		return activity.NewError(activity.KindData, "wipe all: delete pre-activity metadata", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM closed_channels`); err != nil {
		return activity.NewError(activity.KindData, "wipe all: delete closed channels", err)
	}

	if err := tx.Commit(); err != nil {
		return activity.NewError(activity.KindData, "wipe all: commit", err)
	}
	return nil
}
