package blocktank

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
)

//go:embed schema.sql
var schemaSQL string

// Store is the durable LSP cache. Same single-writer discipline as the
// activity ledger; it lives in its own database file so a ledger wipe
// and a cache wipe stay independent.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
	apiURL string
}

// Open creates or opens the cache database at the given path. If the
// path does not already name a .db or .sqlite file, blocktank.db is
// appended.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if !strings.HasSuffix(path, ".db") && !strings.HasSuffix(path, ".sqlite") {
		path = filepath.Join(strings.TrimRight(path, "/"), "blocktank.db")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, newError(KindInitialization, "create database directory", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, newError(KindInitialization, "open database", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, newError(KindInitialization, "connect to database", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, newError(KindInitialization, fmt.Sprintf("execute %q", pragma), err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, newError(KindInitialization, "execute schema", err)
	}

	logger.Info("lsp cache initialized", zap.String("path", path))

	return &Store{db: db, logger: logger, apiURL: DefaultAPIURL}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// APIURL returns the configured LSP endpoint.
func (s *Store) APIURL() string {
	return s.apiURL
}

// SetAPIURL overrides the LSP endpoint. Empty is rejected.
func (s *Store) SetAPIURL(url string) error {
	if url == "" {
		return newError(KindInitialization, "api url cannot be empty", nil)
	}
	s.apiURL = url
	return nil
}

// WipeAll deletes orders, CJIT entries, and info in one transaction.
// The static state enum tables persist across wipes.
func (s *Store) WipeAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return newError(KindData, "wipe: begin tx", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"orders", "cjit_entries", "info"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return newError(KindData, "wipe "+table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return newError(KindData, "wipe: commit", err)
	}
	return nil
}
