// Package db opens the primary SQLite database and installs the schema,
// including the search index queue table and the triggers that populate
// it whenever an indexable entity changes.
package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Querier is the querying surface shared by *sql.DB and *sql.Tx. Code
// that must run inside the drain transaction takes a Querier so the
// caller decides the transaction scope.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DefaultBusyTimeout bounds how long a writer waits for the database
// lock before giving up.
const DefaultBusyTimeout = 5 * time.Second

// Open opens (creating if needed) the database at path and applies the
// connection pragmas. Pass ":memory:" for an in-memory database in
// tests. The pool is capped at one connection, which both serializes
// writers and keeps the pragmas on the connection they were applied to.
func Open(path string, busyTimeout time.Duration) (*sql.DB, error) {
	if busyTimeout <= 0 {
		busyTimeout = DefaultBusyTimeout
	}
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	sdb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout.Milliseconds()),
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := sdb.Exec(pragma); err != nil {
			_ = sdb.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	sdb.SetMaxOpenConns(1)
	return sdb, nil
}

// Migrate installs the schema. Every statement is idempotent, so
// migrating an already-provisioned database is a no-op.
func Migrate(ctx context.Context, sdb *sql.DB) error {
	if _, err := sdb.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to install schema: %w", err)
	}
	return nil
}
