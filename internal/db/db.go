// Package db provides the local SQLite store used by thinkchat for client
// state such as the bearer token.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const defaultBusyTimeoutMs = 5000

// Options configures how the database is opened.
type Options struct {
	// BusyTimeoutMs is how long SQLite waits on a locked database.
	BusyTimeoutMs int
}

// DB wraps a SQLite connection pool.
type DB struct {
	*sql.DB
	path string
}

// Open opens (creating if needed) the database at path.
func Open(path string, opts Options) (*DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	busy := opts.BusyTimeoutMs
	if busy <= 0 {
		busy = defaultBusyTimeoutMs
	}
	query := url.Values{}
	query.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy))
	query.Add("_pragma", "journal_mode(WAL)")
	query.Add("_pragma", "foreign_keys(1)")

	conn, err := sql.Open("sqlite", "file:"+path+"?"+query.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &DB{DB: conn, path: path}, nil
}

// OpenInMemory opens a private in-memory database, mostly for tests.
func OpenInMemory() (*DB, error) {
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each connection to :memory: is its own database.
	conn.SetMaxOpenConns(1)
	return &DB{DB: conn, path: ":memory:"}, nil
}

// Path returns the file the database was opened from.
func (db *DB) Path() string {
	return db.path
}

// Transaction runs fn inside a transaction, rolling back when fn fails.
func (db *DB) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
