package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrKVNotFound is returned when a key has no stored value.
var ErrKVNotFound = errors.New("kv entry not found")

// KVEntry is one namespaced key/value row.
type KVEntry struct {
	Namespace string
	Key       string
	Value     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// KVRepository stores small client-side values, the local analog of browser
// storage.
type KVRepository struct {
	db *DB
}

// NewKVRepository creates a KVRepository.
func NewKVRepository(db *DB) *KVRepository {
	return &KVRepository{db: db}
}

// Set stores value under namespace/key, replacing any previous value.
func (r *KVRepository) Set(ctx context.Context, namespace, key, value string) error {
	namespace = strings.TrimSpace(namespace)
	key = strings.TrimSpace(key)
	if namespace == "" {
		return fmt.Errorf("namespace is required")
	}
	if key == "" {
		return fmt.Errorf("key is required")
	}
	if value == "" {
		return fmt.Errorf("value is required")
	}

	now := time.Now().UTC().Format(time.RFC3339)
	return r.db.TransactionWithRetry(ctx, 0, 0, func(tx *sql.Tx) error {
		// UPDATE then INSERT keeps us off newer upsert syntax.
		result, err := tx.ExecContext(ctx, `
			UPDATE kv SET value = ?, updated_at = ?
			WHERE namespace = ? AND key = ?
		`, value, now, namespace, key)
		if err != nil {
			return fmt.Errorf("failed to update kv: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows > 0 {
			return nil
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO kv (namespace, key, value, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
		`, namespace, key, value, now, now)
		if err != nil {
			return fmt.Errorf("failed to insert kv: %w", err)
		}
		return nil
	})
}

// Get returns the entry for namespace/key or ErrKVNotFound.
func (r *KVRepository) Get(ctx context.Context, namespace, key string) (*KVEntry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT namespace, key, value, created_at, updated_at
		FROM kv
		WHERE namespace = ? AND key = ?
	`, strings.TrimSpace(namespace), strings.TrimSpace(key))
	return scanKV(row)
}

// List returns every entry in namespace ordered by key.
func (r *KVRepository) List(ctx context.Context, namespace string) ([]*KVEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT namespace, key, value, created_at, updated_at
		FROM kv
		WHERE namespace = ?
		ORDER BY key
	`, strings.TrimSpace(namespace))
	if err != nil {
		return nil, fmt.Errorf("failed to query kv: %w", err)
	}
	defer rows.Close()

	out := make([]*KVEntry, 0)
	for rows.Next() {
		entry, err := scanKV(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating kv: %w", err)
	}
	return out, nil
}

// Delete removes namespace/key, returning ErrKVNotFound if nothing was stored.
func (r *KVRepository) Delete(ctx context.Context, namespace, key string) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM kv WHERE namespace = ? AND key = ?
	`, strings.TrimSpace(namespace), strings.TrimSpace(key))
	if err != nil {
		return fmt.Errorf("failed to delete kv: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrKVNotFound
	}
	return nil
}

func scanKV(scanner interface{ Scan(...any) error }) (*KVEntry, error) {
	var (
		entry     KVEntry
		createdAt string
		updatedAt string
	)
	if err := scanner.Scan(&entry.Namespace, &entry.Key, &entry.Value, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrKVNotFound
		}
		return nil, fmt.Errorf("failed to scan kv: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		entry.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		entry.UpdatedAt = t
	}
	return &entry, nil
}
