package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tOgg1/thinkchat/internal/db"
)

// SQLiteStore keeps the token in the local SQLite key/value table.
type SQLiteStore struct {
	database *db.DB
	repo     *db.KVRepository
}

// OpenSQLite opens (and migrates) the database at path.
func OpenSQLite(ctx context.Context, path string, opts db.Options) (*SQLiteStore, error) {
	database, err := db.Open(path, opts)
	if err != nil {
		return nil, err
	}
	if _, err := database.MigrateUp(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to migrate credential store: %w", err)
	}
	return NewSQLiteStore(database), nil
}

// NewSQLiteStore wraps an already migrated database.
func NewSQLiteStore(database *db.DB) *SQLiteStore {
	return &SQLiteStore{database: database, repo: db.NewKVRepository(database)}
}

func (s *SQLiteStore) Token(ctx context.Context) (string, error) {
	entry, err := s.repo.Get(ctx, tokenNamespace, tokenKey)
	if errors.Is(err, db.ErrKVNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return entry.Value, nil
}

func (s *SQLiteStore) SetToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is required")
	}
	if err := s.repo.Set(ctx, tokenNamespace, tokenKey, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

// Clear removes every entry in the auth namespace, not only the token.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	entries, err := s.repo.List(ctx, tokenNamespace)
	if err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	for _, entry := range entries {
		err := s.repo.Delete(ctx, entry.Namespace, entry.Key)
		if err != nil && !errors.Is(err, db.ErrKVNotFound) {
			return fmt.Errorf("clear %s: %w", entry.Key, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.database.Close()
}
