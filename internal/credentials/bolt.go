package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

var authBucket = []byte(tokenNamespace)

// BoltStore keeps the token in a bbolt file.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBolt opens (creating if needed) the bbolt file at path.
func OpenBolt(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	database, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt store: %w", err)
	}
	err = database.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(authBucket)
		return err
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to init bolt store: %w", err)
	}
	return &BoltStore{db: database}, nil
}

func (s *BoltStore) Token(context.Context) (string, error) {
	var token string
	err := s.db.View(func(tx *bbolt.Tx) error {
		token = string(tx.Bucket(authBucket).Get([]byte(tokenKey)))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

func (s *BoltStore) SetToken(_ context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is required")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(authBucket).Put([]byte(tokenKey), []byte(token))
	})
}

// Clear empties the auth bucket.
func (s *BoltStore) Clear(context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(authBucket); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(authBucket)
		return err
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
