// Package credentials stores the bearer token that authenticates the parent
// against the messaging API.
package credentials

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrNoToken is returned when no bearer token is stored.
var ErrNoToken = errors.New("no bearer token stored")

const (
	tokenNamespace = "auth"
	tokenKey       = "bearer-token"
)

// Provider supplies the bearer token for authenticated requests.
type Provider interface {
	// Token returns the stored token or ErrNoToken.
	Token(ctx context.Context) (string, error)
}

// Store is a Provider that can also be written, used by login and logout.
type Store interface {
	Provider
	SetToken(ctx context.Context, token string) error
	Clear(ctx context.Context) error
	Close() error
}

// Memory keeps the token in process memory.
type Memory struct {
	mu    sync.RWMutex
	token string
}

// NewMemory returns a Memory store holding token, which may be empty.
func NewMemory(token string) *Memory {
	return &Memory{token: strings.TrimSpace(token)}
}

func (m *Memory) Token(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == "" {
		return "", ErrNoToken
	}
	return m.token, nil
}

func (m *Memory) SetToken(_ context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is required")
	}
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }

// Override returns a Provider that answers with token when it is non-empty
// and defers to next otherwise.
func Override(token string, next Provider) Provider {
	token = strings.TrimSpace(token)
	if token == "" {
		return next
	}
	return NewMemory(token)
}
