package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Context remembers the conversation the user last worked with, so
// subcommands can omit the child id.
type Context struct {
	// ChildID is the selected conversation.
	ChildID string `yaml:"child,omitempty"`
	// ChildName is the display name at selection time.
	ChildName string `yaml:"child_name,omitempty"`
	// UpdatedAt is when the context was last modified.
	UpdatedAt time.Time `yaml:"updated_at,omitempty"`
}

// IsEmpty returns true if no conversation is selected.
func (c *Context) IsEmpty() bool {
	return c.ChildID == ""
}

// SetConversation selects a conversation.
func (c *Context) SetConversation(id, name string) {
	c.ChildID = id
	c.ChildName = name
	c.UpdatedAt = time.Now().UTC()
}

// Clear removes the selection.
func (c *Context) Clear() {
	c.ChildID = ""
	c.ChildName = ""
	c.UpdatedAt = time.Now().UTC()
}

func (c *Context) String() string {
	if c.IsEmpty() {
		return "(no conversation selected)"
	}
	if c.ChildName == "" {
		return "conversation:" + c.ChildID
	}
	return fmt.Sprintf("conversation:%s (%s)", c.ChildID, c.ChildName)
}

// ContextStore manages loading and saving context.
type ContextStore struct {
	path string
	mu   sync.RWMutex
}

// NewContextStore creates a context store at path.
func NewContextStore(path string) *ContextStore {
	return &ContextStore{path: path}
}

// Path returns the context file path.
func (s *ContextStore) Path() string {
	return s.path
}

// Load reads the context, returning an empty one if the file doesn't exist.
func (s *ContextStore) Load() (*Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := &Context{}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ctx, nil
		}
		return nil, fmt.Errorf("failed to read context file: %w", err)
	}
	if err := yaml.Unmarshal(data, ctx); err != nil {
		return nil, fmt.Errorf("failed to parse context file: %w", err)
	}
	return ctx, nil
}

// Save writes the context to disk.
func (s *ContextStore) Save(ctx *Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create context directory: %w", err)
	}
	data, err := yaml.Marshal(ctx)
	if err != nil {
		return fmt.Errorf("failed to serialize context: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write context file: %w", err)
	}
	return nil
}

// Clear removes the context file.
func (s *ContextStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove context file: %w", err)
	}
	return nil
}
