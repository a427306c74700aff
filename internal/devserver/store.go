// Package devserver is an in-memory implementation of the parent messaging
// API for local development and tests.
package devserver

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Errors returned by Store lookups.
var (
	ErrUnknownToken = errors.New("unknown token")
	ErrUnknownChild = errors.New("unknown child")
	ErrBadLogin     = errors.New("invalid email or password")
)

// Sender names used on the wire.
const (
	FromParent  = "Parent"
	FromStudent = "Student"
)

// Child is a conversation counterparty.
type Child struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Message is a stored message. Created is kept in UTC.
type Message struct {
	ID      int64
	Text    string
	From    string
	Created time.Time
}

type account struct {
	email    string
	hash     []byte
	children []string
}

// Store holds accounts, sessions, and conversations.
type Store struct {
	mu        sync.Mutex
	accounts  map[string]*account
	tokens    map[string]string
	children  map[string]Child
	messages  map[string][]Message
	nextID    int64
	failPosts int
	now       func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[string]*account),
		tokens:   make(map[string]string),
		children: make(map[string]Child),
		messages: make(map[string][]Message),
		nextID:   1,
		now:      time.Now,
	}
}

// SetClock replaces the time source used for new messages.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// AddAccount registers a parent with access to the given children.
func (s *Store) AddAccount(email, password string, childIDs ...string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return errors.New("email and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[email] = &account{email: email, hash: hash, children: append([]string(nil), childIDs...)}
	return nil
}

// AddChild registers a child conversation.
func (s *Store) AddChild(child Child) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.children[child.ID] = child
}

// AddMessage appends a message to a child's conversation and returns its id.
func (s *Store) AddMessage(childID, from, text string, created time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.children[childID]; !ok {
		return 0, ErrUnknownChild
	}
	return s.appendLocked(childID, from, text, created), nil
}

// FailNextPosts makes the next n message posts fail with a server error.
func (s *Store) FailNextPosts(n int) {
	s.mu.Lock()
	s.failPosts = n
	s.mu.Unlock()
}

// Login checks credentials and issues a new token.
func (s *Store) Login(email, password string) (string, error) {
	s.mu.Lock()
	acct, ok := s.accounts[normalizeEmail(email)]
	s.mu.Unlock()
	if !ok {
		return "", ErrBadLogin
	}
	if err := bcrypt.CompareHashAndPassword(acct.hash, []byte(password)); err != nil {
		return "", ErrBadLogin
	}
	return s.IssueToken(acct.email)
}

// IssueToken returns a token for email without a password check.
func (s *Store) IssueToken(email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[normalizeEmail(email)]
	if !ok {
		return "", ErrBadLogin
	}
	token := uuid.NewString()
	s.tokens[token] = acct.email
	return token, nil
}

// Children lists the children visible to the token holder, sorted by id.
func (s *Store) Children(token string) ([]Child, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, err := s.accountLocked(token)
	if err != nil {
		return nil, err
	}
	out := make([]Child, 0, len(acct.children))
	for _, id := range acct.children {
		if child, ok := s.children[id]; ok {
			out = append(out, child)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Messages returns a copy of a conversation's messages in insertion order.
func (s *Store) Messages(token, childID string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.authorizeLocked(token, childID); err != nil {
		return nil, err
	}
	return append([]Message(nil), s.messages[childID]...), nil
}

// Post stores a parent message. It fails while failures scheduled with
// FailNextPosts remain.
func (s *Store) Post(token, childID, text string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.authorizeLocked(token, childID); err != nil {
		return 0, err
	}
	if s.failPosts > 0 {
		s.failPosts--
		return 0, errFailInjected
	}
	return s.appendLocked(childID, FromParent, text, s.now()), nil
}

var errFailInjected = errors.New("injected failure")

func (s *Store) appendLocked(childID, from, text string, created time.Time) int64 {
	id := s.nextID
	s.nextID++
	s.messages[childID] = append(s.messages[childID], Message{
		ID:      id,
		Text:    text,
		From:    from,
		Created: created.UTC(),
	})
	return id
}

func (s *Store) accountLocked(token string) (*account, error) {
	email, ok := s.tokens[token]
	if !ok {
		return nil, ErrUnknownToken
	}
	acct, ok := s.accounts[email]
	if !ok {
		return nil, ErrUnknownToken
	}
	return acct, nil
}

func (s *Store) authorizeLocked(token, childID string) error {
	acct, err := s.accountLocked(token)
	if err != nil {
		return err
	}
	for _, id := range acct.children {
		if id == childID {
			if _, ok := s.children[childID]; ok {
				return nil
			}
		}
	}
	return ErrUnknownChild
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
