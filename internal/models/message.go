// Package models defines the data types shared by the thinkchat client.
package models

import (
	"strings"
	"time"
)

// Sender identifies which side of a conversation wrote a message.
type Sender string

const (
	// SenderSelf is the signed-in parent.
	SenderSelf Sender = "Parent"
	// SenderCounterparty is the student or child on the other side.
	SenderCounterparty Sender = "Student"
)

// Valid reports whether s is a known sender.
func (s Sender) Valid() bool {
	return s == SenderSelf || s == SenderCounterparty
}

// Message is a single entry in a conversation thread.
type Message struct {
	// ID is the server-issued identifier. Provisional messages that the
	// server has not confirmed yet carry a negative ID.
	ID int64 `json:"id"`

	// ClientRef tags a locally created message so views can key it
	// before and after confirmation. Empty for messages fetched from the server.
	ClientRef string `json:"client_ref,omitempty"`

	// Text is the message body.
	Text string `json:"text"`

	// Sender is who wrote the message.
	Sender Sender `json:"sender"`

	// CreatedAt is always UTC.
	CreatedAt time.Time `json:"created_at"`
}

// IsProvisional reports whether the message is still awaiting server confirmation.
func (m Message) IsProvisional() bool {
	return m.ID < 0
}

// FromSelf reports whether the signed-in parent wrote the message.
func (m Message) FromSelf() bool {
	return m.Sender == SenderSelf
}

// Validate checks the message for required fields.
func (m Message) Validate() error {
	validation := &ValidationErrors{}
	validation.Add("", ValidateMessageText(m.Text))
	if !m.Sender.Valid() {
		validation.Add("sender", ErrInvalidSender)
	}
	if m.CreatedAt.IsZero() {
		validation.AddMessage("created_at", "timestamp is required")
	}
	return validation.Err()
}

// ValidateMessageText rejects bodies that are empty after trimming.
func ValidateMessageText(text string) error {
	validation := &ValidationErrors{}
	if strings.TrimSpace(text) == "" {
		validation.Add("text", ErrEmptyMessage)
	}
	return validation.Err()
}

// IsChronological reports whether msgs is ordered by non-decreasing CreatedAt.
func IsChronological(msgs []Message) bool {
	for i := 1; i < len(msgs); i++ {
		if msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt) {
			return false
		}
	}
	return true
}

// CloneMessages returns a copy of msgs that shares no backing array.
func CloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
