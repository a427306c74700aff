package models

import "strings"

// Conversation is a thread between the parent and one child.
type Conversation struct {
	// ID identifies the child; it is also the conversation key in the API.
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// DisplayName returns the label shown in lists and headers.
func (c Conversation) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
	if name == "" {
		return c.ID
	}
	return name
}

// Initial returns the first letter of the display name, upper-cased.
func (c Conversation) Initial() string {
	name := c.DisplayName()
	for _, r := range name {
		return strings.ToUpper(string(r))
	}
	return "?"
}
