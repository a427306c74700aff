package conversation

import "sync"

// Hub hands out one Coordinator per conversation so switching away and back
// keeps the loaded list and any pending send.
type Hub struct {
	remote Remote
	opts   Options

	mu     sync.Mutex
	coords map[string]*Coordinator
}

// NewHub returns an empty Hub.
func NewHub(remote Remote, opts Options) *Hub {
	return &Hub{remote: remote, opts: opts, coords: make(map[string]*Coordinator)}
}

// Get returns the Coordinator for conversationID, creating it on first use.
func (h *Hub) Get(conversationID string) *Coordinator {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.coords[conversationID]; ok {
		return c
	}
	c := New(conversationID, h.remote, h.opts)
	h.coords[conversationID] = c
	return c
}

// Forget drops the Coordinator for conversationID.
func (h *Hub) Forget(conversationID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.coords, conversationID)
}
