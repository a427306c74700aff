// Package conversation owns the message list of an open conversation and
// applies sends optimistically, rolling them back when the server rejects
// them.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tOgg1/thinkchat/internal/logging"
	"github.com/tOgg1/thinkchat/internal/models"
	"github.com/tOgg1/thinkchat/internal/timeline"
)

// Coordinator errors.
var (
	ErrSendInFlight  = errors.New("a message is already being sent")
	ErrNoPendingSend = errors.New("send is no longer pending")
	ErrStaleFetch    = errors.New("fetch superseded by a newer change")
)

// State is the send lifecycle of a conversation.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateConfirmed
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateConfirmed:
		return "confirmed"
	case StateRolledBack:
		return "rolled_back"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Remote is the server side of a conversation.
type Remote interface {
	ListMessages(ctx context.Context, childID string) ([]models.Message, error)
	PostMessage(ctx context.Context, childID, text string) (int64, error)
}

// PendingSend is a submitted message awaiting the server.
type PendingSend struct {
	Message     models.Message
	SubmittedAt time.Time

	previous []models.Message
}

// Snapshot is a point-in-time copy of a conversation.
type Snapshot struct {
	ConversationID string
	Messages       []models.Message
	State          State
	Pending        *PendingSend
	// SendErr is why the last send was rolled back. Cleared by Submit.
	SendErr error
	// FetchErr is the last fetch failure. Cleared by a successful fetch.
	FetchErr error
	Version uint64
}

// Sending reports whether a send is awaiting the server.
func (s Snapshot) Sending() bool { return s.Pending != nil }

// Options tune a Coordinator.
type Options struct {
	// Now is the clock for provisional messages. Defaults to time.Now.
	Now func() time.Time

	// GroupWindow is passed to the timeline builder.
	GroupWindow time.Duration
}

// Coordinator serializes all changes to one conversation's message list.
// It is safe for concurrent use.
type Coordinator struct {
	id          string
	remote      Remote
	now         func() time.Time
	groupWindow time.Duration
	logger      zerolog.Logger

	mu          sync.Mutex
	messages    []models.Message
	state       State
	pending     *PendingSend
	sendErr     error
	fetchErr    error
	version     uint64
	provisional int64
	fetchGen    uint64
	fetchCancel context.CancelFunc
	subs        map[int]chan Snapshot
	nextSub     int
}

// New returns a Coordinator for conversationID with an empty list.
func New(conversationID string, remote Remote, opts Options) *Coordinator {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	window := opts.GroupWindow
	if window <= 0 {
		window = timeline.DefaultGroupWindow
	}
	return &Coordinator{
		id:          conversationID,
		remote:      remote,
		now:         now,
		groupWindow: window,
		logger:      logging.WithConversation(logging.Component("conversation"), conversationID),
		subs:        make(map[int]chan Snapshot),
	}
}

// ID returns the conversation id.
func (c *Coordinator) ID() string { return c.id }

// Snapshot returns a copy of the current state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Timeline annotates the current list for display.
func (c *Coordinator) Timeline() []timeline.Entry {
	return c.Annotate(c.Snapshot())
}

// Annotate annotates a snapshot with this coordinator's group window.
func (c *Coordinator) Annotate(s Snapshot) []timeline.Entry {
	return timeline.AnnotateWithin(s.Messages, c.groupWindow)
}

// Submit validates text and appends a provisional message. Observers see the
// new list before Submit returns. The caller must pass the result to Dispatch.
func (c *Coordinator) Submit(text string) (*PendingSend, error) {
	if err := models.ValidateMessageText(text); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != nil {
		return nil, ErrSendInFlight
	}
	c.cancelFetchLocked()

	now := c.now().UTC()
	c.provisional--
	msg := models.Message{
		ID:        c.provisional,
		ClientRef: uuid.NewString(),
		Text:      text,
		Sender:    models.SenderSelf,
		CreatedAt: now,
	}
	// Keep the list non-decreasing when the local clock is behind the server.
	if n := len(c.messages); n > 0 && msg.CreatedAt.Before(c.messages[n-1].CreatedAt) {
		msg.CreatedAt = c.messages[n-1].CreatedAt
	}

	previous := models.CloneMessages(c.messages)
	pending := &PendingSend{Message: msg, SubmittedAt: now, previous: previous}
	next := make([]models.Message, 0, len(previous)+1)
	next = append(next, previous...)
	c.messages = append(next, msg)
	c.pending = pending
	c.state = StateSubmitting
	c.sendErr = nil
	c.publishLocked()

	c.logger.Debug().Int64("provisional_id", msg.ID).Str("client_ref", msg.ClientRef).Msg("message submitted")
	return pending.clone(), nil
}

// Dispatch sends a submitted message. On success the provisional entry takes
// the server id; on failure the list is restored to what it was before
// Submit. Either way the list is then reconciled with the server. The
// returned error is the send error, never a reconcile error.
func (c *Coordinator) Dispatch(ctx context.Context, p *PendingSend) (models.Message, error) {
	if p == nil {
		return models.Message{}, ErrNoPendingSend
	}
	c.mu.Lock()
	if c.pending == nil || c.pending.Message.ClientRef != p.Message.ClientRef {
		c.mu.Unlock()
		return models.Message{}, ErrNoPendingSend
	}
	text := c.pending.Message.Text
	c.mu.Unlock()

	id, err := c.remote.PostMessage(ctx, c.id, text)

	c.mu.Lock()
	var confirmed models.Message
	if err != nil {
		c.messages = c.pending.previous
		c.state = StateRolledBack
		c.sendErr = err
		c.logger.Warn().Err(err).Str("client_ref", p.Message.ClientRef).Msg("send failed, rolled back")
	} else {
		confirmed = c.confirmLocked(p.Message.ClientRef, id)
		c.state = StateConfirmed
		c.logger.Debug().Int64("id", id).Str("client_ref", p.Message.ClientRef).Msg("send confirmed")
	}
	c.pending = nil
	c.publishLocked()
	c.mu.Unlock()

	if rerr := c.Reconcile(ctx); rerr != nil && !errors.Is(rerr, ErrStaleFetch) {
		c.logger.Warn().Err(rerr).Msg("reconcile after send failed")
	}

	c.mu.Lock()
	if c.pending == nil && (c.state == StateConfirmed || c.state == StateRolledBack) {
		c.state = StateIdle
		c.publishLocked()
	}
	c.mu.Unlock()

	if err != nil {
		return models.Message{}, err
	}
	return confirmed, nil
}

// Send runs Submit and Dispatch.
func (c *Coordinator) Send(ctx context.Context, text string) (models.Message, error) {
	p, err := c.Submit(text)
	if err != nil {
		return models.Message{}, err
	}
	return c.Dispatch(ctx, p)
}

// Reconcile replaces the list with the server's. A fetch overtaken by a
// Submit or a later Reconcile returns ErrStaleFetch and changes nothing.
// While a send is pending the provisional message is kept, merged in
// chronological position, and the fetched list becomes its rollback target,
// so a send that fails afterwards rolls back to this newer list rather than
// the one from before Submit.
func (c *Coordinator) Reconcile(ctx context.Context) error {
	c.mu.Lock()
	c.cancelFetchLocked()
	gen := c.fetchGen
	fetchCtx, cancel := context.WithCancel(ctx)
	c.fetchCancel = cancel
	c.mu.Unlock()

	msgs, err := c.remote.ListMessages(fetchCtx, c.id)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.fetchGen {
		c.logger.Debug().Msg("discarding stale fetch")
		return ErrStaleFetch
	}
	c.fetchCancel = nil

	if err != nil {
		c.fetchErr = err
		c.publishLocked()
		return err
	}

	msgs = models.CloneMessages(msgs)
	if !models.IsChronological(msgs) {
		sort.SliceStable(msgs, func(i, j int) bool {
			return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
		})
	}

	if c.pending != nil {
		c.pending.previous = msgs
		c.messages = insertChronological(msgs, c.pending.Message)
	} else {
		c.messages = msgs
	}
	c.fetchErr = nil
	c.publishLocked()
	return nil
}

// Subscribe returns a channel that receives the current snapshot and then
// every change. Slow readers only see the newest snapshot. Call cancel to
// stop and close the channel.
func (c *Coordinator) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.snapshotLocked()
	c.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			close(ch)
			c.mu.Unlock()
		})
	}
	return ch, cancel
}

// confirmLocked gives the provisional entry its server id. When a fetch that
// ran during the send already brought in the server's copy, the provisional
// entry is dropped instead so the id appears once.
func (c *Coordinator) confirmLocked(clientRef string, id int64) models.Message {
	provisional, existing := -1, -1
	for i := range c.messages {
		switch {
		case c.messages[i].ClientRef == clientRef:
			provisional = i
		case c.messages[i].ID == id:
			existing = i
		}
	}
	switch {
	case provisional < 0:
		return models.Message{}
	case existing >= 0:
		confirmed := c.messages[existing]
		c.messages = append(c.messages[:provisional:provisional], c.messages[provisional+1:]...)
		return confirmed
	default:
		c.messages[provisional].ID = id
		return c.messages[provisional]
	}
}

func (c *Coordinator) cancelFetchLocked() {
	if c.fetchCancel != nil {
		c.fetchCancel()
		c.fetchCancel = nil
	}
	c.fetchGen++
}

func (c *Coordinator) snapshotLocked() Snapshot {
	return Snapshot{
		ConversationID: c.id,
		Messages:       models.CloneMessages(c.messages),
		State:          c.state,
		Pending:        c.pending.clone(),
		SendErr:        c.sendErr,
		FetchErr:       c.fetchErr,
		Version:        c.version,
	}
}

func (c *Coordinator) publishLocked() {
	c.version++
	snap := c.snapshotLocked()
	for _, ch := range c.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (p *PendingSend) clone() *PendingSend {
	if p == nil {
		return nil
	}
	return &PendingSend{Message: p.Message, SubmittedAt: p.SubmittedAt}
}

func insertChronological(msgs []models.Message, msg models.Message) []models.Message {
	idx := sort.Search(len(msgs), func(i int) bool {
		return msgs[i].CreatedAt.After(msg.CreatedAt)
	})
	out := make([]models.Message, 0, len(msgs)+1)
	out = append(out, msgs[:idx]...)
	out = append(out, msg)
	return append(out, msgs[idx:]...)
}
