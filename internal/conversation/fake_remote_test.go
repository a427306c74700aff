package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tOgg1/thinkchat/internal/models"
)

var errServer = errors.New("server returned 500")

// fakeRemote is an in-memory Remote with hooks to block or fail calls.
type fakeRemote struct {
	mu        sync.Mutex
	messages  []models.Message
	nextID    int64
	now       time.Time
	postErr   error
	listErr   error
	listCalls int
	postCalls int

	// listGate, when set, blocks ListMessages until it is closed or the
	// context ends. listEntered is signalled on entry.
	listGate    chan struct{}
	listEntered chan struct{}
	postGate    chan struct{}
}

func newFakeRemote(msgs ...models.Message) *fakeRemote {
	var maxID int64
	for _, m := range msgs {
		if m.ID > maxID {
			maxID = m.ID
		}
	}
	return &fakeRemote{
		messages: models.CloneMessages(msgs),
		nextID:   maxID + 1,
		now:      base.Add(10 * time.Minute),
	}
}

func (f *fakeRemote) ListMessages(ctx context.Context, _ string) ([]models.Message, error) {
	f.mu.Lock()
	f.listCalls++
	gate, entered := f.listGate, f.listEntered
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return models.CloneMessages(f.messages), nil
}

func (f *fakeRemote) PostMessage(ctx context.Context, _ string, text string) (int64, error) {
	f.mu.Lock()
	f.postCalls++
	gate := f.postGate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postErr != nil {
		return 0, f.postErr
	}
	id := f.nextID
	f.nextID++
	f.messages = append(f.messages, models.Message{
		ID:        id,
		Text:      text,
		Sender:    models.SenderSelf,
		CreatedAt: f.now,
	})
	return id, nil
}

func (f *fakeRemote) add(msg models.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	if msg.ID >= f.nextID {
		f.nextID = msg.ID + 1
	}
}

func (f *fakeRemote) calls() (list, post int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.postCalls
}

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func serverMsg(id int64, sender models.Sender, text string, offset time.Duration) models.Message {
	return models.Message{ID: id, Text: text, Sender: sender, CreatedAt: base.Add(offset)}
}
