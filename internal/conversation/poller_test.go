package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/thinkchat/internal/models"
)

func TestPollerPicksUpNewMessages(t *testing.T) {
	remote := seededRemote()
	c := loaded(t, remote)
	poller := NewPoller(PollerConfig{Interval: 10 * time.Millisecond}, c)

	require.NoError(t, poller.Start(context.Background()))
	require.ErrorIs(t, poller.Start(context.Background()), ErrPollerAlreadyRunning)
	require.True(t, poller.IsRunning())

	remote.add(serverMsg(3, models.SenderCounterparty, "ping", 3*time.Minute))
	require.Eventually(t, func() bool {
		return len(c.Snapshot().Messages) == 3
	}, 2*time.Second, 10*time.Millisecond)
	require.False(t, poller.LastRun().IsZero())

	require.NoError(t, poller.Stop())
	require.ErrorIs(t, poller.Stop(), ErrPollerNotRunning)
	require.False(t, poller.IsRunning())
}

func TestPollerReportsErrors(t *testing.T) {
	remote := seededRemote()
	c := loaded(t, remote)
	remote.mu.Lock()
	remote.listErr = errServer
	remote.mu.Unlock()

	errs := make(chan error, 16)
	poller := NewPoller(PollerConfig{
		Interval: 10 * time.Millisecond,
		OnError: func(err error) {
			select {
			case errs <- err:
			default:
			}
		},
	}, c)
	require.NoError(t, poller.Start(context.Background()))
	defer poller.Stop()

	select {
	case err := <-errs:
		require.ErrorIs(t, err, errServer)
	case <-time.After(2 * time.Second):
		t.Fatal("no error reported")
	}
}

func TestHubReusesCoordinators(t *testing.T) {
	hub := NewHub(seededRemote(), Options{})
	a := hub.Get("1")
	require.Same(t, a, hub.Get("1"))
	require.NotSame(t, a, hub.Get("2"))
	require.Equal(t, "2", hub.Get("2").ID())

	hub.Forget("1")
	require.NotSame(t, a, hub.Get("1"))
}
