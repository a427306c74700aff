package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tOgg1/thinkchat/internal/logging"
)

// Poller errors.
var (
	ErrPollerAlreadyRunning = errors.New("poller already running")
	ErrPollerNotRunning     = errors.New("poller not running")
)

// DefaultPollInterval is used when PollerConfig.Interval is unset.
const DefaultPollInterval = 5 * time.Second

// PollerConfig contains configuration for the refresh poller.
type PollerConfig struct {
	// Interval is how often the conversation is reconciled.
	Interval time.Duration

	// OnError is called for fetch failures other than stale or cancelled
	// fetches. Optional.
	OnError func(error)
}

// Poller reconciles a Coordinator on a fixed interval so messages from
// the other side show up without user action.
type Poller struct {
	config PollerConfig
	coord  *Coordinator
	logger zerolog.Logger

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastRun time.Time
}

// NewPoller creates a Poller for coord.
func NewPoller(config PollerConfig, coord *Coordinator) *Poller {
	if config.Interval <= 0 {
		config.Interval = DefaultPollInterval
	}
	return &Poller{
		config: config,
		coord:  coord,
		logger: logging.WithConversation(logging.Component("poller"), coord.ID()),
	}
}

// Start begins polling. The first reconcile happens after one interval.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrPollerAlreadyRunning
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.running = true
	p.logger.Debug().Dur("interval", p.config.Interval).Msg("poller starting")

	p.wg.Add(1)
	go p.runLoop(p.ctx)
	return nil
}

// Stop halts polling and waits for an in-flight reconcile to return.
func (p *Poller) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return ErrPollerNotRunning
	}
	p.cancel()
	p.running = false
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Debug().Msg("poller stopped")
	return nil
}

// IsRunning returns true if the poller is running.
func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// LastRun returns when the last reconcile finished.
func (p *Poller) LastRun() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastRun
}

func (p *Poller) runLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	err := p.coord.Reconcile(ctx)

	p.mu.Lock()
	p.lastRun = time.Now()
	p.mu.Unlock()

	switch {
	case err == nil, errors.Is(err, ErrStaleFetch), errors.Is(err, context.Canceled):
		return
	}
	p.logger.Warn().Err(err).Msg("refresh failed")
	if p.config.OnError != nil {
		p.config.OnError(err)
	}
}
