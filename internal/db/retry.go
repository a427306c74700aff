package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/tOgg1/thinkchat/internal/logging"
)

const (
	defaultRetryAttempts = 3
	defaultRetryBackoff  = 50 * time.Millisecond
)

// TransactionWithRetry runs fn in a transaction, retrying with exponential
// backoff while SQLite reports the database as busy or locked. Non-positive
// arguments select the defaults.
func (db *DB) TransactionWithRetry(ctx context.Context, maxAttempts int, baseBackoff time.Duration, fn func(*sql.Tx) error) error {
	if maxAttempts <= 0 {
		maxAttempts = defaultRetryAttempts
	}
	if baseBackoff <= 0 {
		baseBackoff = defaultRetryBackoff
	}
	return withRetry(ctx, maxAttempts, baseBackoff, func() error {
		return db.Transaction(ctx, fn)
	})
}

func withRetry(ctx context.Context, maxAttempts int, backoff time.Duration, fn func() error) error {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn()
		if err == nil || !isBusyError(err) || attempt >= maxAttempts {
			return err
		}
		logger := logging.Component("db")
		logger.Debug().
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Err(err).
			Msg("database busy, retrying")
		if err := sleepWithContext(ctx, backoff); err != nil {
			return err
		}
		backoff *= 2
	}
}

func isBusyError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "database is locked") ||
		strings.Contains(message, "database is busy") ||
		strings.Contains(message, "sqlite_busy")
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
