package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/gyaneshwarpardhi/hookrelay/internal/notification"
)

var (
	randMu     sync.Mutex
	randSource = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// NonRetryableError wraps errors that must not be retried.
type NonRetryableError struct {
	Err error
}

func (e *NonRetryableError) Error() string { return e.Err.Error() }

func (e *NonRetryableError) Unwrap() error { return e.Err }

// NonRetryable marks err as terminal.
func NonRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &NonRetryableError{Err: err}
}

// IsRetryable reports whether a delivery error should be retried by the caller:
// server errors and transport failures are, client errors and cancellations
// are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var nre *NonRetryableError
	if errors.As(err, &nre) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

// RetryConfig controls the backoff between attempts.
type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// Retrying retries transient failures of Next with exponential backoff and
// up to 25% jitter.
type Retrying struct {
	Next Deliverer
	Conf RetryConfig
}

// NewRetrying wraps next.
func NewRetrying(next Deliverer, conf RetryConfig) *Retrying {
	if conf.MaxAttempts <= 0 {
		conf.MaxAttempts = 1
	}
	if conf.Multiplier <= 0 {
		conf.Multiplier = 2
	}
	if conf.MaxBackoff < conf.InitialBackoff {
		conf.MaxBackoff = conf.InitialBackoff
	}
	return &Retrying{Next: next, Conf: conf}
}

// Deliver calls Next until it succeeds, fails terminally, the context ends or
// the attempts are used up. The last error is returned unchanged in kind so
// IsRetryable still reports the right signal.
func (r *Retrying) Deliver(ctx context.Context, msg *notification.Message) error {
	delay := r.Conf.InitialBackoff
	var lastErr error
	for attempt := 1; attempt <= r.Conf.MaxAttempts; attempt++ {
		err := r.Next.Deliver(ctx, msg)
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsRetryable(err) || attempt == r.Conf.MaxAttempts {
			break
		}
		if ctx.Err() != nil {
			return fmt.Errorf("delivery cancelled before attempt %d: %w", attempt+1, lastErr)
		}

		sleep := delay
		if delay >= 4 {
			randMu.Lock()
			sleep += time.Duration(randSource.Int63n(int64(delay / 4)))
			randMu.Unlock()
		}
		slog.Debug("delivery failed, retrying", "notification", msg.Notification, "attempt", attempt, "backoff", sleep, "err", err)

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("delivery cancelled during backoff: %w", lastErr)
		case <-timer.C:
		}

		next := time.Duration(float64(delay) * r.Conf.Multiplier)
		if next > r.Conf.MaxBackoff || next < delay {
			next = r.Conf.MaxBackoff
		}
		delay = next
	}
	return lastErr
}
