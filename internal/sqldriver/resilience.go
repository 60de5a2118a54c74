package sqldriver

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/karu-codes/tilesql/errors"
)

// circuitState tracks whether the connect-phase circuit breaker is letting
// dial attempts through.
type circuitState int

const (
	circuitClosed circuitState = iota
	circuitOpen
	circuitHalfOpen
)

// circuitBreaker guards repeated dial attempts against a warehouse that's
// down: once maxFailures consecutive dial attempts fail it stops trying for
// resetTimeout, then allows one probe attempt through. Statement execution
// never goes through this — only Connect does.
type circuitBreaker struct {
	maxFailures  int
	resetTimeout time.Duration
	failures     int
	lastFail     time.Time
	state        circuitState
}

func newCircuitBreaker(maxFailures int, resetTimeout time.Duration) *circuitBreaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}
	return &circuitBreaker{maxFailures: maxFailures, resetTimeout: resetTimeout}
}

func (cb *circuitBreaker) execute(op func() error) error {
	if cb.state == circuitOpen {
		if time.Since(cb.lastFail) > cb.resetTimeout {
			cb.state = circuitHalfOpen
			cb.failures = 0
		} else {
			return errors.New(errors.CodeUnavailable, "circuit breaker open: dial suppressed after repeated failures")
		}
	}

	err := op()
	if err != nil {
		cb.failures++
		cb.lastFail = time.Now()
		if cb.failures >= cb.maxFailures {
			cb.state = circuitOpen
		}
		return err
	}

	if cb.state == circuitHalfOpen {
		cb.state = circuitClosed
		cb.failures = 0
	}
	return nil
}

// dialWithRetry runs dial, a Connect attempt, with exponential-backoff-with-
// jitter retry and a circuit breaker wrapped around the whole sequence. It
// is used only at Init, never around a running query.
func dialWithRetry(ctx context.Context, cfg Config, cb *circuitBreaker, dial func() error) error {
	maxAttempts := cfg.MaxRetries
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := cb.execute(dial)
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}
		if attempt == maxAttempts-1 {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := backoffDelay(backoff, attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}

func backoffDelay(initial time.Duration, attempt int) time.Duration {
	exp := time.Duration(float64(initial) * math.Pow(2, float64(attempt)))
	jitter := time.Duration(0)
	if exp > 0 {
		jitter = time.Duration(rand.Int63n(int64(exp)))
	}
	delay := exp + jitter
	const max = 30 * time.Second
	if delay > max {
		delay = max
	}
	return delay
}
