package sqldriver

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCircuitBreakerOpensAfterMaxFailures(t *testing.T) {
	cb := newCircuitBreaker(2, time.Hour)
	failing := func() error { return errors.New("dial failed") }

	if err := cb.execute(failing); err == nil {
		t.Fatal("expected first failure to propagate")
	}
	if cb.state != circuitClosed {
		t.Fatalf("expected still closed after 1 failure, got %v", cb.state)
	}
	if err := cb.execute(failing); err == nil {
		t.Fatal("expected second failure to propagate")
	}
	if cb.state != circuitOpen {
		t.Fatalf("expected open after 2 failures, got %v", cb.state)
	}

	err := cb.execute(func() error { return nil })
	if err == nil {
		t.Fatal("expected circuit-open error, dial should not even run")
	}
}

func TestCircuitBreakerHalfOpenRecovers(t *testing.T) {
	cb := newCircuitBreaker(1, 10*time.Millisecond)
	_ = cb.execute(func() error { return errors.New("fail") })
	if cb.state != circuitOpen {
		t.Fatal("expected open after 1 failure with maxFailures=1")
	}

	time.Sleep(15 * time.Millisecond)
	if err := cb.execute(func() error { return nil }); err != nil {
		t.Fatalf("expected half-open probe to run and succeed, got %v", err)
	}
	if cb.state != circuitClosed {
		t.Fatalf("expected closed after successful probe, got %v", cb.state)
	}
}

func TestDialWithRetryStopsOnNonRetryableError(t *testing.T) {
	cfg := Config{MaxRetries: 5, RetryBackoff: time.Millisecond}
	cb := newCircuitBreaker(10, time.Hour)
	attempts := 0

	err := dialWithRetry(context.Background(), cfg, cb, func() error {
		attempts++
		return classify(errors.New("invalid dsn")) // CodeDriver: not in the retryable class
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("expected exactly one attempt for a non-retryable error, got %d", attempts)
	}
}

func TestDialWithRetryRespectsContextCancellation(t *testing.T) {
	cfg := Config{MaxRetries: 10, RetryBackoff: 50 * time.Millisecond}
	cb := newCircuitBreaker(10, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := dialWithRetry(ctx, cfg, cb, func() error {
		attempts++
		return errors.New("dial failed")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts > 1 {
		t.Fatalf("expected at most one attempt after cancelled context, got %d", attempts)
	}
}

func TestBackoffDelayCapsAtMax(t *testing.T) {
	d := backoffDelay(time.Second, 10)
	if d > 30*time.Second {
		t.Fatalf("expected delay capped at 30s, got %v", d)
	}
}
