package sqldriver

import (
	"context"
	"time"
)

// Status is the outcome of a connectivity probe against a Conn.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// HealthCheck is the result of one probe: Timestamp is when the Ping
// started and Duration is how long the Ping alone took.
type HealthCheck struct {
	Status    Status
	Message   string
	Timestamp time.Time
	Duration  time.Duration
}

// Probe pings c once and classifies the outcome. The worker calls this
// exactly once right after Connect succeeds, before it transitions out of
// its init state and emits Connected.
func Probe(ctx context.Context, c Conn) HealthCheck {
	start := time.Now()
	err := c.Ping(ctx)
	check := HealthCheck{Timestamp: start, Duration: time.Since(start)}

	switch {
	case err == nil:
		check.Status = StatusHealthy
	case isRetryable(err):
		check.Status = StatusDegraded
		check.Message = err.Error()
	default:
		check.Status = StatusUnhealthy
		check.Message = err.Error()
	}
	return check
}
