package sqldriver

import (
	"context"
	"log/slog"
	"time"
)

// MetricsCollector records execution timing for every statement run through
// a Conn. The worker wires one instance in at startup.
type MetricsCollector interface {
	RecordExecDirect(ctx context.Context, sql string, duration time.Duration, err error)
}

// NoOpMetrics discards everything. It's the default so a caller that
// doesn't care about metrics doesn't have to construct one.
type NoOpMetrics struct{}

func (NoOpMetrics) RecordExecDirect(context.Context, string, time.Duration, error) {}

// LoggingMetrics records query metrics through slog, logging slow
// statements at warn level and everything else at debug.
type LoggingMetrics struct {
	Logger      *slog.Logger
	SlowQuery   time.Duration
}

func NewLoggingMetrics(logger *slog.Logger) *LoggingMetrics {
	return &LoggingMetrics{Logger: logger, SlowQuery: time.Second}
}

func (m *LoggingMetrics) RecordExecDirect(ctx context.Context, sql string, duration time.Duration, err error) {
	attrs := []any{slog.Duration("duration", duration), slog.String("sql", truncateForLog(sql))}
	if err != nil {
		m.Logger.ErrorContext(ctx, "query failed", append(attrs, slog.Any("error", err))...)
		return
	}
	if duration > m.SlowQuery {
		m.Logger.WarnContext(ctx, "slow query", attrs...)
		return
	}
	m.Logger.DebugContext(ctx, "query completed", attrs...)
}

func truncateForLog(sql string) string {
	const max = 200
	if len(sql) <= max {
		return sql
	}
	return sql[:max] + "..."
}

// instrumentedConn wraps a Conn so every ExecDirect call is timed and
// handed to a MetricsCollector, without the postgres/mysql backends having
// to know metrics exist.
type instrumentedConn struct {
	Conn
	metrics MetricsCollector
}

func withMetrics(c Conn, m MetricsCollector) Conn {
	if m == nil {
		m = NoOpMetrics{}
	}
	return &instrumentedConn{Conn: c, metrics: m}
}

func (c *instrumentedConn) ExecDirect(ctx context.Context, sql string) (Cursor, *int64, error) {
	start := time.Now()
	cursor, affected, err := c.Conn.ExecDirect(ctx, sql)
	c.metrics.RecordExecDirect(ctx, sql, time.Since(start), err)
	return cursor, affected, err
}
