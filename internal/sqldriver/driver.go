// Package sqldriver models the warehouse connection as a small ODBC-like
// surface: open connection, exec_direct, fetch rows, column descriptors,
// and cancel-statement callable from any goroutine.
package sqldriver

import (
	"context"
	"time"
)

// Driver selects which backend Connect dials.
type Driver string

const (
	Postgres Driver = "postgres"
	MySQL    Driver = "mysql"
)

// Config is the connection configuration the core treats as an opaque
// input sourced from the app config file.
type Config struct {
	Driver  Driver
	DSN     string
	AppName string

	ConnectTimeout time.Duration

	// Connect-phase resilience only; never applied to statement execution —
	// a running query either finishes, errors, or is cancelled, it is never
	// silently retried underneath the caller.
	MaxRetries    int
	RetryBackoff  time.Duration
	CircuitBreak  int

	// Metrics records ExecDirect timing and outcome. Nil defaults to
	// NoOpMetrics — callers that want real instrumentation pass
	// NewLoggingMetrics(logger) or their own MetricsCollector.
	Metrics MetricsCollector
}

// Cursor streams the rows of a Data-producing statement one at a time.
type Cursor interface {
	// Columns returns the declared column names. Valid after ExecDirect
	// returns and before the first Next call reads input, and stable for
	// the life of the cursor.
	Columns() []string
	// Next advances to the next row, returning false at EOF or on error
	// (check Err after it returns false).
	Next(ctx context.Context) bool
	// ScanRow returns the current row's cells as text, substituting
	// resultset.NullSentinel for SQL NULL.
	ScanRow() ([]string, error)
	Err() error
	Close() error
}

// Conn is one statement-serializing connection to the warehouse. Only one
// ExecDirect may be in flight at a time — the worker enforces that by
// construction.
type Conn interface {
	// ExecDirect runs sql. If the statement produced rows, cursor is
	// non-nil and affected is nil. Otherwise cursor is nil and affected
	// reports the row count, or is nil if the driver didn't report one.
	ExecDirect(ctx context.Context, sql string) (cursor Cursor, affected *int64, err error)

	// Cancel aborts whatever ExecDirect call is currently in flight on
	// this connection, from any goroutine. It is a safe no-op when
	// nothing is running.
	Cancel()

	// Ping verifies connectivity (used once at Init, before the worker
	// emits Connected).
	Ping(ctx context.Context) error

	Close() error
}

// Connect dials the backend named by cfg.Driver.
func Connect(ctx context.Context, cfg Config) (Conn, error) {
	switch cfg.Driver {
	case Postgres:
		return connectPostgres(ctx, cfg)
	case MySQL:
		return connectMySQL(ctx, cfg)
	default:
		return nil, &UnsupportedDriverError{Driver: cfg.Driver}
	}
}

// UnsupportedDriverError reports an unrecognized Config.Driver value.
type UnsupportedDriverError struct{ Driver Driver }

func (e *UnsupportedDriverError) Error() string {
	return "sqldriver: unsupported driver " + string(e.Driver)
}
