package sqldriver

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/karu-codes/tilesql/errors"
)

const cancelRequestTimeout = 5 * time.Second

// pgConn is the Postgres backend. It holds exactly one wire connection —
// the worker never runs more than one statement on it at a time — and
// cancels in flight statements by issuing a real CancelRequest on the
// Postgres wire protocol rather than relying on context cancellation alone,
// so a long-running query on the server actually stops.
type pgConn struct {
	conn *pgx.Conn

	mu    sync.Mutex
	breaker *circuitBreaker
}

func connectPostgres(ctx context.Context, cfg Config) (Conn, error) {
	cb := newCircuitBreaker(cfg.CircuitBreak, 0)

	var conn *pgx.Conn
	err := dialWithRetry(ctx, cfg, cb, func() error {
		pgCfg, parseErr := pgx.ParseConfig(cfg.DSN)
		if parseErr != nil {
			return errors.Wrap(parseErr, errors.CodeInvalidArgument, "parse postgres dsn")
		}
		if cfg.AppName != "" {
			pgCfg.RuntimeParams["application_name"] = cfg.AppName
		}
		if cfg.ConnectTimeout > 0 {
			pgCfg.ConnectTimeout = cfg.ConnectTimeout
		}

		c, dialErr := pgx.ConnectConfig(ctx, pgCfg)
		if dialErr != nil {
			return classify(dialErr)
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	return withMetrics(&pgConn{conn: conn, breaker: cb}, cfg.Metrics), nil
}

func (c *pgConn) ExecDirect(ctx context.Context, sql string) (Cursor, *int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.conn.Query(ctx, sql)
	if err != nil {
		return nil, nil, classify(err)
	}

	fields := rows.FieldDescriptions()
	if len(fields) == 0 {
		// No result columns: this was an exec-style statement (INSERT/UPDATE/...).
		rows.Close()
		tag := rows.CommandTag()
		if err := rows.Err(); err != nil {
			return nil, nil, classify(err)
		}
		n := tag.RowsAffected()
		return nil, &n, nil
	}

	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}
	return &pgCursor{rows: rows, cols: cols}, nil, nil
}

// Cancel asks the server to abort whatever statement is running on this
// connection's backend process. It is safe to call from any goroutine and
// a safe no-op if nothing is in flight.
func (c *pgConn) Cancel() {
	// PgConn().CancelRequest opens a fresh throwaway connection to the
	// server and sends the real wire-level cancel request; it does not
	// need c.mu since it never touches the conn being cancelled directly.
	ctx, cancel := context.WithTimeout(context.Background(), cancelRequestTimeout)
	defer cancel()
	_ = c.conn.PgConn().CancelRequest(ctx)
}

func (c *pgConn) Ping(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.Ping(ctx); err != nil {
		return classify(err)
	}
	return nil
}

func (c *pgConn) Close() error {
	return c.conn.Close(context.Background())
}

type pgCursor struct {
	rows pgx.Rows
	cols []string
	err  error
}

func (c *pgCursor) Columns() []string { return c.cols }

func (c *pgCursor) Next(ctx context.Context) bool {
	return c.rows.Next()
}

func (c *pgCursor) ScanRow() ([]string, error) {
	vals, err := c.rows.Values()
	if err != nil {
		return nil, classify(err)
	}
	cells := make([]string, len(vals))
	for i, v := range vals {
		cells[i] = encodeCell(v)
	}
	return cells, nil
}

func (c *pgCursor) Err() error {
	if err := c.rows.Err(); err != nil {
		return classify(err)
	}
	return nil
}

func (c *pgCursor) Close() error {
	c.rows.Close()
	return nil
}
