package sqldriver

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	_ "github.com/go-sql-driver/mysql"

	"github.com/karu-codes/tilesql/errors"
)

// mysqlConn is the MySQL backend. database/sql's driver interface has no
// wire-level cancel hook the way pgconn does, so Cancel here works by
// cancelling the context the in-flight ExecDirect is using — the
// go-sql-driver/mysql driver aborts its read loop on ctx.Done and closes
// the connection, which is enough to unblock the worker even though the
// server-side statement may keep running briefly until it errors out.
type mysqlConn struct {
	db *sql.DB

	mu         sync.Mutex
	cancelFunc context.CancelFunc
	breaker    *circuitBreaker
}

func connectMySQL(ctx context.Context, cfg Config) (Conn, error) {
	cb := newCircuitBreaker(cfg.CircuitBreak, 0)

	var db *sql.DB
	err := dialWithRetry(ctx, cfg, cb, func() error {
		d, openErr := sql.Open("mysql", cfg.DSN)
		if openErr != nil {
			return errors.Wrap(openErr, errors.CodeInvalidArgument, "open mysql dsn")
		}
		d.SetMaxOpenConns(1)
		d.SetMaxIdleConns(1)

		pingCtx := ctx
		var cancel context.CancelFunc
		if cfg.ConnectTimeout > 0 {
			pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
			defer cancel()
		}
		if pingErr := d.PingContext(pingCtx); pingErr != nil {
			d.Close()
			return classify(pingErr)
		}
		db = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	return withMetrics(&mysqlConn{db: db, breaker: cb}, cfg.Metrics), nil
}

func (c *mysqlConn) ExecDirect(ctx context.Context, query string) (Cursor, *int64, error) {
	c.mu.Lock()
	cancelCtx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.cancelFunc = nil
		c.mu.Unlock()
	}()

	if !producesRows(query) {
		result, err := c.db.ExecContext(cancelCtx, query)
		if err != nil {
			return nil, nil, classify(err)
		}
		n, _ := result.RowsAffected()
		return nil, &n, nil
	}

	rows, err := c.db.QueryContext(cancelCtx, query)
	if err != nil {
		return nil, nil, classify(err)
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, nil, classify(err)
	}
	return &mysqlCursor{rows: rows, cols: cols}, nil, nil
}

// producesRows guesses whether query returns a result set by inspecting its
// leading keyword. database/sql needs to know whether to call QueryContext
// or ExecContext before running the statement; affected-row counts are only
// available through the latter.
func producesRows(query string) bool {
	trimmed := strings.TrimLeft(query, " \t\r\n(")
	for _, kw := range []string{"SELECT", "SHOW", "EXPLAIN", "DESCRIBE", "DESC", "WITH", "TABLE", "VALUES"} {
		if len(trimmed) >= len(kw) && strings.EqualFold(trimmed[:len(kw)], kw) {
			return true
		}
	}
	return false
}

func (c *mysqlConn) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
}

func (c *mysqlConn) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return classify(err)
	}
	return nil
}

func (c *mysqlConn) Close() error {
	return c.db.Close()
}

type mysqlCursor struct {
	rows *sql.Rows
	cols []string
}

func (c *mysqlCursor) Columns() []string { return c.cols }

func (c *mysqlCursor) Next(ctx context.Context) bool {
	return c.rows.Next()
}

func (c *mysqlCursor) ScanRow() ([]string, error) {
	raw := make([]any, len(c.cols))
	ptrs := make([]any, len(c.cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := c.rows.Scan(ptrs...); err != nil {
		return nil, classify(err)
	}
	cells := make([]string, len(raw))
	for i, v := range raw {
		cells[i] = encodeCell(v)
	}
	return cells, nil
}

func (c *mysqlCursor) Err() error {
	if err := c.rows.Err(); err != nil {
		return classify(err)
	}
	return nil
}

func (c *mysqlCursor) Close() error {
	return c.rows.Close()
}
