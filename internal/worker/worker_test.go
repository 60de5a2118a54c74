package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/karu-codes/tilesql/internal/sqldriver"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeConn drives ExecDirect from a queue of scripted responses, keyed by
// call order, so tests can script a batch's worth of outcomes.
type fakeConn struct {
	script   []fakeResult
	call     int
	cancelCh chan struct{}
}

type fakeResult struct {
	affected *int64
	rows     [][]string
	cols     []string
	err      error
	block    bool // if true, ExecDirect waits for cancelCh or ctx.Done()
}

func (c *fakeConn) ExecDirect(ctx context.Context, sql string) (sqldriver.Cursor, *int64, error) {
	r := c.script[c.call]
	c.call++

	if r.block {
		select {
		case <-c.cancelCh:
			return nil, nil, errors.New("statement cancelled")
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}
	if r.err != nil {
		return nil, nil, r.err
	}
	if r.cols == nil {
		return nil, r.affected, nil
	}
	return &fakeCursor{cols: r.cols, rows: r.rows}, nil, nil
}

func (c *fakeConn) Cancel() {
	select {
	case c.cancelCh <- struct{}{}:
	default:
	}
}

func (c *fakeConn) Ping(ctx context.Context) error { return nil }
func (c *fakeConn) Close() error                   { return nil }

type fakeCursor struct {
	cols []string
	rows [][]string
	i    int
}

func (c *fakeCursor) Columns() []string { return c.cols }
func (c *fakeCursor) Next(ctx context.Context) bool {
	if c.i >= len(c.rows) {
		return false
	}
	c.i++
	return true
}
func (c *fakeCursor) ScanRow() ([]string, error) { return c.rows[c.i-1], nil }
func (c *fakeCursor) Err() error                  { return nil }
func (c *fakeCursor) Close() error                { return nil }

func newRunningWorker(conn sqldriver.Conn) *Worker {
	w := &Worker{
		requests:  make(chan Request),
		responses: make(chan Response, 16),
	}
	go w.runConnected(context.Background(), conn, testLogger())
	return w
}

func recv(t *testing.T, w *Worker) Response {
	t.Helper()
	select {
	case r := <-w.responses:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for response")
		return Response{}
	}
}

func n(v int64) *int64 { return &v }

func TestConnectedThenRunQueriesOrdering(t *testing.T) {
	conn := &fakeConn{
		cancelCh: make(chan struct{}, 1),
		script: []fakeResult{
			{}, // session init statement, no cols/affected -> Info
			{affected: n(3)},
			{affected: n(0)},
		},
	}
	w := newRunningWorker(conn)

	if got := recv(t, w); !got.Connected() {
		t.Fatalf("expected Connected first, got %+v", got)
	}

	w.Requests() <- RunQueries([]QueryContext{
		{SQL: "INSERT INTO t VALUES (1)"},
		{SQL: "DELETE FROM t WHERE 1=0"},
	})

	started0 := recv(t, w)
	if !started0.QueryStarted() || started0.Idx != 0 {
		t.Fatalf("expected QueryStarted idx 0, got %+v", started0)
	}
	finished0 := recv(t, w)
	if !finished0.QueryFinished() || finished0.Idx != 0 {
		t.Fatalf("expected QueryFinished idx 0, got %+v", finished0)
	}
	if finished0.Result.Info == nil || *finished0.Result.Info.RowsAffected != 3 {
		t.Fatalf("expected affected=3, got %+v", finished0.Result)
	}

	started1 := recv(t, w)
	if !started1.QueryStarted() || started1.Idx != 1 {
		t.Fatalf("expected QueryStarted idx 1, got %+v", started1)
	}
	finished1 := recv(t, w)
	if !finished1.QueryFinished() || finished1.Idx != 1 {
		t.Fatalf("expected QueryFinished idx 1, got %+v", finished1)
	}

	w.Requests() <- Quit()
}

func TestQueryErrorDoesNotSkipNextQuery(t *testing.T) {
	conn := &fakeConn{
		cancelCh: make(chan struct{}, 1),
		script: []fakeResult{
			{},
			{err: errors.New("syntax error")},
			{affected: n(1)},
		},
	}
	w := newRunningWorker(conn)
	recv(t, w) // Connected

	w.Requests() <- RunQueries([]QueryContext{
		{SQL: "GARBAGE"},
		{SQL: "INSERT INTO t VALUES (1)"},
	})

	recv(t, w) // QueryStarted 0
	errResp := recv(t, w)
	if !errResp.QueryError() || errResp.Idx != 0 {
		t.Fatalf("expected QueryError idx 0, got %+v", errResp)
	}

	started1 := recv(t, w)
	if !started1.QueryStarted() || started1.Idx != 1 {
		t.Fatalf("expected query 1 to still start, got %+v", started1)
	}
	finished1 := recv(t, w)
	if !finished1.QueryFinished() || finished1.Idx != 1 {
		t.Fatalf("expected query 1 to finish, got %+v", finished1)
	}

	w.Requests() <- Quit()
}

func TestCancelAbortsInFlightStatement(t *testing.T) {
	conn := &fakeConn{
		cancelCh: make(chan struct{}, 1),
		script: []fakeResult{
			{},
			{block: true},
		},
	}
	w := newRunningWorker(conn)
	recv(t, w) // Connected

	w.Requests() <- RunQueries([]QueryContext{{SQL: "SELECT pg_sleep(100)"}})
	recv(t, w) // QueryStarted 0

	// Give the worker a moment to actually be blocked in ExecDirect, then
	// cancel the way the UI thread would: directly, not via the request
	// channel.
	time.Sleep(20 * time.Millisecond)
	w.Cancel()

	errResp := recv(t, w)
	if !errResp.QueryError() {
		t.Fatalf("expected cancelled statement to surface as QueryError, got %+v", errResp)
	}

	w.Requests() <- Quit()
}

func TestCancelIsNoOpWhenIdle(t *testing.T) {
	conn := &fakeConn{cancelCh: make(chan struct{}, 1), script: []fakeResult{{}}}
	w := newRunningWorker(conn)
	recv(t, w) // Connected

	w.Cancel() // must not panic or block

	w.Requests() <- Quit()
}

func TestSubmitTagsEachQueryWithBatchAndIndex(t *testing.T) {
	batchID, req := Submit([]string{"SELECT 1", "SELECT 2"})
	if len(req.Queries) != 2 {
		t.Fatalf("expected 2 queries, got %d", len(req.Queries))
	}
	want0 := batchID.String() + ":0"
	want1 := batchID.String() + ":1"
	if req.Queries[0].Context != want0 {
		t.Fatalf("expected context %q, got %q", want0, req.Queries[0].Context)
	}
	if req.Queries[1].Context != want1 {
		t.Fatalf("expected context %q, got %q", want1, req.Queries[1].Context)
	}
}

func TestDegradedStateNeverEmitsConnected(t *testing.T) {
	w := Start(context.Background(), sqldriver.Config{Driver: "bogus"}, testLogger())

	select {
	case got := <-w.Responses():
		t.Fatalf("expected no response in degraded state, got %+v", got)
	case <-time.After(100 * time.Millisecond):
	}

	w.Requests() <- Quit()
}
