package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/karu-codes/tilesql/errors"
	"github.com/karu-codes/tilesql/internal/resultset"
	"github.com/karu-codes/tilesql/internal/sqldriver"
	"github.com/karu-codes/tilesql/internal/tilestore"
)

// sessionInitStatement runs once right after a successful connect, best
// effort: its failure is logged and otherwise ignored.
const sessionInitStatement = "USE SECONDARY ROLES ALL"

// Worker owns one database connection and runs statements submitted to it
// one at a time, in order, streaming progress back over Responses. Exactly
// one goroutine (started by Start) ever touches the connection.
type Worker struct {
	requests  chan Request
	responses chan Response
	slot      statementSlot
}

// Requests returns the send-only request channel.
func (w *Worker) Requests() chan<- Request { return w.requests }

// Responses returns the receive-only response channel. The UI drains it
// non-blockingly each event-loop tick.
func (w *Worker) Responses() <-chan Response { return w.responses }

// Cancel aborts whatever statement is currently in flight, invoking the
// driver's cancel directly against the slotted connection rather than
// going through the request channel — by the time the worker would read a
// queued request it may already be back to idle. Safe from any goroutine;
// a no-op when nothing is running.
func (w *Worker) Cancel() { w.slot.fire() }

// Start dials cfg and launches the worker goroutine, returning immediately.
// The caller learns whether the connection succeeded by watching for a
// Connected response (or the absence of one, if the worker enters Degraded
// and simply discards requests until Quit).
func Start(ctx context.Context, cfg sqldriver.Config, logger *slog.Logger) *Worker {
	w := &Worker{
		requests:  make(chan Request),
		responses: make(chan Response, 16),
	}
	go w.run(ctx, cfg, logger)
	return w
}

func (w *Worker) run(ctx context.Context, cfg sqldriver.Config, logger *slog.Logger) {
	conn, err := sqldriver.Connect(ctx, cfg)
	if err != nil {
		logger.Error("worker: connect failed, entering degraded state", "error", err)
		w.degraded()
		return
	}
	defer conn.Close()
	w.runConnected(ctx, conn, logger)
}

// runConnected drives the Init -> Idle/Degraded -> Executing state machine
// once a Conn already exists. Split out from run so tests can hand it a
// fake Conn without going through sqldriver.Connect.
func (w *Worker) runConnected(ctx context.Context, conn sqldriver.Conn, logger *slog.Logger) {
	check := sqldriver.Probe(ctx, conn)
	if check.Status == sqldriver.StatusUnhealthy {
		logger.Error("worker: connectivity probe failed, entering degraded state", "error", check.Message)
		w.degraded()
		return
	}

	if _, _, initErr := conn.ExecDirect(ctx, sessionInitStatement); initErr != nil {
		logger.Warn("worker: session init statement failed, continuing", "error", initErr)
	}

	logger.Info("worker: connected")
	w.responses <- connectedResponse()
	w.idle(ctx, conn, logger)
}

// degraded consumes and discards every request until Quit, never emitting
// Connected. Entered when Init fails to produce a usable connection.
func (w *Worker) degraded() {
	for req := range w.requests {
		if req.kind == reqQuit {
			return
		}
	}
}

func (w *Worker) idle(ctx context.Context, conn sqldriver.Conn, logger *slog.Logger) {
	for req := range w.requests {
		switch req.kind {
		case reqQuit:
			return
		case reqCancel:
			// No-op: nothing is executing.
		case reqRunQueries:
			w.executeBatch(ctx, conn, logger, req.Queries)
		}
	}
}

func (w *Worker) executeBatch(ctx context.Context, conn sqldriver.Conn, logger *slog.Logger, queries []QueryContext) {
	for idx, q := range queries {
		queryCtx := context.WithValue(ctx, ContextKey, q.Context)

		logger.InfoContext(queryCtx, "worker: query started", "idx", idx)
		w.responses <- startedResponse(idx, q.Context)

		start := time.Now()
		result, errMsg := w.executeOne(queryCtx, conn, q.SQL)
		elapsed := time.Since(start)

		if errMsg != "" {
			logger.ErrorContext(queryCtx, "worker: query failed", "idx", idx, "elapsed", elapsed, "error", errMsg)
			w.responses <- errorResponse(idx, elapsed, q.Context, errMsg)
			continue
		}
		logger.InfoContext(queryCtx, "worker: query finished", "idx", idx, "elapsed", elapsed)
		w.responses <- finishedResponse(idx, elapsed, q.Context, result)
	}
}

// executeOne runs a single statement, publishing its cancel closure to the
// shared slot for the duration of the call and clearing it on return.
func (w *Worker) executeOne(ctx context.Context, conn sqldriver.Conn, sql string) (*resultset.Set, string) {
	w.slot.set(conn.Cancel)
	defer w.slot.clear()

	cursor, affected, err := conn.ExecDirect(ctx, sql)
	if err != nil {
		return nil, errors.ToCMDError(err)
	}

	if cursor == nil {
		return &resultset.Set{Info: &resultset.Info{
			Message:      resultset.AffectedRowsMessage(affected),
			RowsAffected: affected,
		}}, ""
	}
	defer cursor.Close()

	store, err := tilestore.Build(cursor.Columns(), &cursorRowSource{ctx: ctx, cursor: cursor})
	if err != nil {
		return nil, errors.ToCMDError(err)
	}
	return &resultset.Set{Table: &resultset.Table{Headers: cursor.Columns(), Store: store}}, ""
}

// cursorRowSource adapts a sqldriver.Cursor to tilestore.RowSource.
type cursorRowSource struct {
	ctx    context.Context
	cursor sqldriver.Cursor
	row    []string
	err    error
}

func (s *cursorRowSource) Next() bool {
	if s.err != nil {
		return false
	}
	if !s.cursor.Next(s.ctx) {
		s.err = s.cursor.Err()
		return false
	}
	row, err := s.cursor.ScanRow()
	if err != nil {
		s.err = err
		return false
	}
	s.row = row
	return true
}

func (s *cursorRowSource) Row() []string { return s.row }
func (s *cursorRowSource) Err() error    { return s.err }

func (k responseKind) String() string {
	switch k {
	case respConnected:
		return "Connected"
	case respQueryStarted:
		return "QueryStarted"
	case respQueryFinished:
		return "QueryFinished"
	case respQueryError:
		return "QueryError"
	default:
		return "Unknown"
	}
}
