// Package worker runs the query execution worker: a single goroutine that
// owns one database connection, executes statements one at a time in
// submission order, and streams progress back over a channel.
package worker

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/karu-codes/tilesql/internal/resultset"
)

// contextKeyType is unexported so only this package can mint ContextKey
// values; ContextKey itself is exported so callers can register it with a
// logging context extractor (klog.ContextValueExtractor(worker.ContextKey,
// "batch")) without reaching into worker internals.
type contextKeyType struct{}

// ContextKey is the context.Context key the worker stores each query's
// QueryContext.Context value under while that query is executing, so every
// log line emitted during ExecDirect — by the worker itself or by a
// MetricsCollector wired through sqldriver.Config — can be traced back to
// the batch and index that produced it.
var ContextKey = contextKeyType{}

// Request is the UI-to-worker message set. The zero value of each type is
// a valid request; RunQueries carries the batch to execute.
type Request struct {
	kind requestKind

	Queries []QueryContext // RunQueries only
}

type requestKind int

const (
	reqRunQueries requestKind = iota
	reqCancel
	reqQuit
)

// QueryContext is one statement submitted as part of a RunQueries batch,
// along with whatever caller-supplied context (a batch correlation ID, a
// tab or pane identifier) the response should echo back.
type QueryContext struct {
	SQL     string
	Context any
}

// RunQueries requests execution of queries in order within one batch.
func RunQueries(queries []QueryContext) Request {
	return Request{kind: reqRunQueries, Queries: queries}
}

// Submit builds a RunQueries request from plain SQL strings, tagging each
// one with a "<batch-uuid>:<index>" correlation string so every response
// for this batch (and every log line the worker emits while running it)
// can be traced back to the call that submitted it, without the caller
// having to invent and guarantee uniqueness of that identifier itself.
func Submit(sqls []string) (batchID uuid.UUID, req Request) {
	batchID = uuid.New()
	queries := make([]QueryContext, len(sqls))
	for i, sql := range sqls {
		queries[i] = QueryContext{SQL: sql, Context: fmt.Sprintf("%s:%d", batchID, i)}
	}
	return batchID, RunQueries(queries)
}

// Cancel requests that whatever statement is currently running be aborted.
// It is a no-op if the worker is idle; by the time the worker itself reads
// this message off the channel it has typically already returned to idle,
// so the actual abort happens out-of-band through Worker.Cancel, not this
// message — Cancel exists so a caller can still express "I want to cancel"
// as a request in tests or logs without reaching into worker internals.
func Cancel() Request { return Request{kind: reqCancel} }

// Quit requests the worker goroutine exit.
func Quit() Request { return Request{kind: reqQuit} }

// Response is the worker-to-UI message set.
type Response struct {
	kind responseKind

	Idx     int   // QueryStarted / QueryFinished / QueryError
	Elapsed time.Duration
	Context any // echoes QueryContext.Context

	Result  *resultset.Set // QueryFinished
	Message string         // QueryError
}

type responseKind int

const (
	respConnected responseKind = iota
	respQueryStarted
	respQueryFinished
	respQueryError
)

func (r Response) Connected() bool     { return r.kind == respConnected }
func (r Response) QueryStarted() bool  { return r.kind == respQueryStarted }
func (r Response) QueryFinished() bool { return r.kind == respQueryFinished }
func (r Response) QueryError() bool    { return r.kind == respQueryError }

func connectedResponse() Response { return Response{kind: respConnected} }

func startedResponse(idx int, ctx any) Response {
	return Response{kind: respQueryStarted, Idx: idx, Context: ctx}
}

func finishedResponse(idx int, elapsed time.Duration, ctx any, result *resultset.Set) Response {
	return Response{kind: respQueryFinished, Idx: idx, Elapsed: elapsed, Context: ctx, Result: result}
}

func errorResponse(idx int, elapsed time.Duration, ctx any, message string) Response {
	return Response{kind: respQueryError, Idx: idx, Elapsed: elapsed, Context: ctx, Message: message}
}
