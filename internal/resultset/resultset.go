// Package resultset defines the logical outcome of a statement: the shared
// vocabulary between the query execution worker and everything that renders
// or pages through what it produced.
package resultset

import "strconv"

// NullSentinel is written wherever the driver returned a database NULL. It
// is a marker value, not a protected literal: an ordinary cell equal to this
// string is indistinguishable from an actual NULL on readback. That is an
// accepted limitation carried over from the source design.
const NullSentinel = "<Frost-NULL>"

// TileReader pages through a Table's rows without requiring the whole
// result set in memory. *tilestore.TileStore is the implementation used
// throughout this repository.
type TileReader interface {
	GetRows(start, count int) ([][]string, error)
	NumRows() int
	Close() error
}

// Table is a successful row-returning statement.
type Table struct {
	Headers []string
	Store   TileReader
}

// Info is a successful non-row-returning statement.
type Info struct {
	Message string
	// RowsAffected is nil when the driver did not report a count.
	RowsAffected *int64
}

// Pending marks a query slot before execution has completed.
type Pending struct{}

// Error is a textual diagnostic, optionally with a cursor for interactive
// inspection (byte offset into the submitted SQL the driver pointed at).
type Error struct {
	Message string
	Cursor  *int
}

// Set is the tagged union of what a statement can produce. Exactly one
// field is non-nil.
type Set struct {
	Table   *Table
	Info    *Info
	Pending *Pending
	Error   *Error
}

// AffectedRowsMessage renders the status line for a statement that
// produced no rows: a generic message if the driver didn't report a count,
// otherwise the count itself.
func AffectedRowsMessage(count *int64) string {
	switch {
	case count == nil:
		return "Statement executed successfully."
	case *count == 0:
		return "Statement executed successfully (no rows affected)."
	case *count == 1:
		return "Statement affected 1 row."
	default:
		return "Statement affected " + strconv.FormatInt(*count, 10) + " rows."
	}
}
