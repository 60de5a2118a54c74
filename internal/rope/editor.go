package rope

import (
	"time"

	"github.com/atotto/clipboard"
	"github.com/rivo/uniseg"
)

// ScrollOff is the default number of visual lines of context kept above and
// below the caret when the viewport repositions.
const ScrollOff = 3

// Clipboard abstracts system clipboard access so tests don't depend on a
// real clipboard being present. *systemClipboard (backed by
// github.com/atotto/clipboard) is the production implementation.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) ReadAll() (string, error)     { return clipboard.ReadAll() }
func (systemClipboard) WriteAll(text string) error   { return clipboard.WriteAll(text) }

// Editor holds the full editing state: the rope, caret,
// optional selection, preferred column, viewport, derived visual lines,
// modified flag, and undo/redo log.
type Editor struct {
	rope *Rope

	caret    int
	anchor   *int
	prefCol  int

	viewportRow int
	viewportCol int
	wrapWidth   int

	cachedVisualLines []VisualLine
	visualLinesStale  bool

	modified bool
	log      undoLog

	clipboard Clipboard
	now       func() time.Time
}

// NewEditor creates an empty editor. wrapWidth is the viewport width in
// display columns used for soft-wrap.
func NewEditor(wrapWidth int) *Editor {
	return &Editor{
		rope:             New(""),
		wrapWidth:        wrapWidth,
		visualLinesStale: true,
		clipboard:        systemClipboard{},
		now:              time.Now,
	}
}

// RopeText returns the full current text.
func (e *Editor) RopeText() string { return e.rope.String() }

// IsModified reports whether any edit has happened since construction.
func (e *Editor) IsModified() bool { return e.modified }

// Len returns the byte length of the current text.
func (e *Editor) Len() int { return e.rope.Len() }

// Caret returns the current caret byte offset.
func (e *Editor) Caret() int { return e.caret }

// SelectionRange returns the half-open byte range [min(a,c), max(a,c)) and
// true if a non-empty selection exists.
func (e *Editor) SelectionRange() (int, int, bool) {
	if e.anchor == nil || *e.anchor == e.caret {
		return 0, 0, false
	}
	a, c := *e.anchor, e.caret
	if a > c {
		a, c = c, a
	}
	return a, c, true
}

// GetCurrentQuery returns the selected byte slice if any, otherwise the
// whole rope.
func (e *Editor) GetCurrentQuery() string {
	if start, end, ok := e.SelectionRange(); ok {
		return e.rope.Slice(start, end)
	}
	return e.rope.String()
}

func (e *Editor) clearSelection() { e.anchor = nil }

func (e *Editor) invalidateVisualLines() { e.visualLinesStale = true }

// applyOp mutates the rope via op, records it for undo, clears the
// selection, marks the buffer modified, and places the caret at the
// natural post-op position.
func (e *Editor) applyOp(op EditOp) {
	newRope, caret := op.apply(e.rope)
	e.rope = newRope
	e.caret = caret
	e.clearSelection()
	e.modified = true
	e.invalidateVisualLines()
	e.log.record(op, e.now())
}

// deleteRangeOp builds the Delete op for [start, end) against the current
// rope, capturing the text being removed so the op is invertible.
func (e *Editor) deleteRangeOp(start, end int) EditOp {
	return EditOp{Kind: OpDelete, Pos: start, Text: e.rope.Slice(start, end)}
}

// --- Insert / delete -------------------------------------------------

// InsertText inserts s at the caret, replacing any selection atomically:
// the delete and insert join the same undo group.
func (e *Editor) InsertText(s string) {
	if s == "" {
		return
	}
	if start, end, ok := e.SelectionRange(); ok {
		e.applyOp(e.deleteRangeOp(start, end))
		e.caret = start
	}
	e.applyOp(EditOp{Kind: OpInsert, Pos: e.caret, Text: s})
}

// Insert inserts a single character at the caret.
func (e *Editor) Insert(ch rune) { e.InsertText(string(ch)) }

// DeleteSelection removes the current selection; no-op if none exists.
func (e *Editor) DeleteSelection() {
	start, end, ok := e.SelectionRange()
	if !ok {
		return
	}
	e.applyOp(e.deleteRangeOp(start, end))
}

// DeleteBefore removes the code point immediately before the caret, or the
// selection if one exists.
func (e *Editor) DeleteBefore() {
	if _, _, ok := e.SelectionRange(); ok {
		e.DeleteSelection()
		return
	}
	if e.caret == 0 {
		return
	}
	prev := prevRuneBoundary(e.rope, e.caret)
	e.applyOp(e.deleteRangeOp(prev, e.caret))
}

// DeleteAfter removes the code point immediately after the caret, or the
// selection if one exists.
func (e *Editor) DeleteAfter() {
	if _, _, ok := e.SelectionRange(); ok {
		e.DeleteSelection()
		return
	}
	if e.caret >= e.rope.Len() {
		return
	}
	next := nextRuneBoundary(e.rope, e.caret)
	e.applyOp(e.deleteRangeOp(e.caret, next))
}

// --- Undo / redo -------------------------------------------------------

// Undo finalizes any in-progress group, then pops and inverts the most
// recent group, applying its ops in reverse order. Caret lands at the
// natural post-op position of the last inverse op applied; selection is
// cleared and visual lines marked stale.
func (e *Editor) Undo() bool {
	g, ok := e.log.popUndo()
	if !ok {
		return false
	}
	for i := len(g.Ops) - 1; i >= 0; i-- {
		inv := g.Ops[i].invert()
		newRope, caret := inv.apply(e.rope)
		e.rope = newRope
		e.caret = caret
	}
	e.clearSelection()
	e.invalidateVisualLines()
	return true
}

// Redo reapplies the most recently undone group in forward order.
func (e *Editor) Redo() bool {
	g, ok := e.log.popRedo()
	if !ok {
		return false
	}
	for _, op := range g.Ops {
		newRope, caret := op.apply(e.rope)
		e.rope = newRope
		e.caret = caret
	}
	e.clearSelection()
	e.invalidateVisualLines()
	return true
}

// --- Selection / motion --------------------------------------------------

// SelectAll selects the entire buffer regardless of prior caret position.
func (e *Editor) SelectAll() {
	zero := 0
	e.anchor = &zero
	e.caret = e.rope.Len()
}

func (e *Editor) ensureAnchor(sel bool) {
	if sel && e.anchor == nil {
		a := e.caret
		e.anchor = &a
	} else if !sel {
		e.anchor = nil
	}
}

// MoveLeft moves the caret one code point to the left. Grapheme clusters
// are not treated as a unit: a cluster made of several code points takes
// one move per code point.
func (e *Editor) MoveLeft(sel bool) {
	e.ensureAnchor(sel)
	if e.caret > 0 {
		e.caret = prevRuneBoundary(e.rope, e.caret)
	}
	e.prefCol = e.visualColumn(e.caret)
}

// MoveRight moves the caret one code point to the right. Grapheme clusters
// are not treated as a unit: a cluster made of several code points takes
// one move per code point.
func (e *Editor) MoveRight(sel bool) {
	e.ensureAnchor(sel)
	if e.caret < e.rope.Len() {
		e.caret = nextRuneBoundary(e.rope, e.caret)
	}
	e.prefCol = e.visualColumn(e.caret)
}

// MoveLineStart moves the caret to the logical line's start.
func (e *Editor) MoveLineStart(sel bool) {
	e.ensureAnchor(sel)
	e.caret = lineStart(e.rope, e.caret)
	e.prefCol = e.visualColumn(e.caret)
}

// MoveLineEnd moves the caret to the logical line's end, excluding the
// trailing newline.
func (e *Editor) MoveLineEnd(sel bool) {
	e.ensureAnchor(sel)
	e.caret = lineEnd(e.rope, e.caret)
	e.prefCol = e.visualColumn(e.caret)
}

// --- Clipboard -----------------------------------------------------------

// Copy writes the current selection (or nothing if there is none) to the
// clipboard. Failures are silent no-ops.
func (e *Editor) Copy() {
	start, end, ok := e.SelectionRange()
	if !ok {
		return
	}
	_ = e.clipboard.WriteAll(e.rope.Slice(start, end))
}

// Cut is Copy followed by DeleteSelection.
func (e *Editor) Cut() {
	e.Copy()
	e.DeleteSelection()
}

// Paste inserts the clipboard contents at the caret, replacing any
// selection. A clipboard read failure is a silent no-op.
func (e *Editor) Paste() {
	text, err := e.clipboard.ReadAll()
	if err != nil || text == "" {
		return
	}
	e.InsertText(text)
}

// --- helpers ---------------------------------------------------------

func prevRuneBoundary(r *Rope, at int) int {
	if at <= 0 {
		return 0
	}
	i := at - 1
	for i > 0 && !isRuneStart(r.ByteAt(i)) {
		i--
	}
	return i
}

func nextRuneBoundary(r *Rope, at int) int {
	n := r.Len()
	if at >= n {
		return n
	}
	i := at + 1
	for i < n && !isRuneStart(r.ByteAt(i)) {
		i++
	}
	return i
}

func lineStart(r *Rope, at int) int {
	i := at
	for i > 0 && r.ByteAt(i-1) != '\n' {
		i--
	}
	return i
}

func lineEnd(r *Rope, at int) int {
	n := r.Len()
	i := at
	for i < n && r.ByteAt(i) != '\n' {
		i++
	}
	return i
}

// graphemeCount counts the grapheme clusters (not bytes) in s. Nothing in
// this package calls it; MoveUp/MoveDown column math uses display widths.
func graphemeCount(s string) int {
	return uniseg.GraphemeClusterCount(s)
}
