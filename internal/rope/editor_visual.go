package rope

// visualLines returns the current visual-line index, recomputing it lazily
// if a prior edit or undo/redo invalidated it.
func (e *Editor) visualLines() []VisualLine {
	if e.visualLinesStale {
		e.cachedVisualLines = recomputeVisualLines(e.rope.String(), e.wrapWidth)
		e.visualLinesStale = false
	}
	return e.cachedVisualLines
}

// segmentContaining returns the index of the unique visual-line segment
// containing byte offset pos.
func (e *Editor) segmentContaining(pos int) int {
	lines := e.visualLines()
	for i, seg := range lines {
		if pos < seg.StartByte {
			continue
		}
		if pos < seg.EndByte || i == len(lines)-1 {
			return i
		}
		// A caret sitting exactly on a wrap boundary belongs to the next
		// segment, not the trailing edge of this one; a caret at the end of
		// a logical line (just before its '\n') belongs to this segment.
		if pos == seg.EndByte && lines[i+1].StartByte != pos {
			return i
		}
	}
	if len(lines) == 0 {
		return 0
	}
	return len(lines) - 1
}

// visualColumn computes the display column of byte offset pos within its
// segment by measuring the segment prefix [start_byte, pos).
func (e *Editor) visualColumn(pos int) int {
	lines := e.visualLines()
	idx := e.segmentContaining(pos)
	seg := lines[idx]
	if pos < seg.StartByte {
		pos = seg.StartByte
	}
	return DisplayWidth(e.rope.Slice(seg.StartByte, pos))
}

// CaretPositionVisual converts the caret's byte offset into (row, col).
func (e *Editor) CaretPositionVisual() (row, col int) {
	idx := e.segmentContaining(e.caret)
	return idx, e.visualColumn(e.caret)
}

// byteAtColumn finds the byte offset within seg whose prefix display width
// is closest to (without exceeding) col, falling back to the segment end.
func (e *Editor) byteAtColumn(seg VisualLine, col int) int {
	if col <= 0 {
		return seg.StartByte
	}
	text := e.rope.Slice(seg.StartByte, seg.EndByte)
	width := 0
	for i, r := range text {
		w := DisplayWidth(string(r))
		if width+w > col {
			return seg.StartByte + i
		}
		width += w
	}
	return seg.EndByte
}

// MoveUp moves the caret one visual line up, preferring the stored
// preferred column.
func (e *Editor) MoveUp(sel bool) {
	e.ensureAnchor(sel)
	lines := e.visualLines()
	idx := e.segmentContaining(e.caret)
	if idx == 0 {
		e.caret = 0
		return
	}
	target := lines[idx-1]
	e.caret = e.byteAtColumn(target, e.prefCol)
}

// MoveDown moves the caret one visual line down, preferring the stored
// preferred column.
func (e *Editor) MoveDown(sel bool) {
	e.ensureAnchor(sel)
	lines := e.visualLines()
	idx := e.segmentContaining(e.caret)
	if idx >= len(lines)-1 {
		e.caret = e.rope.Len()
		return
	}
	target := lines[idx+1]
	e.caret = e.byteAtColumn(target, e.prefCol)
}

// RepositionViewport keeps at least ScrollOff visual lines of context above
// and below the caret's row when possible.
func (e *Editor) RepositionViewport(viewportHeight int) {
	lines := e.visualLines()
	row := e.segmentContaining(e.caret)

	if row-ScrollOff < e.viewportRow {
		e.viewportRow = row - ScrollOff
	}
	if row+ScrollOff >= e.viewportRow+viewportHeight {
		e.viewportRow = row + ScrollOff - viewportHeight + 1
	}
	if e.viewportRow < 0 {
		e.viewportRow = 0
	}
	if maxTop := len(lines) - viewportHeight; maxTop > 0 && e.viewportRow > maxTop {
		e.viewportRow = maxTop
	}
}

// ViewportOffset returns the current (row, col) viewport origin.
func (e *Editor) ViewportOffset() (row, col int) {
	return e.viewportRow, e.viewportCol
}
