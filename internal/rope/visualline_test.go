package rope

import "testing"

func TestRecomputeVisualLinesWraps(t *testing.T) {
	lines := recomputeVisualLines("abcdefgh", 3)
	if len(lines) != 3 {
		t.Fatalf("expected 3 wrapped segments, got %d: %+v", len(lines), lines)
	}
	if lines[0].StartByte != 0 || lines[0].EndByte != 3 {
		t.Fatalf("unexpected first segment: %+v", lines[0])
	}
	if !lines[1].IsContinuation {
		t.Fatal("expected second segment to be a continuation")
	}
}

func TestRecomputeVisualLinesMultipleLogicalLines(t *testing.T) {
	lines := recomputeVisualLines("ab\ncd", 80)
	if len(lines) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(lines))
	}
	if lines[0].LogicalLine != 0 || lines[1].LogicalLine != 1 {
		t.Fatalf("unexpected logical line numbers: %+v", lines)
	}
}

func TestCaretPositionVisual(t *testing.T) {
	e, _ := newTestEditor()
	e.wrapWidth = 80
	e.InsertText("SELECT 1\nFROM t")
	e.caret = 9 // 'F' of FROM, start of second logical line

	row, col := e.CaretPositionVisual()
	if row != 1 || col != 0 {
		t.Fatalf("expected (1,0), got (%d,%d)", row, col)
	}
}

func TestMoveUpDownPreferredColumn(t *testing.T) {
	e, _ := newTestEditor()
	e.wrapWidth = 80
	e.InsertText("abcdef\nxy\nuvwxyz")
	e.caret = 4 // column 4 on first line
	e.prefCol = DisplayWidth("abcd")

	e.MoveDown(false)
	row, col := e.CaretPositionVisual()
	if row != 1 {
		t.Fatalf("expected row 1, got %d", row)
	}
	// second line is only "xy" (width 2), caret clamps to line end
	if col > DisplayWidth("xy") {
		t.Fatalf("expected clamp to line width, got col %d", col)
	}

	e.MoveUp(false)
	row, _ = e.CaretPositionVisual()
	if row != 0 {
		t.Fatalf("expected row 0 after moving back up, got %d", row)
	}
}
