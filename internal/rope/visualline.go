package rope

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// VisualLine is one on-screen row; a logical line yields more than one
// VisualLine under soft-wrap.
type VisualLine struct {
	StartByte    int
	EndByte      int
	IsContinuation bool
	Indent       int
	LogicalLine  int
}

// recomputeVisualLines lays logical lines out against width columns,
// wrapping at grapheme-cluster boundaries and measuring display width with
// East-Asian-aware cell widths.
func recomputeVisualLines(text string, width int) []VisualLine {
	if width <= 0 {
		width = 1
	}
	var lines []VisualLine
	byteOff := 0
	for logical, line := range strings.Split(text, "\n") {
		segs := wrapLine(line, byteOff, width, logical)
		lines = append(lines, segs...)
		byteOff += len(line) + 1 // +1 for the '\n' consumed between lines
	}
	return lines
}

func wrapLine(line string, baseOffset, width, logical int) []VisualLine {
	indent := leadingIndent(line)

	if line == "" {
		return []VisualLine{{StartByte: baseOffset, EndByte: baseOffset, LogicalLine: logical, Indent: indent}}
	}

	var segs []VisualLine
	segStart := 0
	col := 0
	isCont := false

	gr := uniseg.NewGraphemes(line)
	for gr.Next() {
		cStart, cEnd := gr.Positions()
		cluster := line[cStart:cEnd]
		w := runewidth.StringWidth(cluster)

		if col > 0 && col+w > width {
			segs = append(segs, VisualLine{
				StartByte:      baseOffset + segStart,
				EndByte:        baseOffset + cStart,
				IsContinuation: isCont,
				Indent:         indent,
				LogicalLine:    logical,
			})
			segStart = cStart
			col = 0
			isCont = true
		}
		col += w
		_ = cEnd
	}
	segs = append(segs, VisualLine{
		StartByte:      baseOffset + segStart,
		EndByte:        baseOffset + len(line),
		IsContinuation: isCont,
		Indent:         indent,
		LogicalLine:    logical,
	})
	return segs
}

func leadingIndent(line string) int {
	n := 0
	for _, r := range line {
		if r == ' ' || r == '\t' {
			n++
			continue
		}
		break
	}
	return n
}

// DisplayWidth measures s the same way wrapLine does, so callers (caret
// column math) stay consistent with wrap decisions.
func DisplayWidth(s string) int {
	return runewidth.StringWidth(s)
}
