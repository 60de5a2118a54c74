// Package rope implements the editing model beneath the SQL editor: a rope
// text structure with visual-line mapping, a time-coalesced undo/redo log,
// and selection-aware edit primitives.
package rope

import "strings"

// splitThreshold is the leaf size above which an insert splits a leaf node
// rather than growing it unbounded; merges below it on delete-adjacent ops
// are not performed eagerly — simplicity over perfect balance, acceptable
// in exchange for simplicity; a piece-table or gap-buffer with equivalent
// asymptotics would serve just as well.
const splitThreshold = 1024

// Rope is a binary tree of string leaves. A leaf node has text set and
// left == right == nil. An internal node has left/right set, text empty,
// and weight equal to the byte length of its left subtree.
type Rope struct {
	left, right *Rope
	weight      int
	text        string
}

// New builds a rope containing s.
func New(s string) *Rope {
	return &Rope{text: s}
}

func (r *Rope) isLeaf() bool { return r.left == nil && r.right == nil }

// Len returns the byte length of the rope's text.
func (r *Rope) Len() int {
	if r == nil {
		return 0
	}
	if r.isLeaf() {
		return len(r.text)
	}
	return r.weight + r.right.Len()
}

// String materializes the full text. Used sparingly — callers that only
// need a slice should use Slice instead of String()[a:b].
func (r *Rope) String() string {
	var sb strings.Builder
	sb.Grow(r.Len())
	r.writeTo(&sb)
	return sb.String()
}

func (r *Rope) writeTo(sb *strings.Builder) {
	if r == nil {
		return
	}
	if r.isLeaf() {
		sb.WriteString(r.text)
		return
	}
	r.left.writeTo(sb)
	r.right.writeTo(sb)
}

// Slice returns the byte range [start, end) as a string.
func (r *Rope) Slice(start, end int) string {
	if start >= end {
		return ""
	}
	var sb strings.Builder
	sb.Grow(end - start)
	r.sliceTo(&sb, start, end)
	return sb.String()
}

func (r *Rope) sliceTo(sb *strings.Builder, start, end int) {
	if r == nil || start >= end {
		return
	}
	if r.isLeaf() {
		if start < 0 {
			start = 0
		}
		if end > len(r.text) {
			end = len(r.text)
		}
		if start < end {
			sb.WriteString(r.text[start:end])
		}
		return
	}
	if start < r.weight {
		r.left.sliceTo(sb, start, end)
	}
	if end > r.weight {
		ls, le := start-r.weight, end-r.weight
		if ls < 0 {
			ls = 0
		}
		r.right.sliceTo(sb, ls, le)
	}
}

// ByteAt returns the byte at offset i.
func (r *Rope) ByteAt(i int) byte {
	if r.isLeaf() {
		return r.text[i]
	}
	if i < r.weight {
		return r.left.ByteAt(i)
	}
	return r.right.ByteAt(i - r.weight)
}

// concat joins two ropes, dropping empty sides rather than nesting empty
// leaves.
func concat(a, b *Rope) *Rope {
	if a == nil || a.Len() == 0 {
		return b
	}
	if b == nil || b.Len() == 0 {
		return a
	}
	return &Rope{left: a, right: b, weight: a.Len()}
}

// split divides the rope into [0, at) and [at, Len()).
func (r *Rope) split(at int) (*Rope, *Rope) {
	if r == nil {
		return nil, nil
	}
	if at <= 0 {
		return nil, r
	}
	if at >= r.Len() {
		return r, nil
	}
	if r.isLeaf() {
		return New(r.text[:at]), New(r.text[at:])
	}
	if at < r.weight {
		l, rr := r.left.split(at)
		return l, concat(rr, r.right)
	}
	if at > r.weight {
		l, rr := r.right.split(at - r.weight)
		return concat(r.left, l), rr
	}
	return r.left, r.right
}

// Insert returns a new rope with s inserted at byte offset at.
func (r *Rope) Insert(at int, s string) *Rope {
	if s == "" {
		return r
	}
	left, right := r.split(at)
	return concat(concat(left, leafFor(s)), right)
}

// Delete returns a new rope with the byte range [start, end) removed.
func (r *Rope) Delete(start, end int) *Rope {
	if start >= end {
		return r
	}
	left, rest := r.split(start)
	_, right := rest.split(end - start)
	return concat(left, right)
}

func leafFor(s string) *Rope {
	if len(s) <= splitThreshold {
		return New(s)
	}
	// Break very large inserts into leaves so no single leaf dominates a
	// future split/slice walk.
	mid := len(s) / 2
	// Keep split on a rune boundary.
	for mid > 0 && !isRuneStart(s[mid]) {
		mid--
	}
	return concat(leafFor(s[:mid]), leafFor(s[mid:]))
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

// Lines splits the rope's text on '\n', keeping the separators implicit
// (each returned string excludes its trailing newline, matching
// strings.Split semantics applied to the whole text without materializing
// it more than once).
func (r *Rope) Lines() []string {
	return strings.Split(r.String(), "\n")
}
