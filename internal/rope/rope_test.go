package rope

import "testing"

func TestRopeInsertDelete(t *testing.T) {
	r := New("hello world")
	r = r.Insert(5, ",")
	if got := r.String(); got != "hello, world" {
		t.Fatalf("got %q", got)
	}
	r = r.Delete(5, 6)
	if got := r.String(); got != "hello world" {
		t.Fatalf("got %q", got)
	}
}

func TestRopeSlice(t *testing.T) {
	r := New("SELECT 1")
	if got := r.Slice(0, 6); got != "SELECT" {
		t.Fatalf("got %q", got)
	}
	if got := r.Slice(7, 8); got != "1" {
		t.Fatalf("got %q", got)
	}
}

func TestRopeLargeInsertSplitsLeaves(t *testing.T) {
	big := make([]byte, splitThreshold*3)
	for i := range big {
		big[i] = 'a'
	}
	r := New("")
	r = r.Insert(0, string(big))
	if r.Len() != len(big) {
		t.Fatalf("expected len %d, got %d", len(big), r.Len())
	}
	if r.String() != string(big) {
		t.Fatal("round trip mismatch")
	}
}

func TestRopeManyEditsConverge(t *testing.T) {
	r := New("")
	want := ""
	ops := []struct {
		pos int
		ins string
		del int
	}{
		{0, "abc", 0},
		{3, "def", 0},
		{1, "", 2},
		{0, "X", 0},
	}
	for _, op := range ops {
		if op.ins != "" {
			r = r.Insert(op.pos, op.ins)
			want = want[:op.pos] + op.ins + want[op.pos:]
		}
		if op.del > 0 {
			r = r.Delete(op.pos, op.pos+op.del)
			want = want[:op.pos] + want[op.pos+op.del:]
		}
	}
	if r.String() != want {
		t.Fatalf("got %q want %q", r.String(), want)
	}
}
