package tilestore

import (
	"testing"
	"time"
)

func TestPrefetcherWarmsCache(t *testing.T) {
	rows := genRows(9*TileSize+1, 1)
	store, err := Build([]string{"a"}, &sliceSource{rows: rows})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer store.Close()

	p := NewPrefetcher(store)
	defer p.Close()

	p.Request(4*TileSize, 100)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := store.cache.Peek(3); ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("prefetch did not warm the expected tile in time")
}
