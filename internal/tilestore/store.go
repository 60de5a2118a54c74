// Package tilestore implements the tile-paged result store: result rows are
// streamed through a temp file in TileSize-row tiles and served back through
// a bounded in-memory tile cache with the first and last tile pinned.
package tilestore

import (
	"os"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/karu-codes/tilesql/errors"
)

// LRUCapacity is the number of non-pinned tiles kept resident.
const LRUCapacity = 6

// tile is an immutable, shareable row block. Multiple readers (and the
// pinned-slot / LRU slot referencing it) share the same backing slice —
// never copied on cache hit or eviction.
type tile struct {
	rows [][]string
}

// TileStore owns one temp file and the index describing how result rows are
// laid out within it. GetRows is called from the UI goroutine; PrefetchForView
// may run concurrently from the background Prefetcher goroutine. fileMu
// serializes the seek-then-read pair against the shared file descriptor so
// the two can safely overlap — the LRU cache is already internally
// synchronized, and first/last are set once in openStore before any
// goroutine other than the creator can observe the TileStore.
type TileStore struct {
	f       *os.File
	fileMu  sync.Mutex
	path    string
	headers []string
	ncols   int
	nrows   int

	offsets   []int64
	rowCounts []int

	first *tile // pinned tile 0
	last  *tile // pinned tile T-1 (same as first when T==1)

	cache *lru.Cache[int, *tile]

	closeOnce sync.Once
	closeErr  error
}

func openStore(f *os.File, path string, headers []string, offsets []int64, rowCounts []int, nrows int) (*TileStore, error) {
	cache, err := lru.New[int, *tile](LRUCapacity)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStore, "create tile cache")
	}
	s := &TileStore{
		f:         f,
		path:      path,
		headers:   headers,
		ncols:     len(headers),
		nrows:     nrows,
		offsets:   offsets,
		rowCounts: rowCounts,
		cache:     cache,
	}
	if len(offsets) > 0 {
		first, err := s.loadTile(0)
		if err != nil {
			return nil, err
		}
		s.first = first
		last, err := s.loadTile(len(offsets) - 1)
		if err != nil {
			return nil, err
		}
		s.last = last
	}
	return s, nil
}

// Headers returns the result's column names.
func (s *TileStore) Headers() []string { return s.headers }

// NumRows returns the total row count.
func (s *TileStore) NumRows() int { return s.nrows }

// TileCount returns the number of tiles.
func (s *TileStore) TileCount() int { return len(s.offsets) }

func (s *TileStore) loadTile(idx int) (*tile, error) {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	if _, err := s.f.Seek(s.offsets[idx], 0); err != nil {
		return nil, errors.Wrap(err, errors.CodeStore, "seek tile")
	}
	rows, err := readTileBody(s.f)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStore, "read tile")
	}
	return &tile{rows: rows}, nil
}

// resolveTile resolves a tile index to its rows: pinned first/last tiles
// are O(1) with no I/O; everything else goes through the LRU, loading from
// disk on miss.
func (s *TileStore) resolveTile(idx int) (*tile, error) {
	last := len(s.offsets) - 1
	switch {
	case idx == 0 && s.first != nil:
		return s.first, nil
	case idx == last && s.last != nil:
		return s.last, nil
	}
	if t, ok := s.cache.Get(idx); ok {
		return t, nil
	}
	t, err := s.loadTile(idx)
	if err != nil {
		return nil, err
	}
	if idx != 0 && idx != last {
		s.cache.Add(idx, t)
	}
	return t, nil
}

// GetRows returns up to count rows starting at logical row start.
func (s *TileStore) GetRows(start, count int) ([][]string, error) {
	if start >= s.nrows || count <= 0 {
		return nil, nil
	}
	end := start + count
	if end > s.nrows {
		end = s.nrows
	}

	out := make([][]string, 0, end-start)
	tileIdx := start / TileSize
	for row := start; row < end; {
		t, err := s.resolveTile(tileIdx)
		if err != nil {
			return nil, err
		}
		tileStart := tileIdx * TileSize
		localStart := row - tileStart
		localEnd := len(t.rows)
		if tileStart+localEnd > end {
			localEnd = end - tileStart
		}
		out = append(out, t.rows[localStart:localEnd]...)
		row = tileStart + localEnd
		tileIdx++
	}
	return out, nil
}

// PrefetchForView warms the LRU for the tile range the next paint will need.
func (s *TileStore) PrefetchForView(viewRow, maxRows int) error {
	if len(s.offsets) == 0 {
		return nil
	}
	lo := viewRow/TileSize - 1
	hi := (viewRow+maxRows-1)/TileSize + 1
	if lo < 0 {
		lo = 0
	}
	if last := len(s.offsets) - 1; hi > last {
		hi = last
	}
	for i := lo; i <= hi; i++ {
		if _, err := s.resolveTile(i); err != nil {
			return err
		}
	}
	return nil
}

// Close deletes the backing temp file exactly once.
func (s *TileStore) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.f.Close()
		if rmErr := os.Remove(s.path); rmErr != nil && s.closeErr == nil {
			s.closeErr = rmErr
		}
	})
	return s.closeErr
}
