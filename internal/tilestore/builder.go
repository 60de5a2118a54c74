package tilestore

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/karu-codes/tilesql/errors"
)

// TileSize is the number of rows packed into each tile.
const TileSize = 1000

// RowSource is a lazy row sequence: Next returns false once exhausted. It
// mirrors how the worker streams rows off a driver cursor one at a time
// without materializing the whole result set first.
type RowSource interface {
	Next() bool
	Row() []string
	Err() error
}

// Build consumes src and produces a TileStore backed by a temp file. On any
// error the partially-written temp file is removed before returning: a
// commit-or-rollback shape (defer + recover, commit on success, rollback on
// error) applied to a file instead of a database transaction — stream rows
// in, then either land a finished, header-patched file (commit) or delete
// the partial one (rollback). A batch of statements is never atomic across
// each other, so this stays a single inline helper rather than a general
// transaction type.
func Build(headers []string, src RowSource) (store *TileStore, err error) {
	f, err := os.CreateTemp("", "tilesql-*.tile")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStore, "create temp file")
	}
	path := f.Name()

	defer func() {
		if p := recover(); p != nil {
			_ = f.Close()
			_ = os.Remove(path)
			panic(p)
		}
		if err != nil {
			_ = f.Close()
			_ = os.Remove(path)
		}
	}()

	ncols := len(headers)
	bw := bufio.NewWriter(f)
	if err = writeHeader(bw, fileHeader{tileSize: TileSize, ncols: uint32(ncols)}); err != nil {
		return nil, errors.Wrap(err, errors.CodeStore, "write header")
	}

	var offsets []int64
	var rowCounts []int
	var nrows int
	offset := int64(headerSize)

	block := make([][]string, 0, TileSize)
	flush := func() error {
		if len(block) == 0 {
			return nil
		}
		n, werr := writeTileBody(bw, ncols, block)
		if werr != nil {
			return werr
		}
		offsets = append(offsets, offset)
		rowCounts = append(rowCounts, len(block))
		offset += n
		block = block[:0]
		return nil
	}

	for src.Next() {
		block = append(block, src.Row())
		nrows++
		if len(block) == TileSize {
			if err = flush(); err != nil {
				return nil, errors.Wrap(err, errors.CodeStore, "flush tile")
			}
		}
	}
	if err = src.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeStore, "read rows")
	}
	if err = flush(); err != nil {
		return nil, errors.Wrap(err, errors.CodeStore, "flush final tile")
	}

	if err = writeOffsetTable(bw, offsets); err != nil {
		return nil, errors.Wrap(err, errors.CodeStore, "write offset table")
	}
	if err = writeRowCountTable(bw, rowCounts); err != nil {
		return nil, errors.Wrap(err, errors.CodeStore, "write row-count table")
	}
	if err = bw.Flush(); err != nil {
		return nil, errors.Wrap(err, errors.CodeStore, "flush writer")
	}

	// Patch nrows/tileCount in place now that both are known.
	if err = patchHeader(f, uint32(nrows), uint32(len(offsets))); err != nil {
		return nil, errors.Wrap(err, errors.CodeStore, "patch header")
	}
	if err = f.Close(); err != nil {
		return nil, errors.Wrap(err, errors.CodeStore, "close writer")
	}

	rf, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStore, "reopen for read")
	}

	store, err = openStore(rf, path, headers, offsets, rowCounts, nrows)
	if err != nil {
		_ = rf.Close()
		return nil, err
	}
	return store, nil
}

func patchHeader(f *os.File, nrows, tileCount uint32) error {
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[0:4], nrows)
	binary.LittleEndian.PutUint32(buf[4:8], tileCount)
	if _, err := f.WriteAt(buf[:], 12); err != nil {
		return fmt.Errorf("tilestore: patch header: %w", err)
	}
	return nil
}
