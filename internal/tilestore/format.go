package tilestore

import (
	"encoding/binary"
	"fmt"
	"io"
)

// File layout (little-endian), per spec §6:
//
//	0      magic "SNTR" (4 bytes)
//	4      tileSize   u32
//	8      ncols      u32
//	12     nrows      u32 (patched after stream end)
//	16     tileCount  u32 (patched after stream end)
//	20..   tile bodies, concatenated
//	...    offset table: tileCount x u64
//	...    row-count table: tileCount x u32
//
// Each tile body: u32 rows, u32 cols, then for each row, for each column:
// u32 len followed by len bytes of UTF-8.
const (
	magic      = "SNTR"
	headerSize = 20
)

type fileHeader struct {
	tileSize  uint32
	ncols     uint32
	nrows     uint32
	tileCount uint32
}

func writeHeader(w io.Writer, h fileHeader) error {
	var buf [headerSize]byte
	copy(buf[0:4], magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.tileSize)
	binary.LittleEndian.PutUint32(buf[8:12], h.ncols)
	binary.LittleEndian.PutUint32(buf[12:16], h.nrows)
	binary.LittleEndian.PutUint32(buf[16:20], h.tileCount)
	_, err := w.Write(buf[:])
	return err
}

func readHeader(r io.Reader) (fileHeader, error) {
	var buf [headerSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return fileHeader{}, fmt.Errorf("tilestore: read header: %w", err)
	}
	if string(buf[0:4]) != magic {
		return fileHeader{}, fmt.Errorf("tilestore: bad magic %q", buf[0:4])
	}
	return fileHeader{
		tileSize:  binary.LittleEndian.Uint32(buf[4:8]),
		ncols:     binary.LittleEndian.Uint32(buf[8:12]),
		nrows:     binary.LittleEndian.Uint32(buf[12:16]),
		tileCount: binary.LittleEndian.Uint32(buf[16:20]),
	}, nil
}

// writeTileBody serializes rows (each a slice of ncols textual cells) as one
// tile body and returns the number of bytes written.
func writeTileBody(w io.Writer, ncols int, rows [][]string) (int64, error) {
	var n int64
	var hdr [8]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(len(rows)))
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(ncols))
	if _, err := w.Write(hdr[:]); err != nil {
		return n, err
	}
	n += 8

	var lenBuf [4]byte
	for _, row := range rows {
		if len(row) != ncols {
			return n, fmt.Errorf("tilestore: row has %d cells, want %d", len(row), ncols)
		}
		for _, cell := range row {
			binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(cell)))
			if _, err := w.Write(lenBuf[:]); err != nil {
				return n, err
			}
			n += 4
			m, err := io.WriteString(w, cell)
			n += int64(m)
			if err != nil {
				return n, err
			}
		}
	}
	return n, nil
}

// readTileBody decodes a tile body from r, which must be positioned at the
// body's first byte.
func readTileBody(r io.Reader) ([][]string, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("tilestore: read tile header: %w", err)
	}
	nrows := binary.LittleEndian.Uint32(hdr[0:4])
	ncols := binary.LittleEndian.Uint32(hdr[4:8])

	rows := make([][]string, nrows)
	var lenBuf [4]byte
	for i := range rows {
		row := make([]string, ncols)
		for c := range row {
			if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
				return nil, fmt.Errorf("tilestore: read cell len: %w", err)
			}
			l := binary.LittleEndian.Uint32(lenBuf[:])
			cell := make([]byte, l)
			if _, err := io.ReadFull(r, cell); err != nil {
				return nil, fmt.Errorf("tilestore: read cell: %w", err)
			}
			row[c] = string(cell)
		}
		rows[i] = row
	}
	return rows, nil
}

func writeOffsetTable(w io.Writer, offsets []int64) error {
	buf := make([]byte, 8)
	for _, off := range offsets {
		binary.LittleEndian.PutUint64(buf, uint64(off))
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

func writeRowCountTable(w io.Writer, counts []int) error {
	buf := make([]byte, 4)
	for _, c := range counts {
		binary.LittleEndian.PutUint32(buf, uint32(c))
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}
