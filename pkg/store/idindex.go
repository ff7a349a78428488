package store

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"sort"

	"golang.org/x/exp/mmap"

	"github.com/kasuboski/imdbidx/pkg/record"
)

const idIndexEntryWidth = record.IDLen + 8 // id + little-endian uint64 offset

type idIndexEntry struct {
	id     record.ID
	offset uint64
}

// idIndexWriter accumulates (id, offset) pairs in memory and flushes them
// sorted by id. One entry per record, so the accumulation cost is bounded
// by dataset cardinality, not record size.
type idIndexWriter struct {
	entries []idIndexEntry
}

func (w *idIndexWriter) add(id record.ID, offset uint64) {
	w.entries = append(w.entries, idIndexEntry{id: id, offset: offset})
}

func (w *idIndexWriter) writeTo(path string, magic [4]byte) error {
	sort.Slice(w.entries, func(i, j int) bool {
		return w.entries[i].id.Compare(w.entries[j].id) < 0
	})

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("store: create %s: %w", path, err)
	}
	if err := writeHeader(f, magic); err != nil {
		f.Close()
		return err
	}
	bw := bufio.NewWriterSize(f, 1<<20)
	buf := make([]byte, idIndexEntryWidth)
	for _, e := range w.entries {
		copy(buf[:record.IDLen], e.id[:])
		binary.LittleEndian.PutUint64(buf[record.IDLen:], e.offset)
		if _, err := bw.Write(buf); err != nil {
			f.Close()
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// idIndex is a memory-mapped, binary-searchable id -> offset table.
type idIndex struct {
	r *mmap.ReaderAt
}

func openIDIndex(path string, magic [4]byte) (*idIndex, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if err := checkHeader(r, path, magic); err != nil {
		r.Close()
		return nil, err
	}
	return &idIndex{r: r}, nil
}

func (x *idIndex) count() int { return (x.r.Len() - headerSize) / idIndexEntryWidth }

func (x *idIndex) at(i int) (record.ID, uint64, error) {
	var buf [idIndexEntryWidth]byte
	if _, err := x.r.ReadAt(buf[:], headerSize+int64(i)*idIndexEntryWidth); err != nil {
		return record.ID{}, 0, err
	}
	var id record.ID
	copy(id[:], buf[:record.IDLen])
	off := binary.LittleEndian.Uint64(buf[record.IDLen:])
	return id, off, nil
}

// find returns the offset of id's record, if present.
func (x *idIndex) find(id record.ID) (uint64, bool, error) {
	n := x.count()
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		midID, off, err := x.at(mid)
		if err != nil {
			return 0, false, err
		}
		switch midID.Compare(id) {
		case 0:
			return off, true, nil
		case -1:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return 0, false, nil
}

func (x *idIndex) close() error { return x.r.Close() }
