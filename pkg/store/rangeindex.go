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

// rangeIndexEntryWidth lays out groupID (the parent id), two secondary sort
// keys, and the offset of the owned record. Episodes group by show id and
// sort by (season, episode); alternate names group by title id and sort by
// (arrival order within the title, 0).
const rangeIndexEntryWidth = record.IDLen + 4 + 4 + 8

type rangeIndexEntry struct {
	group  record.ID
	sortA  uint32
	sortB  uint32
	offset uint64
}

type rangeIndexWriter struct {
	entries []rangeIndexEntry
}

func (w *rangeIndexWriter) add(group record.ID, sortA, sortB uint32, offset uint64) {
	w.entries = append(w.entries, rangeIndexEntry{group: group, sortA: sortA, sortB: sortB, offset: offset})
}

func (w *rangeIndexWriter) writeTo(path string, magic [4]byte) error {
	sort.Slice(w.entries, func(i, j int) bool {
		a, b := w.entries[i], w.entries[j]
		if c := a.group.Compare(b.group); c != 0 {
			return c < 0
		}
		if a.sortA != b.sortA {
			return a.sortA < b.sortA
		}
		return a.sortB < b.sortB
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
	buf := make([]byte, rangeIndexEntryWidth)
	for _, e := range w.entries {
		copy(buf[:record.IDLen], e.group[:])
		binary.LittleEndian.PutUint32(buf[record.IDLen:], e.sortA)
		binary.LittleEndian.PutUint32(buf[record.IDLen+4:], e.sortB)
		binary.LittleEndian.PutUint64(buf[record.IDLen+8:], e.offset)
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

// rangeIndex is a memory-mapped table supporting "all entries for group"
// scans via binary search to the group's lower bound followed by a forward
// scan, since the file is sorted by (group, sortA, sortB).
type rangeIndex struct {
	r *mmap.ReaderAt
}

func openRangeIndex(path string, magic [4]byte) (*rangeIndex, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if err := checkHeader(r, path, magic); err != nil {
		r.Close()
		return nil, err
	}
	return &rangeIndex{r: r}, nil
}

func (x *rangeIndex) count() int { return (x.r.Len() - headerSize) / rangeIndexEntryWidth }

func (x *rangeIndex) at(i int) (rangeIndexEntry, error) {
	var buf [rangeIndexEntryWidth]byte
	if _, err := x.r.ReadAt(buf[:], headerSize+int64(i)*rangeIndexEntryWidth); err != nil {
		return rangeIndexEntry{}, err
	}
	var e rangeIndexEntry
	copy(e.group[:], buf[:record.IDLen])
	e.sortA = binary.LittleEndian.Uint32(buf[record.IDLen:])
	e.sortB = binary.LittleEndian.Uint32(buf[record.IDLen+4:])
	e.offset = binary.LittleEndian.Uint64(buf[record.IDLen+8:])
	return e, nil
}

// forGroup returns the offsets belonging to group, in (sortA, sortB) order.
func (x *rangeIndex) forGroup(group record.ID) ([]uint64, error) {
	n := x.count()
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		e, err := x.at(mid)
		if err != nil {
			return nil, err
		}
		if e.group.Compare(group) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	var offsets []uint64
	for i := lo; i < n; i++ {
		e, err := x.at(i)
		if err != nil {
			return nil, err
		}
		if e.group.Compare(group) != 0 {
			break
		}
		offsets = append(offsets, e.offset)
	}
	return offsets, nil
}

func (x *rangeIndex) close() error { return x.r.Close() }

// noSortKey is used for indexes with only one meaningful sort dimension.
const noSortKey uint32 = 0

// sentinelUnset stands in for an unset season/episode number, so
// unnumbered episodes sort after every numbered one.
const sentinelUnset uint32 = 0xFFFFFFFF

func sortKeyFromOptional(v *uint32) uint32 {
	if v == nil {
		return sentinelUnset
	}
	return *v
}
