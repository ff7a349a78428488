package store

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"

	"golang.org/x/exp/mmap"

	"github.com/kasuboski/imdbidx/pkg/record"
)

func encodeName(n record.NameEntry) []byte {
	w := newWriter()
	w.putID(n.TitleID)
	w.putString(n.Name)
	w.putFloat32(n.ScoreBoost)
	return w.bytes()
}

func decodeName(id uint64, buf []byte) (record.NameEntry, error) {
	r := newReader(buf)
	n := record.NameEntry{ID: id}
	var err error
	if n.TitleID, err = r.getID(); err != nil {
		return n, err
	}
	if n.Name, err = r.getString(); err != nil {
		return n, err
	}
	if n.ScoreBoost, err = r.getFloat32(); err != nil {
		return n, err
	}
	return n, nil
}

const (
	namesDataFile = "names.bin"
	namesIdxFile  = "names.idx"
)

// NameWriter appends NameEntry records to a new store directory. Entries
// are assigned sequential ids starting at 0, matching the document ids the
// inverted index builder uses for postings.
type NameWriter struct {
	rf   *recordFileWriter
	idxF *os.File
	ibw  *bufio.Writer
	next uint64
}

// NewNameWriter creates names.bin in dir, ready to receive Add calls.
func NewNameWriter(dir string) (*NameWriter, error) {
	rf, err := createRecordFile(filepath.Join(dir, namesDataFile), magicNamesBin)
	if err != nil {
		return nil, err
	}
	idxF, err := os.Create(filepath.Join(dir, namesIdxFile))
	if err != nil {
		return nil, fmt.Errorf("store: create %s: %w", namesIdxFile, err)
	}
	if err := writeHeader(idxF, magicNamesIdx); err != nil {
		idxF.Close()
		return nil, err
	}
	return &NameWriter{rf: rf, idxF: idxF, ibw: bufio.NewWriterSize(idxF, 1<<20)}, nil
}

// Add appends n and returns the sequential id assigned to it.
func (w *NameWriter) Add(n record.NameEntry) (uint64, error) {
	id := w.next
	w.next++

	off, err := w.rf.append(encodeName(n))
	if err != nil {
		return 0, fmt.Errorf("store: write name entry for %s: %w", n.TitleID, err)
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], off)
	if _, err := w.ibw.Write(buf[:]); err != nil {
		return 0, err
	}
	return id, nil
}

// Close flushes names.bin and names.idx, the positional id -> offset table.
func (w *NameWriter) Close() error {
	if err := w.rf.close(); err != nil {
		return err
	}
	if err := w.ibw.Flush(); err != nil {
		return err
	}
	if err := w.idxF.Sync(); err != nil {
		return err
	}
	return w.idxF.Close()
}

// NameStore is a read-only, memory-mapped view over a name-entry store
// directory.
type NameStore struct {
	rf  *recordFile
	idx *mmap.ReaderAt
}

// OpenNameStore memory-maps an existing name-entry store.
func OpenNameStore(dir string) (*NameStore, error) {
	rf, err := openRecordFile(filepath.Join(dir, namesDataFile), magicNamesBin)
	if err != nil {
		return nil, err
	}
	idx, err := mmap.Open(filepath.Join(dir, namesIdxFile))
	if err != nil {
		rf.close()
		return nil, fmt.Errorf("store: open %s: %w", namesIdxFile, err)
	}
	if err := checkHeader(idx, namesIdxFile, magicNamesIdx); err != nil {
		rf.close()
		idx.Close()
		return nil, err
	}
	return &NameStore{rf: rf, idx: idx}, nil
}

// Count returns the number of name entries in the store.
func (s *NameStore) Count() int { return (s.idx.Len() - headerSize) / 8 }

// Get returns the name entry assigned id, or ErrNotFound if id is out of
// range.
func (s *NameStore) Get(id uint64) (record.NameEntry, error) {
	if int(id) >= s.Count() {
		return record.NameEntry{}, ErrNotFound
	}
	var buf [8]byte
	if _, err := s.idx.ReadAt(buf[:], headerSize+int64(id)*8); err != nil && err != io.EOF {
		return record.NameEntry{}, err
	}
	off := binary.LittleEndian.Uint64(buf[:])
	payload, err := s.rf.readAt(off)
	if err != nil {
		return record.NameEntry{}, err
	}
	return decodeName(id, payload)
}

// All iterates every stored name entry in ascending id order, matching the
// document ids the inverted index builder assigns as postings.
func (s *NameStore) All() iter.Seq[record.NameEntry] {
	return func(yield func(record.NameEntry) bool) {
		var id uint64
		for _, buf := range s.rf.all() {
			n, err := decodeName(id, buf)
			id++
			if err != nil {
				continue
			}
			if !yield(n) {
				return
			}
		}
	}
}

// Close releases the store's memory mappings.
func (s *NameStore) Close() error {
	err1 := s.rf.close()
	err2 := s.idx.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
