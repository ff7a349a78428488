package store

import (
	"fmt"
	"iter"
	"path/filepath"

	"github.com/kasuboski/imdbidx/pkg/record"
)

func encodeTitle(t record.Title) []byte {
	w := newWriter()
	w.putID(t.ID)
	w.putString(string(t.Kind))
	w.putString(t.PrimaryName)
	w.putString(t.OriginalName)
	w.putBool(t.IsAdult)
	w.putOptU16(t.StartYear)
	w.putOptU16(t.EndYear)
	w.putOptU32(t.RuntimeMinutes)
	w.putStringSlice(t.Genres)
	return w.bytes()
}

func decodeTitle(buf []byte) (record.Title, error) {
	r := newReader(buf)
	var t record.Title
	var err error
	if t.ID, err = r.getID(); err != nil {
		return t, err
	}
	kind, err := r.getString()
	if err != nil {
		return t, err
	}
	t.Kind = record.Kind(kind)
	if t.PrimaryName, err = r.getString(); err != nil {
		return t, err
	}
	if t.OriginalName, err = r.getString(); err != nil {
		return t, err
	}
	if t.IsAdult, err = r.getBool(); err != nil {
		return t, err
	}
	if t.StartYear, err = r.getOptU16(); err != nil {
		return t, err
	}
	if t.EndYear, err = r.getOptU16(); err != nil {
		return t, err
	}
	if t.RuntimeMinutes, err = r.getOptU32(); err != nil {
		return t, err
	}
	if t.Genres, err = r.getStringSlice(); err != nil {
		return t, err
	}
	return t, nil
}

const (
	titlesDataFile = "titles.bin"
	titlesIdxFile  = "titles.idx"
)

// TitleWriter appends Title records to a new store directory.
type TitleWriter struct {
	rf  *recordFileWriter
	idx idIndexWriter
}

// NewTitleWriter creates titles.bin in dir, ready to receive Add calls.
func NewTitleWriter(dir string) (*TitleWriter, error) {
	rf, err := createRecordFile(filepath.Join(dir, titlesDataFile), magicTitlesBin)
	if err != nil {
		return nil, err
	}
	return &TitleWriter{rf: rf}, nil
}

// Add appends t and records its id for the sorted index built on Close.
func (w *TitleWriter) Add(t record.Title) error {
	off, err := w.rf.append(encodeTitle(t))
	if err != nil {
		return fmt.Errorf("store: write title %s: %w", t.ID, err)
	}
	w.idx.add(t.ID, off)
	return nil
}

// Close flushes titles.bin and writes the sorted titles.idx alongside it.
func (w *TitleWriter) Close(dir string) error {
	if err := w.rf.close(); err != nil {
		return err
	}
	return w.idx.writeTo(filepath.Join(dir, titlesIdxFile), magicTitlesIdx)
}

// TitleStore is a read-only, memory-mapped view over a title store
// directory.
type TitleStore struct {
	rf  *recordFile
	idx *idIndex
}

// OpenTitleStore memory-maps an existing title store.
func OpenTitleStore(dir string) (*TitleStore, error) {
	rf, err := openRecordFile(filepath.Join(dir, titlesDataFile), magicTitlesBin)
	if err != nil {
		return nil, err
	}
	idx, err := openIDIndex(filepath.Join(dir, titlesIdxFile), magicTitlesIdx)
	if err != nil {
		rf.close()
		return nil, err
	}
	return &TitleStore{rf: rf, idx: idx}, nil
}

// Get returns the title with the given id, or ErrNotFound.
func (s *TitleStore) Get(id record.ID) (record.Title, error) {
	off, ok, err := s.idx.find(id)
	if err != nil {
		return record.Title{}, err
	}
	if !ok {
		return record.Title{}, ErrNotFound
	}
	buf, err := s.rf.readAt(off)
	if err != nil {
		return record.Title{}, err
	}
	return decodeTitle(buf)
}

// All iterates every stored title in ingest order.
func (s *TitleStore) All() iter.Seq[record.Title] {
	return func(yield func(record.Title) bool) {
		for _, buf := range s.rf.all() {
			t, err := decodeTitle(buf)
			if err != nil {
				continue
			}
			if !yield(t) {
				return
			}
		}
	}
}

// Close releases the store's memory mappings.
func (s *TitleStore) Close() error {
	err1 := s.rf.close()
	err2 := s.idx.close()
	if err1 != nil {
		return err1
	}
	return err2
}
