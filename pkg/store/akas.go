package store

import (
	"fmt"
	"iter"
	"path/filepath"

	"github.com/kasuboski/imdbidx/pkg/record"
)

func encodeAka(a record.AlternateName) []byte {
	w := newWriter()
	w.putID(a.TitleID)
	w.putString(a.Name)
	w.putString(a.Region)
	w.putString(a.Language)
	w.putStringSlice(a.Attributes)
	w.putBool(a.IsOriginal)
	return w.bytes()
}

func decodeAka(buf []byte) (record.AlternateName, error) {
	r := newReader(buf)
	var a record.AlternateName
	var err error
	if a.TitleID, err = r.getID(); err != nil {
		return a, err
	}
	if a.Name, err = r.getString(); err != nil {
		return a, err
	}
	if a.Region, err = r.getString(); err != nil {
		return a, err
	}
	if a.Language, err = r.getString(); err != nil {
		return a, err
	}
	if a.Attributes, err = r.getStringSlice(); err != nil {
		return a, err
	}
	if a.IsOriginal, err = r.getBool(); err != nil {
		return a, err
	}
	return a, nil
}

const (
	akasDataFile    = "akas.bin"
	akasByTitleFile = "akas.idx"
)

// AkaWriter appends AlternateName records to a new store directory, indexed
// by their owning title in ingest order.
type AkaWriter struct {
	rf       *recordFileWriter
	byTitle  rangeIndexWriter
	ordinals map[record.ID]uint32
}

// NewAkaWriter creates akas.bin in dir, ready to receive Add calls.
func NewAkaWriter(dir string) (*AkaWriter, error) {
	rf, err := createRecordFile(filepath.Join(dir, akasDataFile), magicAkasBin)
	if err != nil {
		return nil, err
	}
	return &AkaWriter{rf: rf, ordinals: make(map[record.ID]uint32)}, nil
}

// Add appends a, preserving the order alternate names arrive in per title.
func (w *AkaWriter) Add(a record.AlternateName) error {
	off, err := w.rf.append(encodeAka(a))
	if err != nil {
		return fmt.Errorf("store: write aka for %s: %w", a.TitleID, err)
	}
	ord := w.ordinals[a.TitleID]
	w.ordinals[a.TitleID] = ord + 1
	w.byTitle.add(a.TitleID, ord, noSortKey, off)
	return nil
}

// Close flushes akas.bin and writes the sorted by-title index.
func (w *AkaWriter) Close(dir string) error {
	if err := w.rf.close(); err != nil {
		return err
	}
	return w.byTitle.writeTo(filepath.Join(dir, akasByTitleFile), magicAkasIdx)
}

// AkaStore is a read-only, memory-mapped view over an alternate-name store
// directory.
type AkaStore struct {
	rf      *recordFile
	byTitle *rangeIndex
}

// OpenAkaStore memory-maps an existing alternate-name store.
func OpenAkaStore(dir string) (*AkaStore, error) {
	rf, err := openRecordFile(filepath.Join(dir, akasDataFile), magicAkasBin)
	if err != nil {
		return nil, err
	}
	byTitle, err := openRangeIndex(filepath.Join(dir, akasByTitleFile), magicAkasIdx)
	if err != nil {
		rf.close()
		return nil, err
	}
	return &AkaStore{rf: rf, byTitle: byTitle}, nil
}

// Of returns every alternate name for titleID, in their original order.
func (s *AkaStore) Of(titleID record.ID) ([]record.AlternateName, error) {
	offsets, err := s.byTitle.forGroup(titleID)
	if err != nil {
		return nil, err
	}
	out := make([]record.AlternateName, 0, len(offsets))
	for _, off := range offsets {
		buf, err := s.rf.readAt(off)
		if err != nil {
			return nil, err
		}
		a, err := decodeAka(buf)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// All iterates every stored alternate name in ingest order.
func (s *AkaStore) All() iter.Seq[record.AlternateName] {
	return func(yield func(record.AlternateName) bool) {
		for _, buf := range s.rf.all() {
			a, err := decodeAka(buf)
			if err != nil {
				continue
			}
			if !yield(a) {
				return
			}
		}
	}
}

// Close releases the store's memory mappings.
func (s *AkaStore) Close() error {
	err1 := s.rf.close()
	err2 := s.byTitle.close()
	if err1 != nil {
		return err1
	}
	return err2
}
