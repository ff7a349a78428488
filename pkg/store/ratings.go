package store

import (
	"fmt"
	"iter"
	"path/filepath"

	"github.com/kasuboski/imdbidx/pkg/record"
)

func encodeRating(rt record.Rating) []byte {
	w := newWriter()
	w.putID(rt.ID)
	w.putFloat32(rt.Rating)
	w.putUint32(rt.Votes)
	return w.bytes()
}

func decodeRating(buf []byte) (record.Rating, error) {
	r := newReader(buf)
	var rt record.Rating
	var err error
	if rt.ID, err = r.getID(); err != nil {
		return rt, err
	}
	if rt.Rating, err = r.getFloat32(); err != nil {
		return rt, err
	}
	if rt.Votes, err = r.getUint32(); err != nil {
		return rt, err
	}
	return rt, nil
}

const (
	ratingsDataFile = "ratings.bin"
	ratingsIdxFile  = "ratings.idx"
)

// RatingWriter appends Rating records to a new store directory.
type RatingWriter struct {
	rf  *recordFileWriter
	idx idIndexWriter
}

// NewRatingWriter creates ratings.bin in dir, ready to receive Add calls.
func NewRatingWriter(dir string) (*RatingWriter, error) {
	rf, err := createRecordFile(filepath.Join(dir, ratingsDataFile), magicRatingsBin)
	if err != nil {
		return nil, err
	}
	return &RatingWriter{rf: rf}, nil
}

// Add appends rt and records its id for the sorted index built on Close.
func (w *RatingWriter) Add(rt record.Rating) error {
	off, err := w.rf.append(encodeRating(rt))
	if err != nil {
		return fmt.Errorf("store: write rating %s: %w", rt.ID, err)
	}
	w.idx.add(rt.ID, off)
	return nil
}

// Close flushes ratings.bin and writes the sorted ratings.idx alongside it.
func (w *RatingWriter) Close(dir string) error {
	if err := w.rf.close(); err != nil {
		return err
	}
	return w.idx.writeTo(filepath.Join(dir, ratingsIdxFile), magicRatingsIdx)
}

// RatingStore is a read-only, memory-mapped view over a rating store
// directory.
type RatingStore struct {
	rf  *recordFile
	idx *idIndex
}

// OpenRatingStore memory-maps an existing rating store.
func OpenRatingStore(dir string) (*RatingStore, error) {
	rf, err := openRecordFile(filepath.Join(dir, ratingsDataFile), magicRatingsBin)
	if err != nil {
		return nil, err
	}
	idx, err := openIDIndex(filepath.Join(dir, ratingsIdxFile), magicRatingsIdx)
	if err != nil {
		rf.close()
		return nil, err
	}
	return &RatingStore{rf: rf, idx: idx}, nil
}

// Get returns the rating for id, or ErrNotFound.
func (s *RatingStore) Get(id record.ID) (record.Rating, error) {
	off, ok, err := s.idx.find(id)
	if err != nil {
		return record.Rating{}, err
	}
	if !ok {
		return record.Rating{}, ErrNotFound
	}
	buf, err := s.rf.readAt(off)
	if err != nil {
		return record.Rating{}, err
	}
	return decodeRating(buf)
}

// All iterates every stored rating in ingest order.
func (s *RatingStore) All() iter.Seq[record.Rating] {
	return func(yield func(record.Rating) bool) {
		for _, buf := range s.rf.all() {
			rt, err := decodeRating(buf)
			if err != nil {
				continue
			}
			if !yield(rt) {
				return
			}
		}
	}
}

// Close releases the store's memory mappings.
func (s *RatingStore) Close() error {
	err1 := s.rf.close()
	err2 := s.idx.close()
	if err1 != nil {
		return err1
	}
	return err2
}
