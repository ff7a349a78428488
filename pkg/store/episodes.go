package store

import (
	"fmt"
	"iter"
	"path/filepath"

	"github.com/kasuboski/imdbidx/pkg/record"
)

func encodeEpisode(e record.Episode) []byte {
	w := newWriter()
	w.putID(e.ID)
	w.putID(e.ShowID)
	w.putOptU32(e.Season)
	w.putOptU32(e.Episode)
	return w.bytes()
}

func decodeEpisode(buf []byte) (record.Episode, error) {
	r := newReader(buf)
	var e record.Episode
	var err error
	if e.ID, err = r.getID(); err != nil {
		return e, err
	}
	if e.ShowID, err = r.getID(); err != nil {
		return e, err
	}
	if e.Season, err = r.getOptU32(); err != nil {
		return e, err
	}
	if e.Episode, err = r.getOptU32(); err != nil {
		return e, err
	}
	return e, nil
}

const (
	episodesDataFile   = "episodes.bin"
	episodesIdxFile    = "episodes.idx"
	episodesByShowFile = "episodes.byshow.idx"
)

// EpisodeWriter appends Episode records to a new store directory, indexing
// them both by their own id and by (show id, season, episode).
type EpisodeWriter struct {
	rf      *recordFileWriter
	idx     idIndexWriter
	byShow  rangeIndexWriter
}

// NewEpisodeWriter creates episodes.bin in dir, ready to receive Add calls.
func NewEpisodeWriter(dir string) (*EpisodeWriter, error) {
	rf, err := createRecordFile(filepath.Join(dir, episodesDataFile), magicEpisodesBin)
	if err != nil {
		return nil, err
	}
	return &EpisodeWriter{rf: rf}, nil
}

// Add appends e and records it in both indexes built on Close.
func (w *EpisodeWriter) Add(e record.Episode) error {
	off, err := w.rf.append(encodeEpisode(e))
	if err != nil {
		return fmt.Errorf("store: write episode %s: %w", e.ID, err)
	}
	w.idx.add(e.ID, off)
	w.byShow.add(e.ShowID, sortKeyFromOptional(e.Season), sortKeyFromOptional(e.Episode), off)
	return nil
}

// Close flushes episodes.bin and writes both sorted index files.
func (w *EpisodeWriter) Close(dir string) error {
	if err := w.rf.close(); err != nil {
		return err
	}
	if err := w.idx.writeTo(filepath.Join(dir, episodesIdxFile), magicEpisodesIdx); err != nil {
		return err
	}
	return w.byShow.writeTo(filepath.Join(dir, episodesByShowFile), magicByShowIdx)
}

// EpisodeStore is a read-only, memory-mapped view over an episode store
// directory.
type EpisodeStore struct {
	rf     *recordFile
	idx    *idIndex
	byShow *rangeIndex
}

// OpenEpisodeStore memory-maps an existing episode store.
func OpenEpisodeStore(dir string) (*EpisodeStore, error) {
	rf, err := openRecordFile(filepath.Join(dir, episodesDataFile), magicEpisodesBin)
	if err != nil {
		return nil, err
	}
	idx, err := openIDIndex(filepath.Join(dir, episodesIdxFile), magicEpisodesIdx)
	if err != nil {
		rf.close()
		return nil, err
	}
	byShow, err := openRangeIndex(filepath.Join(dir, episodesByShowFile), magicByShowIdx)
	if err != nil {
		rf.close()
		idx.close()
		return nil, err
	}
	return &EpisodeStore{rf: rf, idx: idx, byShow: byShow}, nil
}

// Get returns the episode with the given id, or ErrNotFound.
func (s *EpisodeStore) Get(id record.ID) (record.Episode, error) {
	off, ok, err := s.idx.find(id)
	if err != nil {
		return record.Episode{}, err
	}
	if !ok {
		return record.Episode{}, ErrNotFound
	}
	buf, err := s.rf.readAt(off)
	if err != nil {
		return record.Episode{}, err
	}
	return decodeEpisode(buf)
}

// Of returns every episode of showID, ordered by season then episode number
// with unnumbered episodes sorted last.
func (s *EpisodeStore) Of(showID record.ID) ([]record.Episode, error) {
	offsets, err := s.byShow.forGroup(showID)
	if err != nil {
		return nil, err
	}
	out := make([]record.Episode, 0, len(offsets))
	for _, off := range offsets {
		buf, err := s.rf.readAt(off)
		if err != nil {
			return nil, err
		}
		e, err := decodeEpisode(buf)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// All iterates every stored episode in ingest order.
func (s *EpisodeStore) All() iter.Seq[record.Episode] {
	return func(yield func(record.Episode) bool) {
		for _, buf := range s.rf.all() {
			e, err := decodeEpisode(buf)
			if err != nil {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

// Close releases the store's memory mappings.
func (s *EpisodeStore) Close() error {
	err1 := s.rf.close()
	err2 := s.idx.close()
	err3 := s.byShow.close()
	for _, err := range []error{err1, err2, err3} {
		if err != nil {
			return err
		}
	}
	return nil
}
