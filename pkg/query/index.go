// Package query exposes the public API the core presents to callers
// (§6): opening a built index directory, running ranked searches against
// it, and resolving records by id. It never logs or panics; every failure
// is a structured *Error.
package query

import (
	"fmt"
	"iter"

	"github.com/kasuboski/imdbidx/pkg/cache"
	"github.com/kasuboski/imdbidx/pkg/filename"
	"github.com/kasuboski/imdbidx/pkg/invindex"
	"github.com/kasuboski/imdbidx/pkg/record"
	"github.com/kasuboski/imdbidx/pkg/store"
)

// Index is an opened, read-only handle on an index directory: every
// memory mapping, the underlying record stores, and the query defaults
// it was opened with. It owns every resource it maps; Close releases all
// of them.
type Index struct {
	store    *store.Store
	inv      *invindex.Index
	cfg      IndexConfig
	defaults QueryDefaults
	titles   *cache.Cache[record.ID, record.Title]
}

// Open memory-maps dir's record stores and inverted index, refusing a
// directory lacking the READY marker or carrying a bad config.toml.
func Open(dir string) (*Index, error) {
	if !invindex.IsReady(dir) {
		return nil, newErr("open", KindIndexIncomplete, invindex.ErrIndexIncomplete)
	}

	cfg, err := readIndexConfig(dir)
	if err != nil {
		return nil, newErr("open", classify(err), err)
	}

	st, err := store.Open(dir)
	if err != nil {
		return nil, newErr("open", classify(err), err)
	}

	inv, err := invindex.Open(dir)
	if err != nil {
		st.Close()
		return nil, newErr("open", classify(err), err)
	}

	return &Index{
		store:    st,
		inv:      inv,
		cfg:      cfg,
		defaults: DefaultQueryDefaults(),
		titles:   cache.New[record.ID, record.Title](),
	}, nil
}

// Close releases every memory mapping the index holds.
func (ix *Index) Close() error {
	err1 := ix.inv.Close()
	err2 := ix.store.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// SetDefaults overrides the per-query defaults a Query omits, e.g. from a
// front-end's own configuration layer.
func (ix *Index) SetDefaults(d QueryDefaults) { ix.defaults = d }

// Title resolves a title id to its record, memoizing hits so repeated
// lookups of the same title across Search calls skip the mmap read.
func (ix *Index) Title(id record.ID) (record.Title, error) {
	if t, ok := ix.titles.Get(id); ok {
		return t, nil
	}
	t, err := ix.store.Titles.Get(id)
	if err != nil {
		return t, newErr("title", classify(err), err)
	}
	ix.titles.Set(id, t)
	return t, nil
}

// EpisodesOf lazily lists every episode of a series, in the record
// store's secondary (tvshow_id, season, episode) order.
func (ix *Index) EpisodesOf(seriesID record.ID) iter.Seq[record.Episode] {
	episodes, err := ix.store.Episodes.Of(seriesID)
	if err != nil {
		return func(yield func(record.Episode) bool) {}
	}
	return func(yield func(record.Episode) bool) {
		for _, e := range episodes {
			if !yield(e) {
				return
			}
		}
	}
}

// Episode resolves one series' (season, episode) pair to its title
// record.
func (ix *Index) Episode(seriesID record.ID, season, episode uint32) (record.Title, error) {
	episodes, err := ix.store.Episodes.Of(seriesID)
	if err != nil {
		return record.Title{}, newErr("episode", classify(err), err)
	}
	for _, e := range episodes {
		if e.Season != nil && e.Episode != nil && *e.Season == season && *e.Episode == episode {
			t, err := ix.store.Titles.Get(e.ID)
			if err != nil {
				return t, newErr("episode", classify(err), err)
			}
			return t, nil
		}
	}
	return record.Title{}, newErr("episode", KindNotFound, store.ErrNotFound)
}

// Rating resolves a title id to its aggregate rating.
func (ix *Index) Rating(id record.ID) (record.Rating, error) {
	r, err := ix.store.Ratings.Get(id)
	if err != nil {
		return r, newErr("rating", classify(err), err)
	}
	return r, nil
}

// InterpretFilename extracts search hints from a filesystem path (§4.9).
// It performs no lookups itself; chain the result into a Query or into
// Episode when Hints.Season/Episode are set.
func (ix *Index) InterpretFilename(path string) filename.Hints {
	return filename.Interpret(path)
}

// IndexStats summarizes an opened index directory, the numbers `cmd
// stats` reports back to its operator after a build.
type IndexStats struct {
	NGramSize      int
	BuildTimestamp string
	SourceHash     string
	NumDocs        int
	AvgDocLen      float64
}

// Stats reports the collection statistics and build metadata of the
// opened index.
func (ix *Index) Stats() IndexStats {
	numDocs, avgLen := ix.inv.CollectionStats()
	return IndexStats{
		NGramSize:      ix.cfg.NGramSize,
		BuildTimestamp: ix.cfg.BuildTimestamp,
		SourceHash:     ix.cfg.SourceHash,
		NumDocs:        numDocs,
		AvgDocLen:      avgLen,
	}
}

func (ix *Index) nameEntryTitle(nameID uint64) (record.NameEntry, error) {
	n, err := ix.store.Names.Get(nameID)
	if err != nil {
		return n, fmt.Errorf("query: resolve name entry %d: %w", nameID, err)
	}
	return n, nil
}
