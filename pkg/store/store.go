package store

import "fmt"

// Store bundles memory-mapped access to every record kind in an index
// directory. The query engine never opens an individual record store
// directly; it goes through this facade.
type Store struct {
	Titles   *TitleStore
	Episodes *EpisodeStore
	Akas     *AkaStore
	Ratings  *RatingStore
	Names    *NameStore
}

// Open memory-maps every record store rooted at dir. Callers are expected
// to have already verified dir carries a READY marker.
func Open(dir string) (*Store, error) {
	titles, err := OpenTitleStore(dir)
	if err != nil {
		return nil, fmt.Errorf("store: open titles: %w", err)
	}
	episodes, err := OpenEpisodeStore(dir)
	if err != nil {
		titles.Close()
		return nil, fmt.Errorf("store: open episodes: %w", err)
	}
	akas, err := OpenAkaStore(dir)
	if err != nil {
		titles.Close()
		episodes.Close()
		return nil, fmt.Errorf("store: open akas: %w", err)
	}
	ratings, err := OpenRatingStore(dir)
	if err != nil {
		titles.Close()
		episodes.Close()
		akas.Close()
		return nil, fmt.Errorf("store: open ratings: %w", err)
	}
	names, err := OpenNameStore(dir)
	if err != nil {
		titles.Close()
		episodes.Close()
		akas.Close()
		ratings.Close()
		return nil, fmt.Errorf("store: open names: %w", err)
	}
	return &Store{Titles: titles, Episodes: episodes, Akas: akas, Ratings: ratings, Names: names}, nil
}

// Close releases every underlying memory mapping, returning the first
// error encountered while still attempting to close the rest.
func (s *Store) Close() error {
	var first error
	for _, c := range []interface{ Close() error }{s.Titles, s.Episodes, s.Akas, s.Ratings, s.Names} {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Writer bundles the append-only writers for every record kind, used by
// the ingest pipeline to populate a fresh index directory.
type Writer struct {
	Titles   *TitleWriter
	Episodes *EpisodeWriter
	Akas     *AkaWriter
	Ratings  *RatingWriter
	Names    *NameWriter
}

// NewWriter creates the five record files in dir, ready to receive writes.
func NewWriter(dir string) (*Writer, error) {
	titles, err := NewTitleWriter(dir)
	if err != nil {
		return nil, fmt.Errorf("store: create titles writer: %w", err)
	}
	episodes, err := NewEpisodeWriter(dir)
	if err != nil {
		return nil, fmt.Errorf("store: create episodes writer: %w", err)
	}
	akas, err := NewAkaWriter(dir)
	if err != nil {
		return nil, fmt.Errorf("store: create akas writer: %w", err)
	}
	ratings, err := NewRatingWriter(dir)
	if err != nil {
		return nil, fmt.Errorf("store: create ratings writer: %w", err)
	}
	names, err := NewNameWriter(dir)
	if err != nil {
		return nil, fmt.Errorf("store: create names writer: %w", err)
	}
	return &Writer{Titles: titles, Episodes: episodes, Akas: akas, Ratings: ratings, Names: names}, nil
}

// Close flushes every writer. dir must be the same directory passed to
// NewWriter.
func (w *Writer) Close(dir string) error {
	if err := w.Titles.Close(dir); err != nil {
		return fmt.Errorf("store: close titles writer: %w", err)
	}
	if err := w.Episodes.Close(dir); err != nil {
		return fmt.Errorf("store: close episodes writer: %w", err)
	}
	if err := w.Akas.Close(dir); err != nil {
		return fmt.Errorf("store: close akas writer: %w", err)
	}
	if err := w.Ratings.Close(dir); err != nil {
		return fmt.Errorf("store: close ratings writer: %w", err)
	}
	if err := w.Names.Close(); err != nil {
		return fmt.Errorf("store: close names writer: %w", err)
	}
	return nil
}
