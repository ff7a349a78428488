// Package ingest drives one end-to-end index build: parsing IMDb's TSV
// sources, populating the record stores, deriving NameEntries, building
// the inverted index, and finally publishing config.toml and the READY
// marker that makes the directory visible to readers.
package ingest

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/kasuboski/imdbidx/pkg/invindex"
	"github.com/kasuboski/imdbidx/pkg/machine"
	"github.com/kasuboski/imdbidx/pkg/query"
	"github.com/kasuboski/imdbidx/pkg/record"
	"github.com/kasuboski/imdbidx/pkg/store"
)

// buildState enumerates the phases one ingest run passes through, in
// order. Run advances through them one at a time, and a transition is
// only taken if buildTransitions allows it — a defense against a future
// refactor silently reordering the pipeline (e.g. publishing READY before
// the inverted index is built).
type buildState string

const (
	stateInit          buildState = "init"
	stateStoresWritten buildState = "stores_written"
	stateIndexBuilt    buildState = "index_built"
	stateConfigWritten buildState = "config_written"
	stateReady         buildState = "ready"
)

var buildTransitions = []machine.Allowable[buildState]{
	machine.From(stateInit).To(stateStoresWritten),
	machine.From(stateStoresWritten).To(stateIndexBuilt),
	machine.From(stateIndexBuilt).To(stateConfigWritten),
	machine.From(stateConfigWritten).To(stateReady),
}

// advance checks that from -> to is a legal step in the ingest pipeline
// and returns to if so.
func advance(from, to buildState) (buildState, error) {
	m := machine.New(from, buildTransitions...)
	if err := m.ToState(to); err != nil {
		return from, fmt.Errorf("ingest: %w: %s -> %s (allowed: %v)", err, from, to, m.Allowed())
	}
	return to, nil
}

// RejectWriter adapts an io.Writer into a record.RejectSink, writing one
// TSV line per rejected row (row number, reason, offending line) — the
// side channel spec §4.1 requires for malformed rows, rather than only
// logging them.
type RejectWriter struct {
	w      io.Writer
	source string
}

// NewRejectWriter wraps w, tagging every row it writes with source (e.g.
// "titles", "episodes") so a caller tailing one combined reject stream
// can tell which TSV a row came from.
func NewRejectWriter(w io.Writer, source string) *RejectWriter {
	return &RejectWriter{w: w, source: source}
}

func (rw *RejectWriter) Reject(r record.Reject) {
	fmt.Fprintln(rw.w, rw.source+"\t"+strconv.Itoa(r.Row)+"\t"+r.Reason+"\t"+r.Line)
}

// Sources bundles the four IMDb TSV streams an ingest run consumes.
// Callers are responsible for decompressing the .gz files IMDb
// distributes before handing readers here.
type Sources struct {
	Titles   io.Reader
	Episodes io.Reader
	Akas     io.Reader
	Ratings  io.Reader
}

// Config configures one ingest run.
type Config struct {
	Dir         string
	NGramSize   int
	SpillBudget int
	SourceHash  string    // caller-supplied content hash of the source dataset
	RejectOut   io.Writer // optional side channel for malformed rows (§4.1); nil discards
}

// RowCounts tallies parsed vs. rejected rows for one TSV source.
type RowCounts struct {
	Parsed   int
	Rejected int
}

// Stats summarizes a completed ingest run, the numbers `cmd ingest`
// logs when it finishes.
type Stats struct {
	Titles      RowCounts
	Episodes    RowCounts
	Akas        RowCounts
	Ratings     RowCounts
	NameEntries int
	Build       invindex.BuildResult
	Duration    time.Duration
}

// String renders Stats the way a CLI front-end would print them, using
// go-humanize for byte/count formatting consistent with the rest of the
// ambient stack.
func (s Stats) String() string {
	return fmt.Sprintf(
		"titles=%s(+%s rejected) episodes=%s(+%s rejected) akas=%s(+%s rejected) ratings=%s(+%s rejected) names=%s terms=%s tokens=%s spills=%s in %s",
		humanize.Comma(int64(s.Titles.Parsed)), humanize.Comma(int64(s.Titles.Rejected)),
		humanize.Comma(int64(s.Episodes.Parsed)), humanize.Comma(int64(s.Episodes.Rejected)),
		humanize.Comma(int64(s.Akas.Parsed)), humanize.Comma(int64(s.Akas.Rejected)),
		humanize.Comma(int64(s.Ratings.Parsed)), humanize.Comma(int64(s.Ratings.Rejected)),
		humanize.Comma(int64(s.NameEntries)), humanize.Comma(int64(s.Build.DistinctTerms)),
		humanize.Comma(int64(s.Build.TokensEmitted)), humanize.Comma(int64(s.Build.SpillFiles)),
		s.Duration,
	)
}

// rejectCounter is a record.RejectSink that counts rejects, forwards each
// to an optional RejectWriter side channel, and, if log is non-nil, warns
// about each one — the only place this engine logs a per-row diagnostic,
// matching §7's rule that query-time failures never log but ingest-time
// row rejects are reported as warnings.
type rejectCounter struct {
	n    int
	log  *zap.SugaredLogger
	next record.RejectSink
}

func (c *rejectCounter) Reject(r record.Reject) {
	c.n++
	if c.log != nil {
		c.log.Warnw("rejected row", "row", r.Row, "reason", r.Reason)
	}
	if c.next != nil {
		c.next.Reject(r)
	}
}

// taggedSink returns a RejectWriter over w tagged with source, or nil if
// w is nil — letting callers leave reject reporting off entirely.
func taggedSink(w io.Writer, source string) record.RejectSink {
	if w == nil {
		return nil
	}
	return NewRejectWriter(w, source)
}

// Run executes one full ingest: parse, write stores, derive NameEntries,
// build the inverted index, then publish config.toml and READY. On any
// failure, dir is left without a READY marker and invindex.Open will
// report ErrIndexIncomplete.
func Run(src Sources, cfg Config, log *zap.SugaredLogger) (Stats, error) {
	start := time.Now()
	var stats Stats
	state := stateInit

	w, err := store.NewWriter(cfg.Dir)
	if err != nil {
		return stats, fmt.Errorf("ingest: create writers: %w", err)
	}

	titleRejects := &rejectCounter{log: log, next: taggedSink(cfg.RejectOut, "titles")}
	var titles []record.Title
	for t := range record.Titles(src.Titles, titleRejects) {
		if err := w.Titles.Add(t); err != nil {
			return stats, fmt.Errorf("ingest: write title: %w", err)
		}
		titles = append(titles, t)
		stats.Titles.Parsed++
	}
	stats.Titles.Rejected = titleRejects.n

	titlesByID := make(map[record.ID]record.Title, len(titles))
	for _, t := range titles {
		titlesByID[t.ID] = t
	}

	episodeRejects := &rejectCounter{log: log, next: taggedSink(cfg.RejectOut, "episodes")}
	for e := range record.Episodes(src.Episodes, episodeRejects) {
		// Every earlier row was either stored or rejected (by the parser or
		// below), so this is the row's 1-indexed data-row number.
		episodeRow := stats.Episodes.Parsed + episodeRejects.n + 1
		show, ok := titlesByID[e.ShowID]
		if !ok {
			episodeRejects.Reject(record.Reject{
				Row:    episodeRow,
				Reason: fmt.Sprintf("parent title %s not found", e.ShowID),
				Line:   fmt.Sprintf("%s\t%s", e.ID, e.ShowID),
			})
			continue
		}
		if !show.Kind.IsSeries() {
			episodeRejects.Reject(record.Reject{
				Row:    episodeRow,
				Reason: fmt.Sprintf("parent title %s is not a series (kind=%s)", e.ShowID, show.Kind),
				Line:   fmt.Sprintf("%s\t%s", e.ID, e.ShowID),
			})
			continue
		}
		if err := w.Episodes.Add(e); err != nil {
			return stats, fmt.Errorf("ingest: write episode: %w", err)
		}
		stats.Episodes.Parsed++
	}
	stats.Episodes.Rejected = episodeRejects.n

	akaRejects := &rejectCounter{log: log, next: taggedSink(cfg.RejectOut, "akas")}
	akasByTitle := make(map[record.ID][]record.AlternateName)
	for a := range record.AlternateNames(src.Akas, akaRejects) {
		if err := w.Akas.Add(a); err != nil {
			return stats, fmt.Errorf("ingest: write aka: %w", err)
		}
		akasByTitle[a.TitleID] = append(akasByTitle[a.TitleID], a)
		stats.Akas.Parsed++
	}
	stats.Akas.Rejected = akaRejects.n

	ratingRejects := &rejectCounter{log: log, next: taggedSink(cfg.RejectOut, "ratings")}
	for r := range record.Ratings(src.Ratings, ratingRejects) {
		if err := w.Ratings.Add(r); err != nil {
			return stats, fmt.Errorf("ingest: write rating: %w", err)
		}
		stats.Ratings.Parsed++
	}
	stats.Ratings.Rejected = ratingRejects.n

	for _, t := range titles {
		for _, entry := range record.NameEntriesForTitle(t, akasByTitle[t.ID]) {
			if _, err := w.Names.Add(entry); err != nil {
				return stats, fmt.Errorf("ingest: write name entry: %w", err)
			}
			stats.NameEntries++
		}
	}

	if err := w.Close(cfg.Dir); err != nil {
		return stats, fmt.Errorf("ingest: close writers: %w", err)
	}
	if state, err = advance(state, stateStoresWritten); err != nil {
		return stats, err
	}

	names, err := store.OpenNameStore(cfg.Dir)
	if err != nil {
		return stats, fmt.Errorf("ingest: open names for build: %w", err)
	}
	defer names.Close()

	buildResult, err := invindex.Build(cfg.Dir, names, invindex.BuildConfig{
		NGramSize:   cfg.NGramSize,
		SpillBudget: cfg.SpillBudget,
	})
	if err != nil {
		return stats, fmt.Errorf("ingest: build inverted index: %w", err)
	}
	stats.Build = buildResult
	if state, err = advance(state, stateIndexBuilt); err != nil {
		return stats, err
	}

	if err := query.WriteIndexConfig(cfg.Dir, query.IndexConfig{
		NGramSize:      cfg.NGramSize,
		BuildTimestamp: start.UTC().Format(time.RFC3339),
		SourceHash:     cfg.SourceHash,
	}); err != nil {
		return stats, fmt.Errorf("ingest: write config.toml: %w", err)
	}
	if state, err = advance(state, stateConfigWritten); err != nil {
		return stats, err
	}

	if err := invindex.WriteReady(cfg.Dir); err != nil {
		return stats, fmt.Errorf("ingest: write READY: %w", err)
	}
	if _, err = advance(state, stateReady); err != nil {
		return stats, err
	}

	stats.Duration = time.Since(start)
	if log != nil {
		log.Infow("ingest complete", "stats", stats.String())
	}
	return stats, nil
}
