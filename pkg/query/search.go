package query

import (
	"errors"
	"sort"

	"github.com/kasuboski/imdbidx/pkg/record"
	"github.com/kasuboski/imdbidx/pkg/scorer"
	"github.com/kasuboski/imdbidx/pkg/similarity"
	"github.com/kasuboski/imdbidx/pkg/store"
	"github.com/kasuboski/imdbidx/pkg/token"
)

// Query is one search request (§4.8). Fields left at their zero value
// fall back to the Index's QueryDefaults, except Text, which is required,
// and NGramSize, which falls back to the n-gram size the index was built
// with.
type Query struct {
	Text       string
	Year       *uint16
	KindFilter *record.Kind
	Season     *uint32
	Episode    *uint32
	TVShowID   *record.ID
	Size       int
	Scorer     scorer.Name
	Similarity string
	NGramSize  int
}

// ScoreComponents breaks a SearchResult's final score into the pieces
// that produced it, for callers that want to explain a ranking.
type ScoreComponents struct {
	Relevance float64
	Similarity float64
}

// SearchResult is one ranked match, already resolved to its title and
// deduplicated so a title_id appears at most once (§4.8 step 5).
type SearchResult struct {
	TitleID     record.ID
	NameEntryID uint64
	Score       float64
	Components  ScoreComponents
}

type rankedCandidate struct {
	nameID    uint64
	relevance float64
}

type finalCandidate struct {
	entry      record.NameEntry
	title      record.Title
	relevance  float64
	similarity float64
	score      float64
}

// Search runs the full pipeline: tokenize, score, re-rank, filter,
// dedupe, trim (§4.8).
func (ix *Index) Search(q Query) ([]SearchResult, error) {
	if q.Text == "" {
		return nil, newErr("search", KindEmptyQuery, ErrEmptyQuery)
	}

	ngram := q.NGramSize
	if ngram <= 0 {
		ngram = ix.cfg.NGramSize
	}

	scorerName := q.Scorer
	if scorerName == "" {
		scorerName = ix.defaults.Scorer
	}
	scoreFn, err := scorer.ByName(scorerName)
	if err != nil {
		return nil, newErr("search", KindConfigInvalid, err)
	}

	simName := q.Similarity
	if simName == "" {
		simName = ix.defaults.Similarity
	}
	simFn, ok := similarity.ByName(simName)
	if !ok {
		return nil, newErr("search", KindConfigInvalid, errors.New("query: unknown similarity "+simName))
	}

	if q.TVShowID != nil {
		if _, err := ix.store.Titles.Get(*q.TVShowID); err != nil {
			return nil, newErr("search", KindUnknownParent, ErrUnknownParent)
		}
	}

	candidates := scorer.Generate(ix.inv, q.Text, ngram, ix.defaults.MinTokenOverlap)
	if len(candidates) == 0 {
		return nil, nil
	}

	queryFreq := scorer.QueryFrequencies(q.Text, ngram)
	numDocs, avgLen := ix.inv.CollectionStats()
	stats := scorer.CollectionStats{NumDocs: numDocs, AvgDocLen: avgLen}
	scores := scorer.Score(scoreFn, candidates, queryFreq, stats)

	ranked := make([]rankedCandidate, len(candidates))
	for i, c := range candidates {
		ranked[i] = rankedCandidate{nameID: c.NameEntryID, relevance: scores[i]}
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].relevance > ranked[j].relevance })

	rerankTop := ix.defaults.RerankTop
	if rerankTop <= 0 || rerankTop > len(ranked) {
		rerankTop = len(ranked)
	}
	ranked = ranked[:rerankTop]

	normQuery := token.Normalize(q.Text)
	alpha := ix.defaults.SimilarityWeight

	finals := make([]finalCandidate, 0, len(ranked))
	for _, r := range ranked {
		entry, err := ix.store.Names.Get(r.nameID)
		if err != nil {
			continue
		}
		title, err := ix.Title(entry.TitleID)
		if err != nil {
			continue
		}
		if !passesFilters(q, title, ix.store.Episodes) {
			continue
		}

		sim := simFn(normQuery, token.Normalize(entry.Name))
		final := alpha*r.relevance + (1-alpha)*sim

		finals = append(finals, finalCandidate{
			entry:      entry,
			title:      title,
			relevance:  r.relevance,
			similarity: sim,
			score:      final,
		})
	}

	best := make(map[record.ID]finalCandidate, len(finals))
	for _, f := range finals {
		cur, ok := best[f.title.ID]
		if !ok || better(f, cur) {
			best[f.title.ID] = f
		}
	}

	out := make([]finalCandidate, 0, len(best))
	for _, f := range best {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return better(out[i], out[j]) })

	size := q.Size
	if size <= 0 {
		size = ix.defaults.ResultSize
	}
	if size < len(out) {
		out = out[:size]
	}

	results := make([]SearchResult, len(out))
	for i, f := range out {
		results[i] = SearchResult{
			TitleID:     f.title.ID,
			NameEntryID: f.entry.ID,
			Score:       f.score,
			Components:  ScoreComponents{Relevance: f.relevance, Similarity: f.similarity},
		}
	}
	return results, nil
}

// better orders two finals by (score desc, score_boost desc,
// name_entry_id asc), the tie-break §4.6 documents.
func better(a, b finalCandidate) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	if a.entry.ScoreBoost != b.entry.ScoreBoost {
		return a.entry.ScoreBoost > b.entry.ScoreBoost
	}
	return a.entry.ID < b.entry.ID
}

func passesFilters(q Query, title record.Title, episodes *store.EpisodeStore) bool {
	if q.Year != nil {
		if title.StartYear == nil || absDiffU16(*title.StartYear, *q.Year) > 1 {
			return false
		}
	}
	if q.KindFilter != nil && title.Kind != *q.KindFilter {
		return false
	}
	if q.TVShowID != nil || q.Season != nil || q.Episode != nil {
		if title.Kind != record.KindTVEpisode {
			return false
		}
		ep, err := episodes.Get(title.ID)
		if err != nil {
			return false
		}
		if q.TVShowID != nil && ep.ShowID != *q.TVShowID {
			return false
		}
		if q.Season != nil && (ep.Season == nil || *ep.Season != *q.Season) {
			return false
		}
		if q.Episode != nil && (ep.Episode == nil || *ep.Episode != *q.Episode) {
			return false
		}
	}
	return true
}

func absDiffU16(a, b uint16) uint16 {
	if a > b {
		return a - b
	}
	return b - a
}
