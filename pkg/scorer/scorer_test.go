package scorer

import (
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIndex is an in-memory stand-in for *invindex.Index, built directly
// from postings so scorer tests don't need an on-disk index.
type fakeIndex struct {
	postings map[string][]struct {
		id uint64
		tf uint32
	}
	docLens  map[uint64]uint32
	numDocs  int
	avgLen   float64
}

func (f *fakeIndex) Postings(tok string) iter.Seq2[uint64, uint32] {
	entries := f.postings[tok]
	return func(yield func(uint64, uint32) bool) {
		for _, e := range entries {
			if !yield(e.id, e.tf) {
				return
			}
		}
	}
}

func (f *fakeIndex) DocFreq(tok string) uint32 { return uint32(len(f.postings[tok])) }
func (f *fakeIndex) DocLen(id uint64) uint32   { return f.docLens[id] }
func (f *fakeIndex) CollectionStats() (int, float64) { return f.numDocs, f.avgLen }

func newFakeIndex() *fakeIndex {
	return &fakeIndex{
		postings: make(map[string][]struct {
			id uint64
			tf uint32
		}),
		docLens: make(map[uint64]uint32),
	}
}

func (f *fakeIndex) add(tok string, id uint64, tf uint32) {
	f.postings[tok] = append(f.postings[tok], struct {
		id uint64
		tf uint32
	}{id, tf})
}

func TestGenerateUnionsAndAppliesOverlapCutoff(t *testing.T) {
	ix := newFakeIndex()
	// "thor" trigrams (with sentinel padding) roughly: \x01\x01t, \x01th, tho, hor, or\x01, r\x01\x01
	ix.add("tho", 0, 1)
	ix.add("hor", 0, 1)
	ix.add("tho", 1, 1) // only one of several query tokens: should fail cutoff
	ix.docLens[0] = 6
	ix.docLens[1] = 6
	ix.numDocs = 2
	ix.avgLen = 6

	candidates := Generate(ix, "thor", 3, MinTokenOverlap)
	var ids []uint64
	for _, c := range candidates {
		ids = append(ids, c.NameEntryID)
	}
	assert.Contains(t, ids, uint64(0))
	assert.NotContains(t, ids, uint64(1))
}

func TestGenerateSkipsCutoffForShortQueries(t *testing.T) {
	ix := newFakeIndex()
	// With n=1, "ab" yields the two tokens "a" and "b", fewer than
	// shortQueryTokens; a full-overlap cutoff would otherwise demand both.
	ix.add("a", 5, 1)
	ix.docLens[5] = 1
	ix.numDocs = 1
	ix.avgLen = 1

	candidates := Generate(ix, "ab", 1, 1.0)
	require.Len(t, candidates, 1)
	assert.Equal(t, uint64(5), candidates[0].NameEntryID)
}

func TestByNameResolvesAllScorers(t *testing.T) {
	for _, name := range []Name{BM25, TFIDF, Jaccard, QGram, ""} {
		fn, err := ByName(name)
		require.NoError(t, err)
		assert.NotNil(t, fn)
	}
	_, err := ByName("nonsense")
	assert.Error(t, err)
}

func TestScoreBM25PrefersHigherTermFrequency(t *testing.T) {
	stats := CollectionStats{NumDocs: 100, AvgDocLen: 10}
	lowTF := map[string]tokenMatch{"tho": {tf: 1, df: 20}}
	highTF := map[string]tokenMatch{"tho": {tf: 5, df: 20}}
	low := scoreBM25(lowTF, 10, nil, stats)
	high := scoreBM25(highTF, 10, nil, stats)
	assert.Greater(t, high, low)
}

func TestScoreTFIDFSumsAcrossMatchedTokens(t *testing.T) {
	stats := CollectionStats{NumDocs: 100, AvgDocLen: 10}
	matches := map[string]tokenMatch{
		"tho": {tf: 2, df: 10},
		"hor": {tf: 1, df: 50},
	}
	score := scoreTFIDF(matches, 10, nil, stats)
	assert.Greater(t, score, 0.0)
}

func TestScoreJaccardAndQGramBounded(t *testing.T) {
	matches := map[string]tokenMatch{"tho": {tf: 1, df: 1}, "hor": {tf: 1, df: 1}}
	queryFreq := map[string]uint32{"tho": 1, "hor": 1, "xyz": 1}
	j := scoreJaccard(matches, 2, queryFreq, CollectionStats{})
	q := scoreQGram(matches, 2, queryFreq, CollectionStats{})
	assert.GreaterOrEqual(t, j, 0.0)
	assert.LessOrEqual(t, j, 1.0)
	assert.GreaterOrEqual(t, q, 0.0)
	assert.LessOrEqual(t, q, 1.0)
}
