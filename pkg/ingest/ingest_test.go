package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuboski/imdbidx/pkg/invindex"
	"github.com/kasuboski/imdbidx/pkg/query"
	"github.com/kasuboski/imdbidx/pkg/record"
)

const titlesFixture = `tconst	titleType	primaryTitle	originalTitle	isAdult	startYear	endYear	runtimeMinutes	genres
tt0096697	tvSeries	The Simpsons	The Simpsons	0	1989	\N	\N	Animation,Comedy
tt0773646	tvEpisode	Homer Loves Flanders	Homer Loves Flanders	0	\N	\N	\N	Animation
tt0800369	movie	Thor	Thor	0	2011	\N	130	Action
tt9999991	movie	Thor	Thor	0	2010	\N	90	Action
tt0000001	short	Broken Row	\N	not-a-bool	\N	\N	\N	\N
`

const episodesFixture = `tconst	parentTconst	seasonNumber	episodeNumber
tt0773646	tt0096697	5	16
tt0800370	tt0800369	1	1
tt0800371	tt0099999	1	2
`

const akasFixture = `titleId	ordering	title	region	language	types	attributes	isOriginalTitle
tt0800369	1	Thor: El Poderoso Vengador	MX	es	\N	\N	0
tt0800369	2	bad-row	\N	\N	\N	\N	not-a-bool
`

const ratingsFixture = `tconst	averageRating	numVotes
tt0096697	8.7	400000
tt0800369	7.0	800000
tt9999991	5.5	100
`

func newSources() Sources {
	return Sources{
		Titles:   strings.NewReader(titlesFixture),
		Episodes: strings.NewReader(episodesFixture),
		Akas:     strings.NewReader(akasFixture),
		Ratings:  strings.NewReader(ratingsFixture),
	}
}

func TestRunBuildsQueryableIndex(t *testing.T) {
	dir := t.TempDir()

	stats, err := Run(newSources(), Config{Dir: dir, NGramSize: 3, SourceHash: "test-hash"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Titles.Parsed)
	assert.Equal(t, 1, stats.Titles.Rejected)
	assert.Equal(t, 1, stats.Episodes.Parsed)
	assert.Equal(t, 2, stats.Episodes.Rejected)
	assert.Equal(t, 1, stats.Akas.Parsed)
	assert.Equal(t, 1, stats.Akas.Rejected)
	assert.Equal(t, 3, stats.Ratings.Parsed)
	assert.Greater(t, stats.NameEntries, 0)
	assert.Greater(t, stats.Build.DistinctTerms, 0)
	assert.Greater(t, stats.Duration.Nanoseconds(), int64(0))

	require.True(t, invindex.IsReady(dir))

	ix, err := query.Open(dir)
	require.NoError(t, err)
	defer ix.Close()

	results, err := ix.Search(query.Query{Text: "thor"})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	simpsonsID, err := record.ParseID("tt0096697")
	require.NoError(t, err)
	title, err := ix.Title(simpsonsID)
	require.NoError(t, err)
	assert.Equal(t, "The Simpsons", title.PrimaryName)

	rating, err := ix.Rating(simpsonsID)
	require.NoError(t, err)
	assert.InDelta(t, 8.7, rating.Rating, 0.01)
}

func TestRunRejectsEpisodesWithInvalidParent(t *testing.T) {
	dir := t.TempDir()

	stats, err := Run(newSources(), Config{Dir: dir, NGramSize: 3, SourceHash: "test-hash"}, nil)
	require.NoError(t, err)

	// tt0800370's parent (tt0800369) is a movie, not a series; tt0800371's
	// parent (tt0099999) doesn't exist at all. Both must be rejected, not
	// silently stored (spec's Episode invariant: parent must exist and be
	// of a series kind).
	assert.Equal(t, 2, stats.Episodes.Rejected)

	ix, err := query.Open(dir)
	require.NoError(t, err)
	defer ix.Close()

	// tt0800370 claimed tt0800369 (the Thor movie) as its parent; that
	// episode must never have been stored under it.
	thorID, err := record.ParseID("tt0800369")
	require.NoError(t, err)
	for range ix.EpisodesOf(thorID) {
		t.Fatal("movie tt0800369 must not gain episodes from a rejected row")
	}
}

func TestStatsStringIncludesCounts(t *testing.T) {
	dir := t.TempDir()
	stats, err := Run(newSources(), Config{Dir: dir, NGramSize: 3}, nil)
	require.NoError(t, err)
	assert.Contains(t, stats.String(), "titles=4")
}
