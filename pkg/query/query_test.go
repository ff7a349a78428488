package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuboski/imdbidx/pkg/invindex"
	"github.com/kasuboski/imdbidx/pkg/record"
	"github.com/kasuboski/imdbidx/pkg/store"
)

func mustID(t *testing.T, s string) record.ID {
	t.Helper()
	id, err := record.ParseID(s)
	require.NoError(t, err)
	return id
}

func u16p(v uint16) *uint16 { return &v }
func u32p(v uint32) *uint32 { return &v }

func buildFixtureIndex(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	simpsons := record.Title{
		ID: mustID(t, "tt0096697"), Kind: record.KindTVSeries,
		PrimaryName: "The Simpsons", OriginalName: "The Simpsons", StartYear: u16p(1989),
	}
	homerEpisode := record.Title{
		ID: mustID(t, "tt0773646"), Kind: record.KindTVEpisode,
		PrimaryName: "Homer Loves Flanders", OriginalName: "Homer Loves Flanders",
	}
	thor2011 := record.Title{
		ID: mustID(t, "tt0800369"), Kind: record.KindMovie,
		PrimaryName: "Thor", OriginalName: "Thor", StartYear: u16p(2011),
	}
	thor2010 := record.Title{
		ID: mustID(t, "tt9999991"), Kind: record.KindMovie,
		PrimaryName: "Thor", OriginalName: "Thor", StartYear: u16p(2010),
	}

	tw, err := store.NewTitleWriter(dir)
	require.NoError(t, err)
	for _, title := range []record.Title{simpsons, homerEpisode, thor2011, thor2010} {
		require.NoError(t, tw.Add(title))
	}
	require.NoError(t, tw.Close(dir))

	ew, err := store.NewEpisodeWriter(dir)
	require.NoError(t, err)
	require.NoError(t, ew.Add(record.Episode{
		ID: mustID(t, "tt0773646"), ShowID: mustID(t, "tt0096697"),
		Season: u32p(5), Episode: u32p(16),
	}))
	require.NoError(t, ew.Close(dir))

	aw, err := store.NewAkaWriter(dir)
	require.NoError(t, err)
	require.NoError(t, aw.Close(dir))

	rw, err := store.NewRatingWriter(dir)
	require.NoError(t, err)
	require.NoError(t, rw.Close(dir))

	nw, err := store.NewNameWriter(dir)
	require.NoError(t, err)
	for _, title := range []record.Title{simpsons, homerEpisode, thor2011, thor2010} {
		for _, entry := range record.NameEntriesForTitle(title, nil) {
			_, err := nw.Add(entry)
			require.NoError(t, err)
		}
	}
	require.NoError(t, nw.Close())

	names, err := store.OpenNameStore(dir)
	require.NoError(t, err)
	_, err = invindex.Build(dir, names, invindex.BuildConfig{NGramSize: 3})
	require.NoError(t, err)
	require.NoError(t, names.Close())
	require.NoError(t, WriteIndexConfig(dir, IndexConfig{NGramSize: 3, BuildTimestamp: "test", SourceHash: "test"}))
	require.NoError(t, invindex.WriteReady(dir))

	return dir
}

func TestOpenRejectsIncompleteIndex(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(dir)
	assert.ErrorIs(t, err, ErrIndexIncomplete)
}

func TestSearchExactEpisodeLookupRanksFirst(t *testing.T) {
	dir := buildFixtureIndex(t)
	ix, err := Open(dir)
	require.NoError(t, err)
	defer ix.Close()

	results, err := ix.Search(Query{Text: "homey loves flanders"})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, mustID(t, "tt0773646"), results[0].TitleID)
}

func TestSearchYearDisambiguation(t *testing.T) {
	dir := buildFixtureIndex(t)
	ix, err := Open(dir)
	require.NoError(t, err)
	defer ix.Close()

	y2011 := uint16(2011)
	results, err := ix.Search(Query{Text: "thor", Year: &y2011})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, mustID(t, "tt0800369"), results[0].TitleID)

	y2010 := uint16(2010)
	results, err = ix.Search(Query{Text: "thor", Year: &y2010})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, mustID(t, "tt9999991"), results[0].TitleID)
}

func TestSearchEmptyTextIsError(t *testing.T) {
	dir := buildFixtureIndex(t)
	ix, err := Open(dir)
	require.NoError(t, err)
	defer ix.Close()

	_, err = ix.Search(Query{Text: ""})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestEpisodeResolvesBySeasonAndEpisode(t *testing.T) {
	dir := buildFixtureIndex(t)
	ix, err := Open(dir)
	require.NoError(t, err)
	defer ix.Close()

	title, err := ix.Episode(mustID(t, "tt0096697"), 5, 16)
	require.NoError(t, err)
	assert.Equal(t, "Homer Loves Flanders", title.PrimaryName)

	_, err = ix.Episode(mustID(t, "tt0096697"), 18, 4)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInterpretFilenameThenEpisode(t *testing.T) {
	dir := buildFixtureIndex(t)
	ix, err := Open(dir)
	require.NoError(t, err)
	defer ix.Close()

	h := ix.InterpretFilename("S05E16.mkv")
	require.NotNil(t, h.Season)
	require.NotNil(t, h.Episode)

	title, err := ix.Episode(mustID(t, "tt0096697"), *h.Season, *h.Episode)
	require.NoError(t, err)
	assert.Equal(t, "Homer Loves Flanders", title.PrimaryName)
}

func TestTitleAndRatingNotFound(t *testing.T) {
	dir := buildFixtureIndex(t)
	ix, err := Open(dir)
	require.NoError(t, err)
	defer ix.Close()

	_, err = ix.Title(mustID(t, "tt0000001"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = ix.Rating(mustID(t, "tt0000001"))
	assert.ErrorIs(t, err, ErrNotFound)
}
