package record

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectRejects(t *testing.T) (*[]Reject, RejectSink) {
	t.Helper()
	var rejects []Reject
	return &rejects, RejectFunc(func(r Reject) { rejects = append(rejects, r) })
}

func TestTitles(t *testing.T) {
	tsv := "tconst\ttitleType\tprimaryTitle\toriginalTitle\tisAdult\tstartYear\tendYear\truntimeMinutes\tgenres\n" +
		"tt0096697\ttvSeries\tThe Simpsons\tThe Simpsons\t0\t1989\t\\N\t22\tAnimation,Comedy\n" +
		"garbage\trow\n" +
		"tt0000002\tmovie\tBad Runtime\tBad Runtime\t0\t\\N\t\\N\tnotanumber\tShort\n"

	rejects, sink := collectRejects(t)
	var got []Title
	for title := range Titles(strings.NewReader(tsv), sink) {
		got = append(got, title)
	}

	require.Len(t, got, 1)
	assert.Equal(t, "The Simpsons", got[0].PrimaryName)
	assert.Equal(t, KindTVSeries, got[0].Kind)
	require.NotNil(t, got[0].StartYear)
	assert.Equal(t, uint16(1989), *got[0].StartYear)
	assert.Nil(t, got[0].EndYear)
	assert.ElementsMatch(t, []string{"Animation", "Comedy"}, got[0].Genres)

	assert.Len(t, *rejects, 2)
}

func TestEpisodesRejectsSelfParent(t *testing.T) {
	tsv := "tconst\tparentTconst\tseasonNumber\tepisodeNumber\n" +
		"tt0773646\ttt0096697\t5\t16\n" +
		"tt0773646\ttt0773646\t5\t16\n"

	rejects, sink := collectRejects(t)
	var got []Episode
	for e := range Episodes(strings.NewReader(tsv), sink) {
		got = append(got, e)
	}

	require.Len(t, got, 1)
	assert.Equal(t, uint32(5), *got[0].Season)
	assert.Equal(t, uint32(16), *got[0].Episode)
	require.Len(t, *rejects, 1)
	assert.Contains(t, (*rejects)[0].Reason, "equals tvshow id")
}

func TestAlternateNamesNullRegion(t *testing.T) {
	tsv := "titleId\tordering\ttitle\tregion\tlanguage\ttypes\tattributes\tisOriginalTitle\n" +
		"tt0800369\t1\tThor\t\\N\t\\N\t\\N\t\\N\t0\n"

	_, sink := collectRejects(t)
	var got []AlternateName
	for a := range AlternateNames(strings.NewReader(tsv), sink) {
		got = append(got, a)
	}
	require.Len(t, got, 1)
	assert.Equal(t, "", got[0].Region)
	assert.Equal(t, "Thor", got[0].Name)
}

func TestRatingsRangeValidation(t *testing.T) {
	tsv := "tconst\taverageRating\tnumVotes\n" +
		"tt0800369\t7.0\t100\n" +
		"tt0800369\t12.0\t100\n"

	rejects, sink := collectRejects(t)
	var got []Rating
	for r := range Ratings(strings.NewReader(tsv), sink) {
		got = append(got, r)
	}
	require.Len(t, got, 1)
	assert.Len(t, *rejects, 1)
}

func TestNameEntriesForTitleDedupes(t *testing.T) {
	title := Title{ID: mustID(t, "tt0800369"), PrimaryName: "Thor", OriginalName: "Thor"}
	akas := []AlternateName{
		{Name: "Thor"},       // duplicate of primary
		{Name: "Mjolnir 3D"}, // distinct alternate
	}

	entries := NameEntriesForTitle(title, akas)
	require.Len(t, entries, 2)
	assert.Equal(t, "Thor", entries[0].Name)
	assert.Equal(t, BoostPrimary, entries[0].ScoreBoost)
	assert.Equal(t, "Mjolnir 3D", entries[1].Name)
	assert.Equal(t, BoostAlternate, entries[1].ScoreBoost)
}

func mustID(t *testing.T, s string) ID {
	t.Helper()
	id, err := ParseID(s)
	require.NoError(t, err)
	return id
}
