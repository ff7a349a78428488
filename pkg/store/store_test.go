package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuboski/imdbidx/pkg/record"
)

func id(t *testing.T, s string) record.ID {
	t.Helper()
	rid, err := record.ParseID(s)
	require.NoError(t, err)
	return rid
}

func u16(v uint16) *uint16 { return &v }
func u32(v uint32) *uint32 { return &v }

func TestTitleStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w, err := NewTitleWriter(dir)
	require.NoError(t, err)

	simpsons := record.Title{
		ID: id(t, "tt0096697"), Kind: record.KindTVSeries,
		PrimaryName: "The Simpsons", OriginalName: "The Simpsons",
		StartYear: u16(1989), Genres: []string{"Animation", "Comedy"},
	}
	thor := record.Title{
		ID: id(t, "tt0800369"), Kind: record.KindMovie,
		PrimaryName: "Thor", OriginalName: "Thor", StartYear: u16(2011),
	}
	require.NoError(t, w.Add(simpsons))
	require.NoError(t, w.Add(thor))
	require.NoError(t, w.Close(dir))

	s, err := OpenTitleStore(dir)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(id(t, "tt0800369"))
	require.NoError(t, err)
	assert.Equal(t, thor, got)

	_, err = s.Get(id(t, "tt9999999"))
	assert.ErrorIs(t, err, ErrNotFound)

	var all []record.Title
	for title := range s.All() {
		all = append(all, title)
	}
	require.Len(t, all, 2)
	assert.Equal(t, "The Simpsons", all[0].PrimaryName) // ingest order preserved
}

func TestEpisodeStoreOfOrdersBySeasonEpisode(t *testing.T) {
	dir := t.TempDir()
	w, err := NewEpisodeWriter(dir)
	require.NoError(t, err)

	showID := id(t, "tt0096697")
	e2 := record.Episode{ID: id(t, "tt0701124"), ShowID: showID, Season: u32(1), Episode: u32(2)}
	e1 := record.Episode{ID: id(t, "tt0701123"), ShowID: showID, Season: u32(1), Episode: u32(1)}
	unnumbered := record.Episode{ID: id(t, "tt0701125"), ShowID: showID}

	require.NoError(t, w.Add(e2))
	require.NoError(t, w.Add(e1))
	require.NoError(t, w.Add(unnumbered))
	require.NoError(t, w.Close(dir))

	s, err := OpenEpisodeStore(dir)
	require.NoError(t, err)
	defer s.Close()

	eps, err := s.Of(showID)
	require.NoError(t, err)
	require.Len(t, eps, 3)
	assert.Equal(t, e1.ID, eps[0].ID)
	assert.Equal(t, e2.ID, eps[1].ID)
	assert.Equal(t, unnumbered.ID, eps[2].ID) // unnumbered sorts last

	got, err := s.Get(e1.ID)
	require.NoError(t, err)
	assert.Equal(t, e1, got)
}

func TestAkaStorePreservesOrder(t *testing.T) {
	dir := t.TempDir()
	w, err := NewAkaWriter(dir)
	require.NoError(t, err)

	titleID := id(t, "tt0800369")
	require.NoError(t, w.Add(record.AlternateName{TitleID: titleID, Name: "Thor", Region: "US"}))
	require.NoError(t, w.Add(record.AlternateName{TitleID: titleID, Name: "Thor 3D", Region: "FR"}))
	require.NoError(t, w.Close(dir))

	s, err := OpenAkaStore(dir)
	require.NoError(t, err)
	defer s.Close()

	akas, err := s.Of(titleID)
	require.NoError(t, err)
	require.Len(t, akas, 2)
	assert.Equal(t, "Thor", akas[0].Name)
	assert.Equal(t, "Thor 3D", akas[1].Name)
}

func TestRatingStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w, err := NewRatingWriter(dir)
	require.NoError(t, err)

	titleID := id(t, "tt0800369")
	require.NoError(t, w.Add(record.Rating{ID: titleID, Rating: 7.0, Votes: 900000}))
	require.NoError(t, w.Close(dir))

	s, err := OpenRatingStore(dir)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(titleID)
	require.NoError(t, err)
	assert.Equal(t, float32(7.0), got.Rating)
	assert.Equal(t, uint32(900000), got.Votes)
}

func TestNameStoreSequentialIDs(t *testing.T) {
	dir := t.TempDir()
	w, err := NewNameWriter(dir)
	require.NoError(t, err)

	titleID := id(t, "tt0800369")
	id0, err := w.Add(record.NameEntry{TitleID: titleID, Name: "Thor", ScoreBoost: record.BoostPrimary})
	require.NoError(t, err)
	id1, err := w.Add(record.NameEntry{TitleID: titleID, Name: "Mjolnir 3D", ScoreBoost: record.BoostAlternate})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, uint64(0), id0)
	assert.Equal(t, uint64(1), id1)

	s, err := OpenNameStore(dir)
	require.NoError(t, err)
	defer s.Close()

	require.Equal(t, 2, s.Count())
	got, err := s.Get(id1)
	require.NoError(t, err)
	assert.Equal(t, "Mjolnir 3D", got.Name)

	_, err = s.Get(99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpenRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	w, err := NewTitleWriter(dir)
	require.NoError(t, err)
	require.NoError(t, w.Add(record.Title{ID: id(t, "tt0800369"), Kind: record.KindMovie, PrimaryName: "Thor"}))
	require.NoError(t, w.Close(dir))

	_, err = openIDIndex(filepath.Join(dir, "titles.idx"), magicAkasIdx) // wrong magic on purpose
	assert.ErrorIs(t, err, ErrIndexFormat)
}

func TestStoreOpenAndClose(t *testing.T) {
	dir := t.TempDir()
	sw, err := NewWriter(dir)
	require.NoError(t, err)
	require.NoError(t, sw.Titles.Add(record.Title{ID: id(t, "tt0800369"), Kind: record.KindMovie, PrimaryName: "Thor"}))
	require.NoError(t, sw.Close(dir))

	s, err := Open(dir)
	require.NoError(t, err)
	_, err = s.Titles.Get(id(t, "tt0800369"))
	require.NoError(t, err)
	require.NoError(t, s.Close())
}
