package invindex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuboski/imdbidx/pkg/record"
	"github.com/kasuboski/imdbidx/pkg/store"
)

func openForWrite(t *testing.T, path string) (*os.File, error) {
	t.Helper()
	return os.OpenFile(path, os.O_WRONLY, 0o644)
}

func titleID(t *testing.T, s string) record.ID {
	t.Helper()
	id, err := record.ParseID(s)
	require.NoError(t, err)
	return id
}

func buildFixture(t *testing.T, dir string) {
	t.Helper()
	w, err := store.NewNameWriter(dir)
	require.NoError(t, err)

	names := []record.NameEntry{
		{TitleID: titleID(t, "tt0800369"), Name: "Thor", ScoreBoost: record.BoostPrimary},
		{TitleID: titleID(t, "tt0800369"), Name: "Thor Odinson", ScoreBoost: record.BoostAlternate},
		{TitleID: titleID(t, "tt0800370"), Name: "Thora", ScoreBoost: record.BoostPrimary},
		{TitleID: titleID(t, "tt0096697"), Name: "The Simpsons", ScoreBoost: record.BoostPrimary},
	}
	for _, n := range names {
		_, err := w.Add(n)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

func TestBuildAndOpenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	buildFixture(t, dir)

	names, err := store.OpenNameStore(dir)
	require.NoError(t, err)
	defer names.Close()

	_, err = Build(dir, names, BuildConfig{NGramSize: 3})
	require.NoError(t, err)
	require.NoError(t, WriteReady(dir))
	assert.True(t, IsReady(dir))

	ix, err := Open(dir)
	require.NoError(t, err)
	defer ix.Close()

	numDocs, avgLen := ix.CollectionStats()
	assert.Equal(t, 4, numDocs)
	assert.Greater(t, avgLen, 0.0)

	var thorIDs []uint64
	for id, tf := range ix.Postings("tho") {
		thorIDs = append(thorIDs, id)
		assert.Greater(t, tf, uint32(0))
	}
	assert.Contains(t, thorIDs, uint64(0))
	assert.Contains(t, thorIDs, uint64(1))
	assert.NotContains(t, thorIDs, uint64(3))

	assert.Equal(t, uint32(0), ix.DocFreq("zzzznotaterm"))
	var none []uint64
	for id := range ix.Postings("zzzznotaterm") {
		none = append(none, id)
	}
	assert.Empty(t, none)

	assert.Greater(t, ix.DocLen(0), uint32(0))
	assert.Equal(t, uint32(0), ix.DocLen(999))
}

func TestOpenRejectsMissingReady(t *testing.T) {
	dir := t.TempDir()
	buildFixture(t, dir)

	names, err := store.OpenNameStore(dir)
	require.NoError(t, err)
	defer names.Close()

	_, err = Build(dir, names, BuildConfig{NGramSize: 3})
	require.NoError(t, err)
	// deliberately never call WriteReady

	_, err = Open(dir)
	assert.ErrorIs(t, err, ErrIndexIncomplete)
}

func TestBuildTakesExclusiveLock(t *testing.T) {
	dir := t.TempDir()
	buildFixture(t, dir)

	names, err := store.OpenNameStore(dir)
	require.NoError(t, err)
	defer names.Close()

	lock, err := acquireLock(dir)
	require.NoError(t, err)
	defer lock.release()

	_, err = Build(dir, names, BuildConfig{NGramSize: 3})
	assert.ErrorIs(t, err, ErrLockBusy)
}

func TestOpenRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	buildFixture(t, dir)

	names, err := store.OpenNameStore(dir)
	require.NoError(t, err)
	defer names.Close()

	_, err = Build(dir, names, BuildConfig{NGramSize: 3})
	require.NoError(t, err)
	require.NoError(t, WriteReady(dir))

	// Corrupt terms.bin's magic in place.
	f, err := openForWrite(t, filepath.Join(dir, "terms.bin"))
	require.NoError(t, err)
	_, err = f.WriteAt([]byte{'X', 'X', 'X', 'X'}, 0)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Open(dir)
	assert.ErrorIs(t, err, ErrIndexFormat)
}
