package library

import (
	"context"
	"slices"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryScannerScanFindsMoviesAndEpisodes(t *testing.T) {
	mapfs := fstest.MapFS{
		"Batman Begins (2005)/Batman Begins (2005).mkv":            &fstest.MapFile{Data: []byte("x")},
		"Batman Begins (2005)/Batman Begins (2005).en.srt":         &fstest.MapFile{},
		"Breaking Bad/Season 01/Breaking Bad - S01E01 - Pilot.mkv": &fstest.MapFile{Data: []byte("xy")},
		"Breaking Bad/Season 01/Breaking Bad - S01E02 - Cat.mkv":   &fstest.MapFile{Data: []byte("xyz")},
		"myfile.txt":                        &fstest.MapFile{},
		"My Movie/Uh Oh/Deep/My Movie.mp4":  &fstest.MapFile{},
	}

	s := New(FileSystem{FS: mapfs, Path: "."}, nil)
	files, err := s.Scan(context.Background())
	require.NoError(t, err)

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.RelativePath
	}
	slices.Sort(names)

	assert.Equal(t, []string{
		"Batman Begins (2005)/Batman Begins (2005).mkv",
		"Breaking Bad/Season 01/Breaking Bad - S01E01 - Pilot.mkv",
		"Breaking Bad/Season 01/Breaking Bad - S01E02 - Cat.mkv",
	}, names)
}

func TestDirectoryScannerScanReportsSize(t *testing.T) {
	mapfs := fstest.MapFS{
		"Heat (1995)/Heat (1995).mkv": &fstest.MapFile{Data: []byte("0123456789")},
	}

	s := New(FileSystem{FS: mapfs, Path: "."}, nil)
	files, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, int64(10), files[0].Size)
	assert.Equal(t, "Heat (1995)", files[0].Name)
}

func TestIsVideoFile(t *testing.T) {
	assert.True(t, isVideoFile("movie.mkv"))
	assert.True(t, isVideoFile("movie.MP4"))
	assert.False(t, isVideoFile("movie.srt"))
	assert.False(t, isVideoFile("movie.nfo"))
}
