package library

import (
	"context"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kasuboski/imdbidx/pkg/logger"

	mediaio "github.com/kasuboski/imdbidx/pkg/io"
)

// FileSystem describes the root a scan walks.
type FileSystem struct {
	FS   fs.FS
	Path string
}

// DirectoryScanner walks one media directory tree, returning every file
// that looks like a video, skipping extras (subtitles, nfo, sample
// junk) and directories nested deeper than a show's season layout.
type DirectoryScanner struct {
	io   mediaio.FileIO
	root FileSystem
}

// New creates a scanner rooted at root.
func New(root FileSystem, io mediaio.FileIO) *DirectoryScanner {
	return &DirectoryScanner{root: root, io: io}
}

var _ Scanner = (*DirectoryScanner)(nil)

// Scan walks the tree looking for movie- or show-shaped video files.
func (s *DirectoryScanner) Scan(ctx context.Context) ([]VideoFile, error) {
	log := logger.FromCtx(ctx)

	files := []VideoFile{}
	err := fs.WalkDir(s.root.FS, ".", func(path string, d fs.DirEntry, err error) error {
		log.Debugw("scan walk", "path", path)
		if err != nil {
			return fs.SkipDir
		}

		name := sanitizeName(d.Name())
		nesting := levelsOfNesting(path)
		if d.IsDir() {
			if strings.HasPrefix(strings.ToLower(name), "season ") {
				return nil
			}
			if nesting > 1 || (nesting > 0 && !movieRegex.MatchString(name) && !showRegex.MatchString(name)) {
				log.Debugw("skipping directory", "dir", name)
				return fs.SkipDir
			}
			return nil
		}

		if nesting == 0 || !isVideoFile(path) {
			return nil
		}
		if !movieRegex.MatchString(name) && !showRegex.MatchString(name) {
			return nil
		}

		var size int64
		if info, err := d.Info(); err == nil {
			size = info.Size()
		}
		files = append(files, videoFileFromPath(path, size))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

func levelsOfNesting(path string) int {
	return strings.Count(path, "/")
}

func isVideoFile(name string) bool {
	ext := filepath.Ext(name)
	return slices.Contains(videoExtensions, strings.ToLower(ext))
}

func sanitizeName(name string) string {
	return strings.Trim(strings.TrimSpace(name), "'")
}

func dirName(path string) string {
	dirPath := filepath.Dir(path)
	split := strings.Split(dirPath, "/")
	return split[len(split)-1]
}
