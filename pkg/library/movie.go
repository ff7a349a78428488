package library

import (
	"path/filepath"
	"strings"
)

// VideoFile is one video found by a directory scan, the unit a batch
// rename run feeds into filename.Interpret. Name is the directory-derived
// show name, a fallback search text for files like "S01E02.mkv" whose
// filename alone carries no title — a name only the directory nesting
// reveals.
type VideoFile struct {
	Name         string
	RelativePath string
	Size         int64
}

func videoFileFromPath(path string, size int64) VideoFile {
	name := sanitizeName(dirName(path))
	// A file inside a "Season NN" directory takes its show name from the
	// directory above it.
	if parent := filepath.Dir(path); strings.HasPrefix(strings.ToLower(name), "season ") && filepath.Dir(parent) != "." {
		name = sanitizeName(dirName(parent))
	}
	return VideoFile{
		Name:         name,
		RelativePath: path,
		Size:         size,
	}
}
