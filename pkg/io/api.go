package io

import (
	"io/fs"
	"os"
)

// FileIO is an interface for the read-only file system operations a
// directory scan needs. The engine never writes to or renames anything
// it scans; moving files is a separate collaborator's job (spec
// Non-goals).
type FileIO interface {
	Stat(target string) (os.FileInfo, error)
	Open(name string) (*os.File, error)
	WalkDir(fsys fs.FS, root string, fn fs.WalkDirFunc) error
}
