package sheet

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
)

// File is a named CSV file inside a filesystem. It satisfies the data
// source contract of the web layer.
type File struct {
	FS   fs.FS
	Name string
}

// OpenPath returns a File for a host path, relative to the working
// directory unless absolute. Nothing is opened until Scan.
func OpenPath(path string) File {
	dir, base := filepath.Split(filepath.Clean(path))
	if dir == "" {
		dir = "."
	}
	return File{FS: os.DirFS(dir), Name: base}
}

// Scan runs fn over the rows of f. See the package-level Scan.
func (f File) Scan(ctx context.Context, fn func(*Rows) error) error {
	return Scan(ctx, f.FS, f.Name, fn)
}
