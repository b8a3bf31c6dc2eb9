// Package filewriter writes output files atomically.
package filewriter

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileWriter writes to a temp file next to the target and renames it into
// place on Close, so readers never observe a partial frame or animation.
// The first write error is kept and later writes become no-ops.
type FileWriter struct {
	path string
	f    *os.File
	werr error
}

// New returns a FileWriter for path, creating the parent directory if needed.
func New(path string) (*FileWriter, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return nil, err
	}
	return &FileWriter{path: path, f: f}, nil
}

// Write implements io.Writer.
func (fw *FileWriter) Write(p []byte) (int, error) {
	if fw.werr != nil {
		return 0, fw.werr
	}
	n, err := fw.f.Write(p)
	fw.werr = err
	return n, err
}

// Close renames the temp file to the target path.
// If a write error occurred earlier, it is returned and the target is left untouched.
func (fw *FileWriter) Close() error {
	defer os.Remove(fw.f.Name()) // no-op on success
	cerr := fw.f.Close()
	if fw.werr != nil {
		return fw.werr
	}
	if cerr != nil {
		return cerr
	}
	return os.Rename(fw.f.Name(), fw.path)
}

// Abort discards everything written so far.
func (fw *FileWriter) Abort() {
	fw.f.Close()
	os.Remove(fw.f.Name())
}

// WriteFile atomically writes the output of fn to path.
func WriteFile(path string, fn func(*FileWriter) error) error {
	fw, err := New(path)
	if err != nil {
		return err
	}
	if err := fn(fw); err != nil {
		fw.Abort()
		return err
	}
	return fw.Close()
}
