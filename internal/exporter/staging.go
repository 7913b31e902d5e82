package exporter

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Staging collects one run's artifacts in a scratch directory next to the
// output directory. Commit moves them into place; Discard drops them. A run
// that fails before Commit leaves the previous outputs untouched.
type Staging struct {
	dir  string
	dest string
}

// NewStaging creates a scratch directory inside dest.
func NewStaging(dest string) (*Staging, error) {
	if err := os.MkdirAll(dest, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	dir, err := os.MkdirTemp(dest, ".staging-")
	if err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	return &Staging{dir: dir, dest: dest}, nil
}

// Dir is where artifacts should be written before Commit.
func (s *Staging) Dir() string { return s.dir }

// Commit renames every staged file into the output directory, preserving
// relative paths.
func (s *Staging) Commit() error {
	var files []string
	err := filepath.WalkDir(s.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan staging directory: %w", err)
	}

	for _, src := range files {
		rel, err := filepath.Rel(s.dir, src)
		if err != nil {
			return err
		}
		dst := filepath.Join(s.dest, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return fmt.Errorf("create directory for %s: %w", rel, err)
		}
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("move %s into place: %w", rel, err)
		}
	}
	log.Printf("[INFO] published %d files to %s", len(files), s.dest)
	return s.Discard()
}

// Discard removes the scratch directory and anything still in it.
func (s *Staging) Discard() error {
	return os.RemoveAll(s.dir)
}
