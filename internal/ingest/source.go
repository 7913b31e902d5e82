package ingest

import (
	"fmt"
	"log"
	"os"

	"btracker/internal/model"
	"btracker/internal/runstate"
)

// Source defines where the observation series comes from.
type Source interface {
	Load() (model.Series, error)
	Name() string
	// Fingerprint identifies the current content, so unchanged input can be skipped.
	Fingerprint() (string, error)
}

// FileSource reads a delimited price table from disk.
type FileSource struct {
	Path    string
	Options Options
}

// NewFileSource creates a FileSource.
func NewFileSource(path string, opts Options) *FileSource {
	return &FileSource{Path: path, Options: opts}
}

func (f *FileSource) Name() string { return "file:" + f.Path }

// Fingerprint returns the SHA-256 of the file contents.
func (f *FileSource) Fingerprint() (string, error) {
	digest, err := runstate.FileDigest(f.Path)
	if err != nil {
		return "", fmt.Errorf("fingerprint input: %w", err)
	}
	return digest, nil
}

func (f *FileSource) Load() (model.Series, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return model.Series{}, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	series, err := Parse(file, f.Options)
	if err != nil {
		return model.Series{}, fmt.Errorf("parse %s: %w", f.Path, err)
	}
	log.Printf("[INFO] loaded %d observations from %s (%s .. %s)", series.Len(), f.Path,
		series.Oldest().Date.Format("2006-01-02"), series.Newest().Date.Format("2006-01-02"))
	return series, nil
}

// StaticSource returns fixed observations, for development and testing.
type StaticSource struct {
	Observations []model.Observation
}

func (s *StaticSource) Name() string { return "static" }

func (s *StaticSource) Fingerprint() (string, error) {
	return runstate.JSONDigest(s.Observations)
}

func (s *StaticSource) Load() (model.Series, error) {
	return model.NewSeries(s.Observations)
}
