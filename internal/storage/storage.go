// Package storage persists the editor document between sessions. Reads and
// writes never fail the caller: errors are logged and an empty document is
// assumed.
package storage

import (
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/gubarz/mdpane/internal/log"
)

// FileName is the document file inside the storage directory
const FileName = "markdownContent.md"

// Store keeps a single markdown document on a filesystem
type Store struct {
	fs   afero.Fs
	path string
}

// New creates a store under dir on fs
func New(fs afero.Fs, dir string) *Store {
	return &Store{fs: fs, path: filepath.Join(dir, FileName)}
}

// NewOS creates a store on the real filesystem
func NewOS(dir string) *Store {
	return New(afero.NewOsFs(), dir)
}

// Path returns the document location
func (s *Store) Path() string {
	return s.path
}

// Load returns the saved document, or "" if none can be read
func (s *Store) Load() string {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.WarnErr(log.CatStorage, "failed to read saved content", err, "path", s.path)
		}
		return ""
	}
	return string(data)
}

// Save writes content, logging instead of returning failures
func (s *Store) Save(content string) {
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		log.WarnErr(log.CatStorage, "failed to create storage dir", err, "path", s.path)
		return
	}
	if err := afero.WriteFile(s.fs, s.path, []byte(content), 0o644); err != nil {
		log.WarnErr(log.CatStorage, "failed to write saved content", err, "path", s.path)
		return
	}
	log.Debug(log.CatStorage, "saved content", "bytes", len(content))
}
