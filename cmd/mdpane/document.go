package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/gubarz/mdpane/internal/config"
	"github.com/gubarz/mdpane/internal/log"
	"github.com/gubarz/mdpane/internal/storage"
)

// document is the markdown a command works on: a file named on the command
// line, or the stored editor content when no file is given.
type document struct {
	fs    afero.Fs
	path  string
	store *storage.Store
}

func (a *app) document(args []string) *document {
	if len(args) > 0 {
		return &document{fs: a.fs, path: args[0]}
	}
	store := storage.New(a.fs, config.GetStorageDir())
	return &document{fs: a.fs, path: store.Path(), store: store}
}

// Name is the title shown for the document
func (d *document) Name() string {
	if d.store != nil {
		return "scratch"
	}
	return filepath.Base(d.path)
}

// Path is where the document lives on disk
func (d *document) Path() string {
	return d.path
}

// Load reads the document. The store never fails; a missing file does.
func (d *document) Load() (string, error) {
	if d.store != nil {
		return d.store.Load(), nil
	}
	data, err := afero.ReadFile(d.fs, d.path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", d.path, err)
	}
	return string(data), nil
}

// LoadOrEmpty is Load with a missing file treated as a new, empty document
func (d *document) LoadOrEmpty() (string, error) {
	content, err := d.Load()
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	return content, err
}

// Write replaces the document, returning file errors
func (d *document) Write(content string) error {
	if d.store != nil {
		d.store.Save(content)
		return nil
	}
	if err := afero.WriteFile(d.fs, d.path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", d.path, err)
	}
	return nil
}

// Save satisfies ui.Saver; failures are logged so editing can continue
func (d *document) Save(content string) {
	if err := d.Write(content); err != nil {
		log.WarnErr(log.CatStorage, "failed to save document", err)
	}
}

// readInput returns the named file or, without arguments, all of stdin
func (a *app) readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return a.document(args).Load()
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}
