package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"
)

func TestRelevant(t *testing.T) {
	abs := "/tmp/notes/doc.md"
	require.True(t, relevant(fsnotify.Event{Name: abs, Op: fsnotify.Write}, abs))
	require.True(t, relevant(fsnotify.Event{Name: abs, Op: fsnotify.Create}, abs))
	require.False(t, relevant(fsnotify.Event{Name: abs, Op: fsnotify.Chmod}, abs))
	require.False(t, relevant(fsnotify.Event{Name: "/tmp/notes/other.md", Op: fsnotify.Write}, abs))
}

func TestWatch_CallsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	require.NoError(t, os.WriteFile(path, []byte("one"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 10*time.Millisecond, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	// Give the watcher time to register before writing.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("two"), 0o644)
		select {
		case <-changed:
			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestWatch_MissingDir(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "doc.md"), DefaultDebounce, func() {})
	require.Error(t, err)
}
