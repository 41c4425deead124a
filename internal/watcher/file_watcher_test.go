package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mvp-joe/autodocs/internal/pathfilter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for FileWatcher:
// - NewFileWatcher succeeds on a valid root and fails on a missing one
// - Writing a file fires onSave with its path
// - A directory created after startup is watched recursively
// - Excluded directories are not watched and their saves are not reported
// - Directory creation alone does not fire onSave
// - Context cancellation stops delivery
// - Concurrent Stop() calls are safe, and Stop without Start works

type saveRecorder struct {
	mu    sync.Mutex
	paths []string
	ch    chan string
}

func newSaveRecorder() *saveRecorder {
	return &saveRecorder{ch: make(chan string, 64)}
}

func (r *saveRecorder) onSave(path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
	r.ch <- path
}

func (r *saveRecorder) waitFor(t *testing.T, want string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case got := <-r.ch:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("no save event for %s before timeout", want)
		}
	}
}

func (r *saveRecorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func startWatcher(t *testing.T, root string, filter DirFilter) (*FileWatcher, *saveRecorder) {
	t.Helper()
	fw, err := NewFileWatcher(root, filter)
	require.NoError(t, err)
	t.Cleanup(func() { fw.Stop() })

	rec := newSaveRecorder()
	require.NoError(t, fw.Start(context.Background(), rec.onSave))
	time.Sleep(50 * time.Millisecond)
	return fw, rec
}

func TestNewFileWatcher_Success(t *testing.T) {
	t.Parallel()

	fw, err := NewFileWatcher(t.TempDir(), nil)
	require.NoError(t, err)
	require.NotNil(t, fw)
	require.NoError(t, fw.Stop())
}

func TestNewFileWatcher_InvalidDirectory(t *testing.T) {
	t.Parallel()

	fw, err := NewFileWatcher(filepath.Join(t.TempDir(), "nonexistent"), nil)
	assert.Error(t, err)
	assert.Nil(t, fw)
}

func TestFileWatcher_FileWrite(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	_, rec := startWatcher(t, root, nil)

	path := filepath.Join(root, "app.ts")
	require.NoError(t, os.WriteFile(path, []byte("export const a = 1;\n"), 0644))

	rec.waitFor(t, path)
}

func TestFileWatcher_DirectoryAdded(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	_, rec := startWatcher(t, root, nil)

	newDir := filepath.Join(root, "src", "components")
	require.NoError(t, os.MkdirAll(newDir, 0755))
	time.Sleep(300 * time.Millisecond)

	path := filepath.Join(newDir, "Button.tsx")
	require.NoError(t, os.WriteFile(path, []byte("export default function Button() {}\n"), 0644))

	rec.waitFor(t, path)
	for _, p := range rec.seen() {
		assert.NotEqual(t, newDir, p, "directories must not be reported as saves")
	}
}

func TestFileWatcher_ExcludedDirectoryNotWatched(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules", "pkg"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0755))

	filter, err := pathfilter.New(root, []string{".ts"}, []string{"node_modules"}, nil)
	require.NoError(t, err)
	fw, rec := startWatcher(t, root, filter)

	assert.NotContains(t, fw.WatchedDirs(), filepath.Join(root, "node_modules"))
	assert.NotContains(t, fw.WatchedDirs(), filepath.Join(root, "node_modules", "pkg"))
	assert.Contains(t, fw.WatchedDirs(), filepath.Join(root, "src"))

	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "pkg", "index.ts"), []byte("x"), 0644))
	marker := filepath.Join(root, "src", "main.ts")
	require.NoError(t, os.WriteFile(marker, []byte("y"), 0644))

	rec.waitFor(t, marker)
	for _, p := range rec.seen() {
		assert.NotContains(t, p, "node_modules")
	}
}

func TestFileWatcher_ContextCancellation(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	fw, err := NewFileWatcher(root, nil)
	require.NoError(t, err)
	defer fw.Stop()

	rec := newSaveRecorder()
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, fw.Start(ctx, rec.onSave))
	cancel()

	select {
	case <-fw.doneCh:
	case <-time.After(2 * time.Second):
		t.Fatal("watch loop did not exit after cancellation")
	}

	require.NoError(t, os.WriteFile(filepath.Join(root, "late.ts"), []byte("x"), 0644))
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, rec.seen())
}

func TestFileWatcher_StopWithoutStart(t *testing.T) {
	t.Parallel()

	fw, err := NewFileWatcher(t.TempDir(), nil)
	require.NoError(t, err)
	assert.NoError(t, fw.Stop())
	assert.NoError(t, fw.Stop())
}

func TestFileWatcher_ConcurrentStop(t *testing.T) {
	t.Parallel()
	fw, _ := startWatcher(t, t.TempDir(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fw.Stop()
		}()
	}
	wg.Wait()
}
