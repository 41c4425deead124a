// Package watcher turns filesystem notifications into file-saved events.
package watcher

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// DirFilter decides which directories are watched.
type DirFilter interface {
	SkipDir(dir string) bool
}

// FileWatcher reports saves of regular files under a project root.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	root     string
	filter   DirFilter
	onSave   func(path string)
	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once     // Ensures Stop() is idempotent
	doneCh   chan struct{} // Signals watch goroutine has finished
}

// NewFileWatcher watches root recursively, skipping directories the filter
// rejects. A nil filter watches everything.
func NewFileWatcher(root string, filter DirFilter) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		watcher: watcher,
		root:    root,
		filter:  filter,
		doneCh:  make(chan struct{}),
	}

	if err := fw.addDirectoriesRecursively(root); err != nil {
		watcher.Close()
		return nil, err
	}
	return fw, nil
}

// Start begins forwarding save events to onSave. onSave runs on the watch
// goroutine and should not block for long.
func (fw *FileWatcher) Start(ctx context.Context, onSave func(path string)) error {
	if onSave == nil {
		return nil
	}

	fw.onSave = onSave
	fw.ctx, fw.cancel = context.WithCancel(ctx)

	go fw.watch()
	return nil
}

// Stop stops the watcher. Safe to call more than once.
func (fw *FileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		if fw.cancel != nil {
			fw.cancel()
			<-fw.doneCh
		} else {
			close(fw.doneCh)
		}
		err = fw.watcher.Close()
	})
	return err
}

// WatchedDirs returns the directories currently registered with fsnotify.
func (fw *FileWatcher) WatchedDirs() []string {
	return fw.watcher.WatchList()
}

// watch is the main event loop.
func (fw *FileWatcher) watch() {
	defer close(fw.doneCh)

	for {
		select {
		case <-fw.ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("File watcher error: %v", err)
		}
	}
}

// handleEvent forwards writes and creations of regular files, and starts
// watching directories created after startup.
func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		// Removed again before we looked (editor temp files).
		return
	}

	if info.IsDir() {
		if event.Has(fsnotify.Create) {
			if err := fw.addDirectoriesRecursively(event.Name); err != nil {
				log.Printf("Warning: failed to watch new directory %s: %v", event.Name, err)
			}
		}
		return
	}

	if !info.Mode().IsRegular() {
		return
	}
	fw.onSave(event.Name)
}

// addDirectoriesRecursively adds all non-skipped directories in the tree.
func (fw *FileWatcher) addDirectoriesRecursively(rootPath string) error {
	return filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == rootPath {
				return err
			}
			log.Printf("Warning: error accessing %s: %v", path, err)
			return nil
		}

		if !info.IsDir() {
			return nil
		}
		if fw.filter != nil && fw.filter.SkipDir(path) {
			return filepath.SkipDir
		}

		if err := fw.watcher.Add(path); err != nil {
			log.Printf("Warning: failed to watch directory %s: %v", path, err)
		}
		return nil
	})
}
