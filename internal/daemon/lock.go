// Package daemon enforces one watcher per project.
package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning is returned by Acquire when another process holds the lock.
var ErrAlreadyRunning = errors.New("autodocs watcher already running for this project")

// ProjectLock is an exclusive file lock guarding a project's watcher.
// The lock file also records the owner's PID for status reporting.
type ProjectLock struct {
	path string
	lock *flock.Flock
}

// NewProjectLock creates a lock at path. Nothing is acquired until Acquire.
func NewProjectLock(path string) *ProjectLock {
	return &ProjectLock{path: path}
}

// Path returns the lock file path.
func (l *ProjectLock) Path() string {
	return l.path
}

// Acquire takes the lock without blocking.
// Returns ErrAlreadyRunning if another process (or another ProjectLock) holds it.
func (l *ProjectLock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	lock := flock.New(l.path)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return ErrAlreadyRunning
	}
	l.lock = lock

	if err := os.WriteFile(l.path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644); err != nil {
		_ = l.Release()
		return fmt.Errorf("failed to write lock owner: %w", err)
	}
	return nil
}

// Release releases the lock. Safe to call when not acquired.
func (l *ProjectLock) Release() error {
	if l.lock == nil {
		return nil
	}
	err := l.lock.Unlock()
	l.lock = nil
	return err
}

// Status reports whether some process holds the lock at path, and the PID it
// recorded (0 when unknown).
func Status(path string) (held bool, pid int, err error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, 0, nil
	}

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return false, 0, fmt.Errorf("failed to check lock: %w", err)
	}
	if locked {
		_ = fl.Unlock()
		return false, 0, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return true, 0, nil
	}
	pid, _ = strconv.Atoi(strings.TrimSpace(string(data)))
	return true, pid, nil
}
