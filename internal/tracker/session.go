// Package tracker records which files changed and decides when a batch of
// changes is ready to be flushed into a documentation pass.
//
// A Session is the single owner of the pending batch and the cooldown state.
// At most one flush is active at a time: BeginFlush checks and sets the
// flushing flag under the session lock, and swaps in a fresh pending map so
// saves arriving mid-flush start the next batch instead of being lost.
package tracker

import (
	"sort"
	"sync"
	"time"
)

// State is the tracker/cooldown state machine position.
type State int

const (
	// StateIdle: empty batch, not flushing.
	StateIdle State = iota
	// StateAccumulating: non-empty batch, not flushing.
	StateAccumulating
	// StateFlushing: a drained batch is being processed.
	StateFlushing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAccumulating:
		return "accumulating"
	case StateFlushing:
		return "flushing"
	default:
		return "unknown"
	}
}

// ChangeRecord is one distinct changed path in an open batch.
type ChangeRecord struct {
	Path        string
	FirstSeenAt time.Time
	LastSeenAt  time.Time
}

// Batch is a drained, immutable set of change records sorted by path.
type Batch []ChangeRecord

// Paths returns the batch paths in order.
func (b Batch) Paths() []string {
	paths := make([]string, len(b))
	for i, r := range b {
		paths[i] = r.Path
	}
	return paths
}

// PathFilter decides whether a saved path qualifies for tracking.
type PathFilter interface {
	Accept(path string) bool
}

// Session holds the pending batch and cooldown state.
type Session struct {
	mu          sync.Mutex
	filter      PathFilter
	pending     map[string]*ChangeRecord
	lastFlushAt time.Time
	flushing    bool
}

// NewSession creates a session. A nil filter accepts every path.
func NewSession(filter PathFilter) *Session {
	return &Session{
		filter:  filter,
		pending: make(map[string]*ChangeRecord),
	}
}

// RecordChange tracks a file-saved event. Paths the filter rejects are
// ignored silently. Returns whether the path was recorded.
func (s *Session) RecordChange(path string, now time.Time) bool {
	if s.filter != nil && !s.filter.Accept(path) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.pending[path]; ok {
		rec.LastSeenAt = now
		return true
	}
	s.pending[path] = &ChangeRecord{Path: path, FirstSeenAt: now, LastSeenAt: now}
	return true
}

// ShouldFlushNow reports whether a flush may start: the batch is non-empty,
// no flush is running and the cooldown has elapsed.
func (s *Session) ShouldFlushNow(now time.Time, cooldown time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shouldFlushLocked(now, cooldown)
}

func (s *Session) shouldFlushLocked(now time.Time, cooldown time.Duration) bool {
	if len(s.pending) == 0 || s.flushing {
		return false
	}
	return !now.Before(s.anchorLocked().Add(cooldown))
}

// anchorLocked is the instant the cooldown is measured from: the end of the
// previous flush, or the oldest pending change before the first flush.
func (s *Session) anchorLocked() time.Time {
	if !s.lastFlushAt.IsZero() {
		return s.lastFlushAt
	}
	var oldest time.Time
	for _, rec := range s.pending {
		if oldest.IsZero() || rec.FirstSeenAt.Before(oldest) {
			oldest = rec.FirstSeenAt
		}
	}
	return oldest
}

// BeginFlush atomically checks ShouldFlushNow and, when true, drains the
// pending batch and marks the session as flushing.
func (s *Session) BeginFlush(now time.Time, cooldown time.Duration) (Batch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.shouldFlushLocked(now, cooldown) {
		return nil, false
	}
	return s.drainLocked(), true
}

// ForceBeginFlush drains the batch ignoring the cooldown. It still refuses
// when a flush is running. An empty batch is allowed.
func (s *Session) ForceBeginFlush() (Batch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.flushing {
		return nil, false
	}
	return s.drainLocked(), true
}

func (s *Session) drainLocked() Batch {
	batch := make(Batch, 0, len(s.pending))
	for _, rec := range s.pending {
		batch = append(batch, *rec)
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })

	s.pending = make(map[string]*ChangeRecord)
	s.flushing = true
	return batch
}

// CompleteFlush ends the running flush and starts the cooldown window.
func (s *Session) CompleteFlush(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flushing = false
	s.lastFlushAt = now
}

// NextEligibleAt returns when ShouldFlushNow will first become true, given no
// further changes. ok is false when the batch is empty or a flush is running.
func (s *Session) NextEligibleAt(cooldown time.Duration) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 || s.flushing {
		return time.Time{}, false
	}
	return s.anchorLocked().Add(cooldown), true
}

// State returns the current state machine position.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.flushing:
		return StateFlushing
	case len(s.pending) > 0:
		return StateAccumulating
	default:
		return StateIdle
	}
}

// Pending returns a snapshot of the pending batch sorted by path.
func (s *Session) Pending() Batch {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(Batch, 0, len(s.pending))
	for _, rec := range s.pending {
		batch = append(batch, *rec)
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
	return batch
}

// LastFlushAt returns the end of the previous flush, or the zero time.
func (s *Session) LastFlushAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFlushAt
}
