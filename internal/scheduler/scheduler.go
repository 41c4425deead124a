// Package scheduler ties file-saved events to documentation flushes.
//
// Every save is recorded in the session and followed by a flush attempt.
// The cooldown is a rolling window: a flush starts as soon as the cooldown
// since the previous flush has elapsed, even in the middle of an editing
// burst. When an attempt is declined only because of the cooldown, one
// wake-up timer is armed for the moment the batch becomes eligible, so a
// pending batch does not wait for another save.
package scheduler

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/mvp-joe/autodocs/internal/processor"
	"github.com/mvp-joe/autodocs/internal/tracker"
)

// DefaultCooldown is the minimum time between the end of one flush and the
// start of the next.
const DefaultCooldown = 15 * time.Second

// ErrFlushInProgress is returned by FlushNow while another flush runs.
var ErrFlushInProgress = errors.New("flush already in progress")

// ErrNotStarted is returned by FlushNow before Start.
var ErrNotStarted = errors.New("scheduler not started")

// Flusher performs the side effects of a flush.
type Flusher interface {
	Flush(ctx context.Context, batch tracker.Batch) *processor.FlushResult
}

// Initializer prepares the documentation layout on Start.
type Initializer interface {
	EnsureLayout() error
	SeedProgress(now time.Time) (bool, error)
}

// Scheduler is the process-wide owner of a session and its flushes.
type Scheduler struct {
	session  *tracker.Session
	flusher  Flusher
	init     Initializer
	cooldown time.Duration
	now      func() time.Time
	onFlush  func(*processor.FlushResult)

	mu        sync.Mutex
	ctx       context.Context
	started   bool
	accepting bool
	timer     *time.Timer
	inflight  sync.WaitGroup
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithCooldown sets the cooldown window.
func WithCooldown(d time.Duration) Option {
	return func(s *Scheduler) { s.cooldown = d }
}

// WithClock overrides time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithFlushHook is called after every completed flush.
func WithFlushHook(fn func(*processor.FlushResult)) Option {
	return func(s *Scheduler) { s.onFlush = fn }
}

// WithInitializer prepares the docs layout on Start.
func WithInitializer(init Initializer) Option {
	return func(s *Scheduler) { s.init = init }
}

// New creates a scheduler. It accepts no events until Start.
func New(session *tracker.Session, flusher Flusher, opts ...Option) *Scheduler {
	s := &Scheduler{
		session:  session,
		flusher:  flusher,
		cooldown: DefaultCooldown,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Session returns the scheduler's session.
func (s *Scheduler) Session() *tracker.Session {
	return s.session
}

// Start ensures the documentation directories exist, seeds the progress
// tracker when absent and begins accepting events.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.init != nil {
		if err := s.init.EnsureLayout(); err != nil {
			return err
		}
		if _, err := s.init.SeedProgress(s.now()); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx = context.WithoutCancel(ctx)
	s.started = true
	s.accepting = true
	return nil
}

// Stop stops accepting events and disarms the wake-up timer. An in-flight
// flush keeps running; use Wait to block on it.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accepting = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Wait blocks until the in-flight flush, if any, has finished.
func (s *Scheduler) Wait() {
	s.inflight.Wait()
}

// OnSave handles a file-saved event.
func (s *Scheduler) OnSave(path string) {
	s.mu.Lock()
	accepting := s.accepting
	s.mu.Unlock()
	if !accepting {
		return
	}

	if !s.session.RecordChange(path, s.now()) {
		return
	}
	s.tryFlush()
}

// tryFlush starts a background flush when the session allows one, and arms
// the wake-up timer otherwise.
func (s *Scheduler) tryFlush() {
	s.mu.Lock()
	if !s.accepting {
		s.mu.Unlock()
		return
	}
	batch, ok := s.session.BeginFlush(s.now(), s.cooldown)
	if ok {
		s.inflight.Add(1)
	}
	ctx := s.ctx
	s.mu.Unlock()

	if !ok {
		s.armTimer()
		return
	}

	go func() {
		defer s.inflight.Done()
		s.runFlush(ctx, batch)
		s.armTimer()
	}()
}

func (s *Scheduler) runFlush(ctx context.Context, batch tracker.Batch) *processor.FlushResult {
	var res *processor.FlushResult
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Warning: flush panicked: %v", r)
			}
		}()
		res = s.flusher.Flush(ctx, batch)
	}()
	s.session.CompleteFlush(s.now())

	if res != nil && s.onFlush != nil {
		s.onFlush(res)
	}
	return res
}

// armTimer schedules a flush attempt for when the pending batch becomes
// eligible. Any previously armed timer is replaced.
func (s *Scheduler) armTimer() {
	next, ok := s.session.NextEligibleAt(s.cooldown)
	if !ok {
		return
	}
	delay := next.Sub(s.now())
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.accepting {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(delay, s.tryFlush)
}

// FlushNow synchronously flushes whatever is pending, ignoring the cooldown.
// Returns ErrFlushInProgress when a flush is already running.
func (s *Scheduler) FlushNow() (*processor.FlushResult, error) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil, ErrNotStarted
	}
	batch, ok := s.session.ForceBeginFlush()
	if ok {
		s.inflight.Add(1)
	}
	ctx := s.ctx
	s.mu.Unlock()

	if !ok {
		return nil, ErrFlushInProgress
	}
	defer s.inflight.Done()
	return s.runFlush(ctx, batch), nil
}
