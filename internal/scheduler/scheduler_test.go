package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mvp-joe/autodocs/internal/pathfilter"
	"github.com/mvp-joe/autodocs/internal/processor"
	"github.com/mvp-joe/autodocs/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Scheduler:
// - Start runs the initializer (ensure layout + seed progress)
// - Events before Start and after Stop are ignored
// - A first save is flushed by the wake-up timer once the cooldown elapses
// - Saves during an in-flight flush never start a second concurrent flush,
//   and are flushed in the next batch
// - Stop does not cancel an in-flight flush; Wait blocks until it ends
// - FlushNow ignores the cooldown, refuses while a flush runs and before Start
// - Filtered-out paths never trigger a flush

type fakeFlusher struct {
	mu        sync.Mutex
	batches   [][]string
	active    int32
	maxActive int32
	gate      chan struct{} // when non-nil, each flush waits for a receive
	started   chan struct{}
	done      chan []string
}

func newFakeFlusher(blocking bool) *fakeFlusher {
	f := &fakeFlusher{
		started: make(chan struct{}, 16),
		done:    make(chan []string, 16),
	}
	if blocking {
		f.gate = make(chan struct{})
	}
	return f
}

func (f *fakeFlusher) Flush(ctx context.Context, batch tracker.Batch) *processor.FlushResult {
	n := atomic.AddInt32(&f.active, 1)
	for {
		max := atomic.LoadInt32(&f.maxActive)
		if n <= max || atomic.CompareAndSwapInt32(&f.maxActive, max, n) {
			break
		}
	}
	f.started <- struct{}{}
	if f.gate != nil {
		<-f.gate
	}

	paths := batch.Paths()
	f.mu.Lock()
	f.batches = append(f.batches, paths)
	f.mu.Unlock()
	atomic.AddInt32(&f.active, -1)

	f.done <- paths
	return &processor.FlushResult{ID: "test"}
}

type fakeInit struct {
	ensured int
	seeded  int
}

func (f *fakeInit) EnsureLayout() error { f.ensured++; return nil }
func (f *fakeInit) SeedProgress(now time.Time) (bool, error) {
	f.seeded++
	return true, nil
}

func newTestScheduler(t *testing.T, flusher Flusher, opts ...Option) *Scheduler {
	t.Helper()
	filter, err := pathfilter.New("", []string{".ts", ".py"}, []string{"node_modules"}, nil)
	require.NoError(t, err)
	return New(tracker.NewSession(filter), flusher, opts...)
}

func waitBatch(t *testing.T, f *fakeFlusher) []string {
	t.Helper()
	select {
	case paths := <-f.done:
		return paths
	case <-time.After(3 * time.Second):
		t.Fatal("flush not completed before timeout")
		return nil
	}
}

func waitStarted(t *testing.T, f *fakeFlusher) {
	t.Helper()
	select {
	case <-f.started:
	case <-time.After(3 * time.Second):
		t.Fatal("flush not started before timeout")
	}
}

func TestStart_RunsInitializer(t *testing.T) {
	t.Parallel()
	init := &fakeInit{}
	s := newTestScheduler(t, newFakeFlusher(false), WithInitializer(init))

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Equal(t, 1, init.ensured)
	assert.Equal(t, 1, init.seeded)
}

func TestOnSave_IgnoredBeforeStartAndAfterStop(t *testing.T) {
	t.Parallel()
	s := newTestScheduler(t, newFakeFlusher(false), WithCooldown(time.Hour))

	s.OnSave("a.ts")
	assert.Empty(t, s.Session().Pending())

	require.NoError(t, s.Start(context.Background()))
	s.OnSave("b.ts")
	assert.Equal(t, []string{"b.ts"}, s.Session().Pending().Paths())

	s.Stop()
	s.OnSave("c.ts")
	assert.Equal(t, []string{"b.ts"}, s.Session().Pending().Paths())
}

func TestOnSave_WakeUpTimerFlushesAfterCooldown(t *testing.T) {
	t.Parallel()
	f := newFakeFlusher(false)
	var hooked atomic.Int32
	s := newTestScheduler(t, f,
		WithCooldown(100*time.Millisecond),
		WithFlushHook(func(*processor.FlushResult) { hooked.Add(1) }),
	)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	start := time.Now()
	s.OnSave("x.py")
	s.OnSave("x.py")

	paths := waitBatch(t, f)
	assert.Equal(t, []string{"x.py"}, paths)
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)

	s.Wait()
	assert.Equal(t, int32(1), hooked.Load())
	assert.False(t, s.Session().LastFlushAt().IsZero())
	assert.Equal(t, tracker.StateIdle, s.Session().State())
}

func TestOnSave_NoConcurrentFlushes(t *testing.T) {
	t.Parallel()
	f := newFakeFlusher(true)
	s := newTestScheduler(t, f, WithCooldown(0))
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	s.OnSave("a.ts")
	waitStarted(t, f)

	for i := 0; i < 20; i++ {
		s.OnSave("b.ts")
		s.OnSave("c.py")
	}
	assert.Equal(t, tracker.StateFlushing, s.Session().State())

	f.gate <- struct{}{}
	assert.Equal(t, []string{"a.ts"}, waitBatch(t, f))

	waitStarted(t, f)
	f.gate <- struct{}{}
	assert.Equal(t, []string{"b.ts", "c.py"}, waitBatch(t, f))

	s.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.maxActive))
}

func TestStop_DoesNotCancelInflightFlush(t *testing.T) {
	t.Parallel()
	f := newFakeFlusher(true)
	s := newTestScheduler(t, f, WithCooldown(0))
	require.NoError(t, s.Start(context.Background()))

	s.OnSave("a.ts")
	waitStarted(t, f)
	s.Stop()

	waited := make(chan struct{})
	go func() {
		s.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		t.Fatal("Wait returned while flush still running")
	case <-time.After(50 * time.Millisecond):
	}

	f.gate <- struct{}{}
	assert.Equal(t, []string{"a.ts"}, waitBatch(t, f))

	select {
	case <-waited:
	case <-time.After(3 * time.Second):
		t.Fatal("Wait did not return after flush completed")
	}
	assert.Equal(t, tracker.StateIdle, s.Session().State())
}

func TestFlushNow(t *testing.T) {
	t.Parallel()
	f := newFakeFlusher(false)
	s := newTestScheduler(t, f, WithCooldown(time.Hour))

	_, err := s.FlushNow()
	assert.ErrorIs(t, err, ErrNotStarted)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	s.OnSave("a.ts")
	s.OnSave("node_modules/b.ts")

	res, err := s.FlushNow()
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, []string{"a.ts"}, <-f.done)
	assert.Equal(t, tracker.StateIdle, s.Session().State())
}

func TestFlushNow_RefusesDuringFlush(t *testing.T) {
	t.Parallel()
	f := newFakeFlusher(true)
	s := newTestScheduler(t, f, WithCooldown(0))
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	s.OnSave("a.ts")
	waitStarted(t, f)

	_, err := s.FlushNow()
	assert.ErrorIs(t, err, ErrFlushInProgress)

	f.gate <- struct{}{}
	waitBatch(t, f)
	s.Wait()
}

func TestOnSave_FilteredPathNeverFlushes(t *testing.T) {
	t.Parallel()
	f := newFakeFlusher(false)
	s := newTestScheduler(t, f, WithCooldown(0))
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	s.OnSave("README.md")
	s.OnSave("node_modules/pkg/index.ts")

	select {
	case <-f.started:
		t.Fatal("filtered paths must not trigger a flush")
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, tracker.StateIdle, s.Session().State())
}
