package tracker

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mvp-joe/autodocs/internal/pathfilter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Session:
// - Unsupported extensions leave the pending batch unchanged
// - Excluded paths leave the pending batch unchanged
// - Exclusion matches whole path segments, so rebuild/ is recorded while build/ is not
// - Saving a.ts and node_modules/a.test.js together records only a.ts
// - Re-saving a path keeps one record with LastSeenAt = second timestamp, FirstSeenAt unchanged
// - Before any flush the cooldown is measured from the oldest change (t=5000 false, t=15000 true)
// - ShouldFlushNow is false immediately after a flush and true once the cooldown elapses
// - ShouldFlushNow is false while flushing, even with new changes
// - Changes recorded mid-flush start a new batch and are not lost
// - State transitions Idle -> Accumulating -> Flushing -> Idle/Accumulating
// - Concurrent BeginFlush calls never produce two active flushes
// - NextEligibleAt reports the cooldown deadline

const cooldown = 15 * time.Second

var t0 = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	f, err := pathfilter.New("",
		[]string{".ts", ".tsx", ".js", ".py", ".go"},
		[]string{"node_modules", ".git", "dist", "build"},
		nil,
	)
	require.NoError(t, err)
	return NewSession(f)
}

func TestRecordChange_UnsupportedExtension(t *testing.T) {
	t.Parallel()
	s := newTestSession(t)

	for _, p := range []string{"README.md", "image.png", "Makefile", "style.css"} {
		assert.False(t, s.RecordChange(p, at(0)), p)
	}
	assert.Empty(t, s.Pending())
	assert.Equal(t, StateIdle, s.State())
}

func TestRecordChange_ExcludedPath(t *testing.T) {
	t.Parallel()
	s := newTestSession(t)

	for _, p := range []string{"node_modules/x/index.js", ".git/hooks/a.py", "web/dist/app.js", "build/gen.go"} {
		assert.False(t, s.RecordChange(p, at(0)), p)
	}
	assert.Empty(t, s.Pending())
}

func TestRecordChange_ExcludesWholeSegments(t *testing.T) {
	t.Parallel()
	s := newTestSession(t)

	assert.False(t, s.RecordChange("build/x.ts", at(0)))
	assert.True(t, s.RecordChange("rebuild/x.ts", at(0)))
	assert.True(t, s.RecordChange("src/distance.py", at(0)))

	assert.ElementsMatch(t, []string{"rebuild/x.ts", "src/distance.py"}, s.Pending().Paths())
}

func TestRecordChange_MixedSameInstant(t *testing.T) {
	t.Parallel()
	s := newTestSession(t)

	s.RecordChange("a.ts", at(0))
	s.RecordChange("node_modules/a.test.js", at(0))

	assert.Equal(t, []string{"a.ts"}, s.Pending().Paths())
}

func TestRecordChange_ResaveUpdatesLastSeen(t *testing.T) {
	t.Parallel()
	s := newTestSession(t)

	require.True(t, s.RecordChange("src/app.py", at(0)))
	require.True(t, s.RecordChange("src/app.py", at(4000)))

	pending := s.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, at(0), pending[0].FirstSeenAt)
	assert.Equal(t, at(4000), pending[0].LastSeenAt)
}

func TestShouldFlushNow_FirstBatchCooldown(t *testing.T) {
	t.Parallel()
	s := newTestSession(t)

	assert.False(t, s.ShouldFlushNow(at(0), cooldown), "empty batch never flushes")

	s.RecordChange("x.py", at(0))
	assert.False(t, s.ShouldFlushNow(at(5000), cooldown))
	assert.True(t, s.ShouldFlushNow(at(15000), cooldown))

	// Continuous edits do not postpone the flush
	s.RecordChange("x.py", at(14000))
	assert.True(t, s.ShouldFlushNow(at(15000), cooldown))
}

func TestShouldFlushNow_AfterFlush(t *testing.T) {
	t.Parallel()
	s := newTestSession(t)

	s.RecordChange("a.go", at(0))
	batch, ok := s.BeginFlush(at(15000), cooldown)
	require.True(t, ok)
	require.Len(t, batch, 1)
	s.CompleteFlush(at(16000))
	assert.Equal(t, at(16000), s.LastFlushAt())

	s.RecordChange("b.go", at(16000))
	assert.False(t, s.ShouldFlushNow(at(16000), cooldown), "cooldown starts at flush end")
	assert.False(t, s.ShouldFlushNow(at(30999), cooldown))
	assert.True(t, s.ShouldFlushNow(at(31000), cooldown))
}

func TestShouldFlushNow_FalseWhileFlushing(t *testing.T) {
	t.Parallel()
	s := newTestSession(t)

	s.RecordChange("a.ts", at(0))
	_, ok := s.BeginFlush(at(20000), cooldown)
	require.True(t, ok)
	assert.Equal(t, StateFlushing, s.State())

	s.RecordChange("b.ts", at(21000))
	assert.False(t, s.ShouldFlushNow(at(60000), cooldown))
	_, ok = s.BeginFlush(at(60000), cooldown)
	assert.False(t, ok)
	_, ok = s.ForceBeginFlush()
	assert.False(t, ok)
}

func TestBeginFlush_MidFlushChangesStartNewBatch(t *testing.T) {
	t.Parallel()
	s := newTestSession(t)

	s.RecordChange("a.ts", at(0))
	s.RecordChange("b.ts", at(1))
	assert.Equal(t, StateAccumulating, s.State())

	batch, ok := s.BeginFlush(at(15000), cooldown)
	require.True(t, ok)
	assert.Equal(t, []string{"a.ts", "b.ts"}, batch.Paths())
	assert.Empty(t, s.Pending())

	s.RecordChange("a.ts", at(15500))
	s.CompleteFlush(at(16000))

	assert.Equal(t, StateAccumulating, s.State())
	assert.Equal(t, []string{"a.ts"}, s.Pending().Paths())
	assert.Equal(t, at(15500), s.Pending()[0].FirstSeenAt)
}

func TestBeginFlush_EmptyAfterCompletionIsIdle(t *testing.T) {
	t.Parallel()
	s := newTestSession(t)

	s.RecordChange("a.ts", at(0))
	_, ok := s.BeginFlush(at(15000), cooldown)
	require.True(t, ok)
	s.CompleteFlush(at(15100))
	assert.Equal(t, StateIdle, s.State())
}

func TestBeginFlush_ConcurrentCallersSingleFlush(t *testing.T) {
	t.Parallel()
	s := newTestSession(t)

	for i := 0; i < 50; i++ {
		s.RecordChange(fmt.Sprintf("f%d.go", i), at(0))
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := s.BeginFlush(at(20000), cooldown); ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestNextEligibleAt(t *testing.T) {
	t.Parallel()
	s := newTestSession(t)

	_, ok := s.NextEligibleAt(cooldown)
	assert.False(t, ok)

	s.RecordChange("a.py", at(2000))
	next, ok := s.NextEligibleAt(cooldown)
	require.True(t, ok)
	assert.Equal(t, at(17000), next)

	_, ok = s.BeginFlush(at(17000), cooldown)
	require.True(t, ok)
	s.RecordChange("b.py", at(17500))
	_, ok = s.NextEligibleAt(cooldown)
	assert.False(t, ok, "no deadline while flushing")

	s.CompleteFlush(at(18000))
	next, ok = s.NextEligibleAt(cooldown)
	require.True(t, ok)
	assert.Equal(t, at(33000), next)
}

func TestNewSession_NilFilterAcceptsAll(t *testing.T) {
	t.Parallel()
	s := NewSession(nil)

	assert.True(t, s.RecordChange("anything.md", at(0)))
	assert.Equal(t, "accumulating", s.State().String())
}
