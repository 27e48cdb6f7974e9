package app

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/osz-extract-go/internal/domain"
)

// fakeClock fires AfterFunc callbacks only when Advance passes their deadline
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock    *fakeClock
	deadline time.Time
	fn       func()
	stopped  bool
	fired    bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	timer := &fakeTimer{clock: c, deadline: c.now.Add(d), fn: f}
	c.timers = append(c.timers, timer)
	return timer
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}

// Advance moves time forward and runs every timer that became due
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []func()
	for _, timer := range c.timers {
		if !timer.stopped && !timer.fired && !timer.deadline.After(c.now) {
			timer.fired = true
			due = append(due, timer.fn)
		}
	}
	c.mu.Unlock()

	for _, fn := range due {
		fn()
	}
}

func TestProgressTracker_CompletedEntryExpires(t *testing.T) {
	clock := newFakeClock()
	tracker := NewProgressTracker(5*time.Second, 10*time.Second, clock)

	_, err := tracker.Begin(7, "Song")
	require.NoError(t, err)
	require.True(t, tracker.Complete(7))

	p, ok := tracker.Get(7)
	require.True(t, ok)
	assert.Equal(t, domain.StatusCompleted, p.Status)
	assert.Equal(t, 100, p.Percent)

	clock.Advance(4 * time.Second)
	_, ok = tracker.Get(7)
	assert.True(t, ok, "entry must remain visible inside the grace period")

	clock.Advance(1 * time.Second)
	_, ok = tracker.Get(7)
	assert.False(t, ok)
}

func TestProgressTracker_ErrorEntryExpiresLater(t *testing.T) {
	clock := newFakeClock()
	tracker := NewProgressTracker(5*time.Second, 10*time.Second, clock)

	_, err := tracker.Begin(8, "Song")
	require.NoError(t, err)
	require.True(t, tracker.Update(8, domain.StatusExtracting, 50))
	require.True(t, tracker.Fail(8, "invalid archive"))

	p, ok := tracker.Get(8)
	require.True(t, ok)
	assert.Equal(t, domain.StatusError, p.Status)
	assert.Equal(t, "invalid archive", p.Error)
	assert.Equal(t, 50, p.Percent)

	clock.Advance(5 * time.Second)
	_, ok = tracker.Get(8)
	assert.True(t, ok)

	clock.Advance(5 * time.Second)
	_, ok = tracker.Get(8)
	assert.False(t, ok)
}

func TestProgressTracker_RejectsDuplicateLiveEntry(t *testing.T) {
	tracker := NewProgressTracker(5*time.Second, 10*time.Second, newFakeClock())

	first, err := tracker.Begin(42, "Song")
	require.NoError(t, err)

	_, err = tracker.Begin(42, "Song")
	assert.ErrorIs(t, err, domain.ErrAlreadyInProgress)

	p, ok := tracker.Get(42)
	require.True(t, ok)
	assert.Equal(t, first.RequestID, p.RequestID, "the original entry must be untouched")
}

func TestProgressTracker_ReplacementSurvivesOldTimer(t *testing.T) {
	clock := newFakeClock()
	tracker := NewProgressTracker(5*time.Second, 10*time.Second, clock)

	_, err := tracker.Begin(7, "Song")
	require.NoError(t, err)
	require.True(t, tracker.Complete(7))

	clock.Advance(3 * time.Second)
	second, err := tracker.Begin(7, "Song")
	require.NoError(t, err)

	clock.Advance(3 * time.Second)
	p, ok := tracker.Get(7)
	require.True(t, ok, "old expiry must not remove the new entry")
	assert.Equal(t, second.RequestID, p.RequestID)
	assert.Equal(t, domain.StatusDownloading, p.Status)
}

func TestProgressTracker_TerminalEntriesIgnoreUpdates(t *testing.T) {
	tracker := NewProgressTracker(5*time.Second, 10*time.Second, newFakeClock())

	assert.False(t, tracker.Update(1, domain.StatusExtracting, 50), "unknown id")

	_, err := tracker.Begin(1, "Song")
	require.NoError(t, err)
	assert.False(t, tracker.Update(1, domain.StatusCompleted, 100), "terminal status only via Complete")
	require.True(t, tracker.Complete(1))

	assert.False(t, tracker.Update(1, domain.StatusExtracting, 80))
	assert.False(t, tracker.Fail(1, "late"))

	p, _ := tracker.Get(1)
	assert.Equal(t, domain.StatusCompleted, p.Status)
}

func TestProgressTracker_ClampsPercent(t *testing.T) {
	tracker := NewProgressTracker(time.Second, time.Second, newFakeClock())

	_, err := tracker.Begin(1, "Song")
	require.NoError(t, err)
	tracker.Update(1, domain.StatusDownloading, 250)

	p, _ := tracker.Get(1)
	assert.Equal(t, 100, p.Percent)
}

func TestProgressTracker_ListReturnsCopies(t *testing.T) {
	clock := newFakeClock()
	tracker := NewProgressTracker(time.Second, time.Second, clock)

	_, err := tracker.Begin(2, "B")
	require.NoError(t, err)
	clock.Advance(time.Millisecond)
	_, err = tracker.Begin(1, "A")
	require.NoError(t, err)

	list := tracker.List()
	require.Len(t, list, 2)
	assert.Equal(t, 2, list[0].ContentID)
	assert.Equal(t, 1, list[1].ContentID)

	list[0].Status = domain.StatusError
	p, _ := tracker.Get(2)
	assert.Equal(t, domain.StatusDownloading, p.Status)
	assert.Equal(t, 2, tracker.ActiveCount())
}

func TestProgressTracker_ConcurrentBeginAdmitsOne(t *testing.T) {
	tracker := NewProgressTracker(time.Second, time.Second, newFakeClock())

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := tracker.Begin(99, "Race"); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
}

func TestProgressTracker_ZeroTTLRemovesImmediately(t *testing.T) {
	tracker := NewProgressTracker(0, 0, newFakeClock())

	_, err := tracker.Begin(1, "Song")
	require.NoError(t, err)
	require.True(t, tracker.Complete(1))

	_, ok := tracker.Get(1)
	assert.False(t, ok)
}
