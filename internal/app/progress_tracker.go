package app

import (
	"sort"
	"sync"
	"time"

	"github.com/yourusername/osz-extract-go/internal/domain"
)

// Timer is the handle returned by Clock.AfterFunc
type Timer interface {
	Stop() bool
}

// Clock abstracts time so expiry can be driven by tests
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// RealClock returns the wall clock
func RealClock() Clock { return realClock{} }

// trackedEntry owns one progress record; its pointer identity guards expiry
type trackedEntry struct {
	progress domain.DownloadProgress
	timer    Timer
}

// ProgressTracker holds the observable state of every acquisition.
// At most one entry exists per content id. Terminal entries are removed
// after a grace period.
type ProgressTracker struct {
	entries      map[int]*trackedEntry
	completedTTL time.Duration
	errorTTL     time.Duration
	clock        Clock
	mu           sync.RWMutex
}

// NewProgressTracker creates a tracker; a nil clock uses the wall clock
func NewProgressTracker(completedTTL, errorTTL time.Duration, clock Clock) *ProgressTracker {
	if clock == nil {
		clock = RealClock()
	}
	return &ProgressTracker{
		entries:      make(map[int]*trackedEntry),
		completedTTL: completedTTL,
		errorTTL:     errorTTL,
		clock:        clock,
	}
}

// Begin registers a new acquisition in the downloading state.
// It returns domain.ErrAlreadyInProgress while a non-terminal entry exists.
// A terminal entry still inside its grace period is replaced.
func (t *ProgressTracker) Begin(contentID int, title string) (domain.DownloadProgress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.entries[contentID]; ok {
		if existing.progress.IsActive() {
			return domain.DownloadProgress{}, domain.ErrAlreadyInProgress
		}
		if existing.timer != nil {
			existing.timer.Stop()
		}
	}

	progress := domain.NewDownloadProgress(contentID, title)
	now := t.clock.Now()
	progress.StartedAt = now
	progress.UpdatedAt = now
	t.entries[contentID] = &trackedEntry{progress: progress}
	return progress, nil
}

// Update moves a live entry to a new status and percent.
// Updates to missing or terminal entries are ignored.
func (t *ProgressTracker) Update(contentID int, status domain.DownloadStatus, percent int) bool {
	if status.IsTerminal() {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[contentID]
	if !ok || !entry.progress.IsActive() {
		return false
	}
	entry.progress.Status = status
	entry.progress.Percent = domain.ClampPercent(percent)
	entry.progress.UpdatedAt = t.clock.Now()
	return true
}

// Complete marks the entry completed and schedules its removal
func (t *ProgressTracker) Complete(contentID int) bool {
	return t.finish(contentID, domain.StatusCompleted, domain.PercentCompleted, "", t.completedTTL)
}

// Fail marks the entry failed with a message and schedules its removal.
// The percent reached so far is kept.
func (t *ProgressTracker) Fail(contentID int, message string) bool {
	return t.finish(contentID, domain.StatusError, -1, message, t.errorTTL)
}

func (t *ProgressTracker) finish(contentID int, status domain.DownloadStatus, percent int, message string, ttl time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[contentID]
	if !ok || !entry.progress.IsActive() {
		return false
	}
	entry.progress.Status = status
	if percent >= 0 {
		entry.progress.Percent = percent
	}
	entry.progress.Error = message
	entry.progress.UpdatedAt = t.clock.Now()

	if ttl <= 0 {
		delete(t.entries, contentID)
		return true
	}
	entry.timer = t.clock.AfterFunc(ttl, func() {
		t.expire(contentID, entry)
	})
	return true
}

// expire removes the entry only if it is still the one the timer was set for
func (t *ProgressTracker) expire(contentID int, entry *trackedEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if current, ok := t.entries[contentID]; ok && current == entry {
		delete(t.entries, contentID)
	}
}

// Get returns a copy of the entry for a content id
func (t *ProgressTracker) Get(contentID int) (domain.DownloadProgress, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entry, ok := t.entries[contentID]
	if !ok {
		return domain.DownloadProgress{}, false
	}
	return entry.progress, true
}

// IsActive reports whether a non-terminal entry exists for the content id
func (t *ProgressTracker) IsActive(contentID int) bool {
	p, ok := t.Get(contentID)
	return ok && p.IsActive()
}

// List returns copies of all entries ordered by start time
func (t *ProgressTracker) List() []domain.DownloadProgress {
	t.mu.RLock()
	out := make([]domain.DownloadProgress, 0, len(t.entries))
	for _, entry := range t.entries {
		out = append(out, entry.progress)
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ContentID < out[j].ContentID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// ActiveCount returns the number of non-terminal entries
func (t *ProgressTracker) ActiveCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for _, entry := range t.entries {
		if entry.progress.IsActive() {
			n++
		}
	}
	return n
}
