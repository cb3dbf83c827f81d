package daemon

import (
	"sync"
	"time"
)

// OverlayState is what the daemon last learned about the overlay.
type OverlayState int

const (
	// OverlayUnknown means no combo has fired yet.
	OverlayUnknown OverlayState = iota
	// OverlayRunning means the last toggle request was accepted.
	OverlayRunning
	// OverlayStarting means an overlay was spawned and may not be
	// listening yet.
	OverlayStarting
	// OverlayFailed means the last spawn attempt failed.
	OverlayFailed
)

// String returns the string representation of OverlayState.
func (s OverlayState) String() string {
	switch s {
	case OverlayUnknown:
		return "unknown"
	case OverlayRunning:
		return "running"
	case OverlayStarting:
		return "starting"
	case OverlayFailed:
		return "failed"
	default:
		return "invalid"
	}
}

// DefaultSpawnGrace is how long a freshly spawned overlay gets to claim
// the socket before another fire may spawn a second one.
const DefaultSpawnGrace = 3 * time.Second

// Stats summarises the tracker's history.
type Stats struct {
	State      OverlayState
	Toggles    int
	Spawns     int
	Failures   int
	LastChange time.Time
}

// OverlayTracker records toggle and spawn outcomes so that repeated
// fires during an overlay's startup do not spawn duplicates.
type OverlayTracker struct {
	mu    sync.Mutex
	grace time.Duration
	stats Stats
}

// NewOverlayTracker creates a tracker. A non-positive grace uses
// DefaultSpawnGrace.
func NewOverlayTracker(grace time.Duration) *OverlayTracker {
	if grace <= 0 {
		grace = DefaultSpawnGrace
	}
	return &OverlayTracker{grace: grace}
}

// Toggled records an accepted toggle request.
func (t *OverlayTracker) Toggled(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.Toggles++
	t.set(OverlayRunning, now)
}

// Spawned records a successful spawn.
func (t *OverlayTracker) Spawned(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.Spawns++
	t.set(OverlayStarting, now)
}

// SpawnFailed records a failed spawn.
func (t *OverlayTracker) SpawnFailed(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.Failures++
	t.set(OverlayFailed, now)
}

// ShouldSpawn reports whether a new overlay may be started now. It is
// false while a previous spawn is within its grace period.
func (t *OverlayTracker) ShouldSpawn(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stats.State != OverlayStarting {
		return true
	}
	return now.Sub(t.stats.LastChange) >= t.grace
}

// Stats returns a copy of the current statistics.
func (t *OverlayTracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

func (t *OverlayTracker) set(s OverlayState, now time.Time) {
	t.stats.State = s
	t.stats.LastChange = now
}
