// Package rate provides fixed-window request limiting keyed by caller.
// Windows are tracked per key, so the same limiter instance can serve
// independent budgets (per-IP, per-user, per-action) at once.
package rate

import (
	"sync"
	"time"
)

// Limiter answers whether a keyed caller may proceed. The returned
// duration is how long until the key's current window resets, suitable
// for a Retry-After header.
type Limiter interface {
	Allow(key string, limit int, window time.Duration) (bool, time.Duration)
}

// MemoryLimiter is an in-process Limiter. State is lost on restart,
// which is acceptable for per-minute windows.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
}

type window struct {
	hits     int
	resetAt  time.Time
	duration time.Duration
}

func NewMemory() *MemoryLimiter {
	return &MemoryLimiter{windows: make(map[string]*window)}
}

// Allow records a hit against key and reports whether it fits inside
// limit for the given window. Passing a different window duration for
// an existing key starts a fresh window.
func (m *MemoryLimiter) Allow(key string, limit int, dur time.Duration) (bool, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	win, ok := m.windows[key]
	if !ok || now.After(win.resetAt) || win.duration != dur {
		if len(m.windows) >= pruneThreshold {
			m.prune(now)
		}
		win = &window{resetAt: now.Add(dur), duration: dur}
		m.windows[key] = win
	}

	if win.hits >= limit {
		return false, time.Until(win.resetAt)
	}

	win.hits++
	return true, time.Until(win.resetAt)
}

// pruneThreshold bounds the window map; expired entries are dropped
// before growing past it.
const pruneThreshold = 4096

func (m *MemoryLimiter) prune(now time.Time) {
	for key, win := range m.windows {
		if now.After(win.resetAt) {
			delete(m.windows, key)
		}
	}
}
