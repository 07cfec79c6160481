// Package ratelimiter implements an in-memory fixed-window rate limiter
// keyed by arbitrary strings, used to cap per-user agent invocations.
package ratelimiter

import (
	"sync"
	"time"
)

// Decision is the outcome of a single Check call. ResetAt is the start of
// the next window, returned whether or not the call was allowed.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

type window struct {
	start time.Time
	count int
}

// Limiter counts events per key in fixed windows. Safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

func New() *Limiter {
	return &Limiter{windows: map[string]*window{}, now: time.Now}
}

// NewWithClock is for tests that need a deterministic clock.
func NewWithClock(now func() time.Time) *Limiter {
	return &Limiter{windows: map[string]*window{}, now: now}
}

// Check records one event for key and reports whether it fits within limit
// events per windowSize. The window is anchored at the first event after the
// previous window expired, not at wall-clock boundaries.
func (l *Limiter) Check(key string, limit int, windowSize time.Duration) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= windowSize {
		w = &window{start: now}
		l.windows[key] = w
	}

	if w.count >= limit {
		return Decision{Allowed: false, Remaining: 0, ResetAt: w.start.Add(windowSize)}
	}
	w.count++
	return Decision{Allowed: true, Remaining: limit - w.count, ResetAt: w.start.Add(windowSize)}
}

// Prune drops windows older than windowSize. Call periodically to keep the
// map from growing with one entry per user forever.
func (l *Limiter) Prune(windowSize time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, w := range l.windows {
		if now.Sub(w.start) >= windowSize {
			delete(l.windows, key)
		}
	}
}
