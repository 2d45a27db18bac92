// Package ratelimit implements a per-client fixed-window request limiter.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

// Limiter tracks request counts per client key (typically an IP address)
// over a rolling window. The first request past the limit is rejected until
// the window rolls over.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	window  time.Duration
	max     int

	now func() time.Time
}

// New creates a limiter allowing max requests per client per window.
func New(windowLen time.Duration, max int) *Limiter {
	return &Limiter{
		windows: make(map[string]*window),
		window:  windowLen,
		max:     max,
		now:     time.Now,
	}
}

// Allow records a request from client and reports whether it is within the
// limit. When rejected, retryAfter is the whole number of seconds until the
// client's window resets (always at least 1).
func (l *Limiter) Allow(client string) (ok bool, retryAfter int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, exists := l.windows[client]
	if !exists || now.Sub(w.start) > l.window {
		l.windows[client] = &window{start: now, count: 1}
		return true, 0
	}

	w.count++
	if w.count > l.max {
		remaining := l.window - now.Sub(w.start)
		retryAfter = int(math.Ceil(remaining.Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		return false, retryAfter
	}
	return true, 0
}

// Purge drops windows that have fully elapsed and returns how many were
// removed.
func (l *Limiter) Purge() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for client, w := range l.windows {
		if now.Sub(w.start) > l.window {
			delete(l.windows, client)
			removed++
		}
	}
	return removed
}
