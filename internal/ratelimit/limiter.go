// Package ratelimit counts requests per key in fixed one-window buckets.
package ratelimit

import (
	"sync"
	"time"
)

// idleWindows is how many windows a key may sit unused before it is swept
const idleWindows = 5

// Limiter implements per-key rate limiting
// ARCHITECTURAL DISCOVERY: Per-key state is swept lazily from Allow, so
// no background goroutine has to be started or stopped with the server
type Limiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	keys      map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

// bucket tracks one key's current window
type bucket struct {
	count       int
	windowStart time.Time
}

// New allows limit calls per key in each window
func New(limit int, window time.Duration) *Limiter {
	l := &Limiter{
		limit:  limit,
		window: window,
		keys:   make(map[string]*bucket),
		now:    time.Now,
	}
	l.lastSweep = l.now()
	return l
}

// Allow records one call for key and reports whether it fits the limit
// FUNCTIONAL DISCOVERY: A rejected call does not count against the window
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.window {
		l.sweep(now)
	}

	b, ok := l.keys[key]
	if !ok {
		l.keys[key] = &bucket{count: 1, windowStart: now}
		return true
	}

	if now.Sub(b.windowStart) >= l.window {
		b.count = 1
		b.windowStart = now
		return true
	}

	if b.count >= l.limit {
		return false
	}
	b.count++
	return true
}

// Tracked reports how many keys currently hold state
func (l *Limiter) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}

func (l *Limiter) sweep(now time.Time) {
	for key, b := range l.keys {
		if now.Sub(b.windowStart) > idleWindows*l.window {
			delete(l.keys, key)
		}
	}
	l.lastSweep = now
}
