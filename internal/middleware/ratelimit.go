package middleware

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxKeys bounds how many origins a limiter tracks at once.
const DefaultMaxKeys = 10000

type entry struct {
	count       int
	windowStart time.Time
}

// AttemptLimiter counts attempts per key inside a fixed window. It is local
// to the process: state is lost on restart and not shared between instances.
type AttemptLimiter struct {
	mu          sync.Mutex
	entries     map[string]*entry
	maxAttempts int
	block       time.Duration
	maxKeys     int
	now         func() time.Time
}

type LimiterOption func(*AttemptLimiter)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) LimiterOption {
	return func(l *AttemptLimiter) {
		l.now = now
	}
}

// WithMaxKeys overrides DefaultMaxKeys.
func WithMaxKeys(n int) LimiterOption {
	return func(l *AttemptLimiter) {
		l.maxKeys = n
	}
}

func NewAttemptLimiter(maxAttempts int, block time.Duration, opts ...LimiterOption) *AttemptLimiter {
	l := &AttemptLimiter{
		entries:     make(map[string]*entry),
		maxAttempts: maxAttempts,
		block:       block,
		maxKeys:     DefaultMaxKeys,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow records an attempt for key and reports whether it may proceed.
//
// A missing entry, or one whose window is older than the block duration,
// starts a new window at count 1. Otherwise the count is incremented and the
// attempt is refused once it reaches maxAttempts. Refused attempts are still
// counted.
func (l *AttemptLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok {
		l.makeRoom(now)
		l.entries[key] = &entry{count: 1, windowStart: now}
		return true
	}

	elapsed := now.Sub(e.windowStart)
	if elapsed > l.block {
		e.count = 1
		e.windowStart = now
		return true
	}

	e.count++
	return !(e.count >= l.maxAttempts && elapsed <= l.block)
}

// Count returns the attempts recorded for key in its current window.
func (l *AttemptLimiter) Count(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[key]; ok {
		return e.count
	}
	return 0
}

// Len returns the number of tracked keys.
func (l *AttemptLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Cleanup removes entries whose window has elapsed.
func (l *AttemptLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evictExpired(l.now())
}

// Run sweeps expired entries every interval until ctx is done.
func (l *AttemptLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.Cleanup()
		case <-ctx.Done():
			return
		}
	}
}

func (l *AttemptLimiter) evictExpired(now time.Time) {
	for key, e := range l.entries {
		if now.Sub(e.windowStart) > l.block {
			delete(l.entries, key)
		}
	}
}

// makeRoom keeps the map under maxKeys. Expired windows go first, then the
// window with the fewest attempts, oldest first, so a flood of new keys
// cannot reset a throttled one. Caller holds mu.
func (l *AttemptLimiter) makeRoom(now time.Time) {
	if l.maxKeys <= 0 || len(l.entries) < l.maxKeys {
		return
	}
	l.evictExpired(now)
	for len(l.entries) >= l.maxKeys {
		var victim string
		var v *entry
		for key, e := range l.entries {
			if v == nil || e.count < v.count ||
				(e.count == v.count && e.windowStart.Before(v.windowStart)) {
				victim, v = key, e
			}
		}
		delete(l.entries, victim)
	}
}
