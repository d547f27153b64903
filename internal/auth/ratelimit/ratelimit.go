// Package ratelimit throttles login attempts per account key.
package ratelimit

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultMaxEntries = 100_000
	defaultIdleTTL    = 10 * time.Minute
	defaultSweepEvery = time.Minute
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LoginLimiter keeps one token bucket per (kind, tenant slug, email). The map
// is bounded: when full, idle buckets are evicted first and, failing that,
// the least recently used one.
type LoginLimiter struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	limit      rate.Limit
	burst      int
	maxEntries int
	idleTTL    time.Duration
	now        func() time.Time
}

type Option func(*LoginLimiter)

func WithMaxEntries(n int) Option {
	return func(l *LoginLimiter) {
		if n > 0 {
			l.maxEntries = n
		}
	}
}

func WithIdleTTL(d time.Duration) Option {
	return func(l *LoginLimiter) {
		if d > 0 {
			l.idleTTL = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *LoginLimiter) {
		l.now = now
	}
}

// New allows perMinute attempts per key with the given burst. A non-positive
// perMinute disables throttling.
func New(perMinute, burst int, opts ...Option) *LoginLimiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(float64(perMinute) / 60)
	}
	if burst <= 0 {
		burst = 1
	}
	l := &LoginLimiter{
		buckets:    make(map[string]*bucket),
		limit:      limit,
		burst:      burst,
		maxEntries: defaultMaxEntries,
		idleTTL:    defaultIdleTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Key builds the bucket key for a login attempt.
func Key(kind, tenantSlug, email string) string {
	return kind + "|" + strings.ToLower(tenantSlug) + "|" + strings.ToLower(strings.TrimSpace(email))
}

// Allow consumes one token for key and reports whether the attempt may proceed.
func (l *LoginLimiter) Allow(key string) bool {
	if l.limit == rate.Inf {
		return true
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= l.maxEntries {
			l.evictLocked(now)
		}
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// Len reports how many buckets are tracked.
func (l *LoginLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Sweep drops buckets idle for longer than the idle TTL.
func (l *LoginLimiter) Sweep() int {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sweepLocked(now)
}

// Start sweeps idle buckets until ctx is cancelled.
func (l *LoginLimiter) Start(ctx context.Context) error {
	ticker := time.NewTicker(defaultSweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.Sweep()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *LoginLimiter) sweepLocked(now time.Time) int {
	removed := 0
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idleTTL {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

func (l *LoginLimiter) evictLocked(now time.Time) {
	if l.sweepLocked(now) > 0 {
		return
	}
	var (
		oldestKey  string
		oldestSeen time.Time
	)
	for key, b := range l.buckets {
		if oldestKey == "" || b.lastSeen.Before(oldestSeen) {
			oldestKey, oldestSeen = key, b.lastSeen
		}
	}
	delete(l.buckets, oldestKey)
}
