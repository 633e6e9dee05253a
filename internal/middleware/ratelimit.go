package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"floreria/internal/services"

	"golang.org/x/time/rate"
)

// RateLimiter is satisfied by the Redis backed cache service and by
// LocalRateLimiter.
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (*services.RateLimitResult, error)
}

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalRateLimiter keeps one token bucket per key in process memory. It is
// used when Redis is not configured, so limits are per instance.
type LocalRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*localEntry
	idle     time.Duration
	now      func() time.Time
}

// NewLocalRateLimiter drops buckets that were not used for idle.
func NewLocalRateLimiter(idle time.Duration) *LocalRateLimiter {
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	return &LocalRateLimiter{
		limiters: make(map[string]*localEntry),
		idle:     idle,
		now:      time.Now,
	}
}

// CheckRateLimit refills limit tokens over window with a burst of limit.
func (l *LocalRateLimiter) CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (*services.RateLimitResult, error) {
	if limit <= 0 || window <= 0 {
		return nil, fmt.Errorf("invalid rate limit %d per %s", limit, window)
	}

	now := l.now()
	lim := l.limiter(key, limit, window, now)

	reservation := lim.ReserveN(now, 1)
	if !reservation.OK() {
		return nil, fmt.Errorf("rate limiter for %s cannot grant a token", key)
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return &services.RateLimitResult{
			Allowed:    false,
			Count:      limit + 1,
			ResetTime:  now.Add(delay),
			RetryAfter: delay,
		}, nil
	}

	remaining := int64(lim.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	refill := time.Duration(float64(window) * float64(limit-remaining) / float64(limit))
	return &services.RateLimitResult{
		Allowed:   true,
		Count:     limit - remaining,
		Remaining: remaining,
		ResetTime: now.Add(refill),
	}, nil
}

func (l *LocalRateLimiter) limiter(key string, limit int64, window time.Duration, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	every := rate.Every(window / time.Duration(limit))
	entry, ok := l.limiters[key]
	if !ok || entry.limiter.Limit() != every || entry.limiter.Burst() != int(limit) {
		entry = &localEntry{limiter: rate.NewLimiter(every, int(limit))}
		l.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// Cleanup removes buckets idle for longer than the configured duration and
// returns how many were dropped.
func (l *LocalRateLimiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.idle)
	removed := 0
	for key, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, key)
			removed++
		}
	}
	return removed
}

// StartCleanup runs Cleanup every interval until ctx is done.
func (l *LocalRateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Cleanup()
			}
		}
	}()
}

func (l *LocalRateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}
