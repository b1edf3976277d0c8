package httpapi

import (
	"sync"
	"time"
)

// RateLimiter is a fixed-window limiter keyed per API key. The window
// slides by timestamp eviction, so quota frees up as old requests age
// out rather than all at once.
type RateLimiter struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	buckets     map[int64][]time.Time
	now         func() time.Time
}

// NewRateLimiter creates a limiter allowing maxRequests per window for
// each API key.
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		buckets:     make(map[int64][]time.Time),
		now:         time.Now,
	}
}

// Allow reports whether a request for the given API key is permitted.
// When denied, retryAfter is how long until quota frees up.
func (rl *RateLimiter) Allow(apiKeyID int64) (allowed bool, retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)

	bucket := rl.buckets[apiKeyID]
	keep := bucket[:0]
	for _, ts := range bucket {
		if ts.After(cutoff) {
			keep = append(keep, ts)
		}
	}

	if len(keep) >= rl.maxRequests {
		rl.buckets[apiKeyID] = keep
		retry := keep[0].Add(rl.window).Sub(now)
		if retry < time.Second {
			retry = time.Second
		}
		return false, retry
	}

	rl.buckets[apiKeyID] = append(keep, now)
	return true, 0
}
