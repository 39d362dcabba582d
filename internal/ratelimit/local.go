package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const localIdleTTL = 30 * time.Minute

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// localBuckets is the per-instance fallback used when Redis is unavailable.
type localBuckets struct {
	mu      sync.Mutex
	entries map[string]*localEntry
	now     func() time.Time
}

func newLocalBuckets() *localBuckets {
	return &localBuckets{
		entries: make(map[string]*localEntry),
		now:     time.Now,
	}
}

func (b *localBuckets) Allow(key string, r float64, burst int) *RateLimitResult {
	now := b.now()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.evictLocked(now)
	entry, ok := b.entries[key]
	if !ok {
		entry = &localEntry{limiter: rate.NewLimiter(rate.Limit(r), burst)}
		b.entries[key] = entry
	}
	entry.lastSeen = now

	allowed := entry.limiter.AllowN(now, 1)
	remaining := entry.limiter.TokensAt(now)
	return &RateLimitResult{
		Allowed:    allowed,
		Limit:      burst,
		Remaining:  int(remaining),
		RetryAfter: retryAfter(allowed, remaining, r),
	}
}

func (b *localBuckets) evictLocked(now time.Time) {
	for key, entry := range b.entries {
		if now.Sub(entry.lastSeen) > localIdleTTL {
			delete(b.entries, key)
		}
	}
}
