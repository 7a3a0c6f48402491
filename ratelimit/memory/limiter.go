// Package memorylimiter is a single-node sliding-window rate limiter, the
// fallback when no Redis address is configured.
package memorylimiter

import (
	"fmt"
	"sync"
	"time"
)

// Limit defines window and max count for a bucket.
type Limit struct {
	Limit  int
	Window time.Duration
}

// Limiter tracks request timestamps per key+bucket in memory. Entries are
// pruned on access, so a bucket's footprint is bounded by its limit.
type Limiter struct {
	mu      sync.Mutex
	limits  map[string]Limit
	buckets map[string][]int64 // Unix ms, oldest first

	nowMs func() int64
}

// New constructs an in-memory limiter with the provided per-bucket limits.
// A "default" entry covers buckets without an explicit limit.
func New(limits map[string]Limit) *Limiter {
	if limits == nil {
		limits = map[string]Limit{}
	}
	return &Limiter{
		limits:  limits,
		buckets: make(map[string][]int64),
		nowMs:   func() int64 { return time.Now().UnixMilli() },
	}
}

func (l *Limiter) limitFor(bucket string) Limit {
	if v, ok := l.limits[bucket]; ok {
		return v
	}
	if v, ok := l.limits["default"]; ok {
		return v
	}
	return Limit{Limit: 60, Window: time.Minute}
}

// AllowNamed matches the gin adapter's RateLimiter interface. A denied
// attempt is not recorded, so hammering a full bucket does not extend the
// lockout.
func (l *Limiter) AllowNamed(bucket, key string) (bool, error) {
	if l == nil {
		return true, nil
	}
	if bucket == "" || key == "" {
		return false, fmt.Errorf("bucket and key required")
	}

	lim := l.limitFor(bucket)
	now := l.nowMs()
	cutoff := now - lim.Window.Milliseconds()
	k := key + ":" + bucket

	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.buckets[k]
	for len(ts) > 0 && ts[0] < cutoff {
		ts = ts[1:]
	}
	if len(ts) >= lim.Limit {
		l.buckets[k] = ts
		return false, nil
	}
	l.buckets[k] = append(ts, now)
	return true, nil
}
