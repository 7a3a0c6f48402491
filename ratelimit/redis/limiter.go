// Package redislimiter is the production sliding-window rate limiter; every
// API node shares the same Redis-backed counters.
package redislimiter

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "playkit:rl:"

// Limit defines window and max count for a bucket.
type Limit struct {
	Limit  int
	Window time.Duration
}

// Limiter implements a sliding window over a Redis ZSET per key+bucket. The
// window advances by score trimming, so limits hold across process restarts.
type Limiter struct {
	rdb    *redis.Client
	limits map[string]Limit
}

// New constructs a Redis-backed limiter with the provided per-bucket limits.
// A "default" entry covers buckets without an explicit limit.
func New(rdb *redis.Client, limits map[string]Limit) *Limiter {
	if limits == nil {
		limits = map[string]Limit{}
	}
	return &Limiter{rdb: rdb, limits: limits}
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

// AllowNamed matches the gin adapter's RateLimiter interface.
func (l *Limiter) AllowNamed(bucket, key string) (bool, error) {
	if l == nil || l.rdb == nil {
		return true, nil
	}
	if bucket == "" || key == "" {
		return false, fmt.Errorf("bucket and key required")
	}

	ctx := context.Background()
	lim := l.limitFor(bucket)
	now := time.Now().UnixMilli()
	windowStart := now - lim.Window.Milliseconds()
	zkey := keyPrefix + key + ":" + bucket

	pipe := l.rdb.TxPipeline()
	pipe.ZAdd(ctx, zkey, redis.Z{Score: float64(now), Member: now})
	pipe.ZRemRangeByScore(ctx, zkey, "0", strconv.FormatInt(windowStart, 10))
	countCmd := pipe.ZCard(ctx, zkey)
	pipe.Expire(ctx, zkey, lim.Window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	count, err := countCmd.Result()
	if err != nil {
		return false, err
	}
	if count > int64(lim.Limit) {
		// Denied attempts do not count against the window.
		l.rdb.ZRem(ctx, zkey, now)
		return false, nil
	}
	return true, nil
}
