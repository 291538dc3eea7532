// Package ratelimit throttles requests per client, either in process or
// through a redis sliding window shared by every instance.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Limiter decides whether the client identified by key may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter keeps one token bucket per key in process memory
type LocalLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	clock    func() time.Time
}

// NewLocalLimiter allows burst requests at once and refills at limit per second
func NewLocalLimiter(limit rate.Limit, burst int) *LocalLimiter {
	if burst < 1 {
		burst = 1
	}
	return &LocalLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		burst:    burst,
		clock:    time.Now,
	}
}

// PerWindow builds a LocalLimiter allowing max requests per window
func PerWindow(max int, window time.Duration) *LocalLimiter {
	if max < 1 {
		max = 1
	}
	return NewLocalLimiter(rate.Every(window/time.Duration(max)), max)
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	v, exists := l.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now

	return v.limiter.AllowN(now, 1), nil
}

// Prune forgets keys not seen for idle and returns how many were removed
func (l *LocalLimiter) Prune(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.clock().Add(-idle)
	removed := 0
	for key, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys
func (l *LocalLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

const DefaultRedisPrefix = "taskboard:rate_limit:"

// RedisLimiter counts requests in a sorted set per key over a sliding window
type RedisLimiter struct {
	client redis.UniversalClient
	max    int
	window time.Duration
	prefix string
	clock  func() time.Time
}

// NewRedisLimiter allows max requests per window for every key
func NewRedisLimiter(client redis.UniversalClient, max int, window time.Duration, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisLimiter{
		client: client,
		max:    max,
		window: window,
		prefix: prefix,
		clock:  time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := l.clock().UnixNano()
	windowStart := now - l.window.Nanoseconds()
	redisKey := l.prefix + key

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(windowStart, 10))
	countCmd := pipe.ZCard(ctx, redisKey)
	pipe.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now),
		Member: strconv.FormatInt(now, 10) + ":" + uuid.NewString(),
	})
	pipe.Expire(ctx, redisKey, l.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit pipeline: %w", err)
	}

	return countCmd.Val() < int64(l.max), nil
}
