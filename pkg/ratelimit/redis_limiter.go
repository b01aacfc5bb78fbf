package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript counts requests in a window that starts with the first
// request and returns {allowed, milliseconds until the window resets}.
var fixedWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local burst_size = tonumber(ARGV[1])
	local window_size = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])

	local count = tonumber(redis.call('HGET', key, 'count')) or 0
	local window_start = tonumber(redis.call('HGET', key, 'window_start')) or now

	if now - window_start >= window_size then
		count = 0
		window_start = now
	end

	local allowed = count < burst_size
	if allowed then
		count = count + 1
	end

	local reset_ms = 0
	if not allowed then
		reset_ms = (window_start + window_size) - now
	end

	redis.call('HSET', key, 'count', count, 'window_start', window_start)
	redis.call('PEXPIRE', key, window_size)

	return {allowed and 1 or 0, reset_ms}
`)

// RedisRateLimiter shares limits between console instances through Redis.
type RedisRateLimiter struct {
	client  func() *redis.Client
	config  *Config
	total   atomic.Int64
	blocked atomic.Int64
	now     func() time.Time
}

func NewRedisRateLimiter(client *redis.Client, config *Config) *RedisRateLimiter {
	return NewManagedRedisRateLimiter(func() *redis.Client { return client }, config)
}

// NewManagedRedisRateLimiter looks the client up on every request, so a
// reconnecting client wrapper can swap it underneath.
func NewManagedRedisRateLimiter(client func() *redis.Client, config *Config) *RedisRateLimiter {
	if config == nil {
		config = DefaultConfig()
	}

	return &RedisRateLimiter{
		client: client,
		config: config,
		now:    time.Now,
	}
}

var errNoClient = errors.New("redis client not initialized")

func (r *RedisRateLimiter) Allow(ctx context.Context, clientID, category string) (bool, time.Duration, error) {
	if !r.config.Enabled {
		return true, 0, nil
	}

	r.total.Add(1)
	limit := r.config.Limit(category)
	key := fmt.Sprintf("%s%s:%s", r.config.RedisKeyPrefix, clientID, category)

	client := r.client()
	if client == nil {
		return false, 0, errNoClient
	}

	result, err := fixedWindowScript.Run(ctx, client, []string{key},
		limit.BurstSize,
		limit.WindowSize.Milliseconds(),
		r.now().UnixMilli(),
	).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit check failed: %w", err)
	}
	if len(result) != 2 {
		return false, 0, fmt.Errorf("unexpected script result %v", result)
	}

	if result[0] == 1 {
		return true, 0, nil
	}

	r.blocked.Add(1)
	return false, time.Duration(result[1]) * time.Millisecond, nil
}

func (r *RedisRateLimiter) Limit(category string) RateLimit {
	return r.config.Limit(category)
}

// GetStats reports the counters of this instance. ActiveClients counts the
// rate limit keys currently alive in Redis.
func (r *RedisRateLimiter) GetStats() RateLimiterStats {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	clients := 0
	client := r.client()
	if client == nil {
		return newStats(r.total.Load(), r.blocked.Load(), clients)
	}
	iter := client.Scan(ctx, 0, r.config.RedisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		clients++
	}

	return newStats(r.total.Load(), r.blocked.Load(), clients)
}
