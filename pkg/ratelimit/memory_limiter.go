package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryRateLimiter is a token bucket limiter kept in process memory. It is
// used when no Redis server is configured.
type MemoryRateLimiter struct {
	config  *Config
	total   atomic.Int64
	blocked atomic.Int64
	buckets map[string]*TokenBucket
	mu      sync.Mutex
	now     func() time.Time
}

func NewMemoryRateLimiter(config *Config) *MemoryRateLimiter {
	if config == nil {
		config = DefaultConfig()
	}

	return &MemoryRateLimiter{
		config:  config,
		buckets: make(map[string]*TokenBucket),
		now:     time.Now,
	}
}

func (r *MemoryRateLimiter) Allow(_ context.Context, clientID, category string) (bool, time.Duration, error) {
	if !r.config.Enabled {
		return true, 0, nil
	}

	r.total.Add(1)
	limit := r.config.Limit(category)
	key := clientID + ":" + category
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, ok := r.buckets[key]
	if !ok {
		bucket = &TokenBucket{
			Capacity:   limit.BurstSize,
			Tokens:     float64(limit.BurstSize),
			RefillRate: float64(limit.RequestsPerMinute) / time.Minute.Seconds(),
			LastRefill: now,
		}
		r.buckets[key] = bucket
	}

	elapsed := now.Sub(bucket.LastRefill).Seconds()
	bucket.Tokens = min(float64(bucket.Capacity), bucket.Tokens+elapsed*bucket.RefillRate)
	bucket.LastRefill = now

	if bucket.Tokens >= 1 {
		bucket.Tokens--
		return true, 0, nil
	}

	r.blocked.Add(1)
	if bucket.RefillRate <= 0 {
		return false, limit.WindowSize, nil
	}
	wait := time.Duration((1 - bucket.Tokens) / bucket.RefillRate * float64(time.Second))
	return false, wait, nil
}

func (r *MemoryRateLimiter) Limit(category string) RateLimit {
	return r.config.Limit(category)
}

func (r *MemoryRateLimiter) GetStats() RateLimiterStats {
	r.mu.Lock()
	clients := len(r.buckets)
	r.mu.Unlock()

	return newStats(r.total.Load(), r.blocked.Load(), clients)
}

// Run drops idle buckets every cleanup interval until ctx is done.
func (r *MemoryRateLimiter) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.cleanup(time.Hour)
		}
	}
}

func (r *MemoryRateLimiter) cleanup(idle time.Duration) {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, bucket := range r.buckets {
		if now.Sub(bucket.LastRefill) > idle {
			delete(r.buckets, key)
		}
	}
}

func newStats(total, blocked int64, clients int) RateLimiterStats {
	stats := RateLimiterStats{
		TotalRequests:   total,
		BlockedRequests: blocked,
		ActiveClients:   clients,
	}
	if total > 0 {
		stats.BlockedPercent = float64(blocked) / float64(total) * 100
	}
	return stats
}
