package ratelimit

import (
	"context"
	"time"
)

// RateLimiter throttles console requests per client and route category.
type RateLimiter interface {
	// Allow reports whether one more request fits the limit and, when it
	// does not, how long until it will.
	Allow(ctx context.Context, clientID, category string) (bool, time.Duration, error)
	Limit(category string) RateLimit
	GetStats() RateLimiterStats
}

// RateLimit allows BurstSize requests per WindowSize.
type RateLimit struct {
	RequestsPerMinute int           `json:"requestsPerMinute"`
	BurstSize         int           `json:"burstSize"`
	WindowSize        time.Duration `json:"windowSize"`
}

type RateLimiterStats struct {
	TotalRequests   int64   `json:"totalRequests"`
	BlockedRequests int64   `json:"blockedRequests"`
	BlockedPercent  float64 `json:"blockedPercent"`
	ActiveClients   int     `json:"activeClients"`
}

// TokenBucket is the in-memory state for one client and category.
type TokenBucket struct {
	Capacity   int       `json:"capacity"`
	Tokens     float64   `json:"tokens"`
	RefillRate float64   `json:"refillRate"`
	LastRefill time.Time `json:"lastRefill"`
}
