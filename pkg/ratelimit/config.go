package ratelimit

import (
	"strings"
	"time"
)

// Route categories.
const (
	CategoryAuth     = "auth"
	CategoryControls = "controls"
	CategorySensors  = "sensors"
	CategoryUsers    = "users"
	CategoryLog      = "log"
	CategoryHealth   = "health"
	CategoryDefault  = "default"
)

type Config struct {
	Limits          map[string]RateLimit `json:"limits"`
	RedisKeyPrefix  string               `json:"redisKeyPrefix"`
	CleanupInterval time.Duration        `json:"cleanupInterval"`
	Enabled         bool                 `json:"enabled"`
}

func DefaultConfig() *Config {
	return &Config{
		Limits: map[string]RateLimit{
			// failed logins terminate the session, keep retries scarce
			CategoryAuth:     {RequestsPerMinute: 10, BurstSize: 5, WindowSize: time.Minute},
			CategoryControls: {RequestsPerMinute: 120, BurstSize: 30, WindowSize: time.Minute},
			CategorySensors:  {RequestsPerMinute: 600, BurstSize: 100, WindowSize: time.Minute},
			CategoryUsers:    {RequestsPerMinute: 30, BurstSize: 10, WindowSize: time.Minute},
			CategoryLog:      {RequestsPerMinute: 60, BurstSize: 20, WindowSize: time.Minute},
			CategoryHealth:   {RequestsPerMinute: 1000, BurstSize: 100, WindowSize: time.Minute},
			CategoryDefault:  {RequestsPerMinute: 60, BurstSize: 15, WindowSize: time.Minute},
		},
		RedisKeyPrefix:  "ratelimit:",
		CleanupInterval: 5 * time.Minute,
		Enabled:         true,
	}
}

// routeCategories maps "METHOD:/path" patterns to categories. A trailing *
// matches any suffix.
var routeCategories = []struct {
	pattern  string
	category string
}{
	{"POST:/api/v1/auth/*", CategoryAuth},
	{"POST:/api/v1/vehicle/*", CategoryControls},
	{"GET:/api/v1/vehicle", CategoryControls},
	{"*:/api/v1/sensors/*", CategorySensors},
	{"*:/api/v1/users*", CategoryUsers},
	{"GET:/api/v1/log", CategoryLog},
	{"GET:/api/v1/archive", CategoryLog},
	{"GET:/api/v1/health", CategoryHealth},
}

// Category returns the rate limit category of a request.
func (c *Config) Category(method, path string) string {
	for _, route := range routeCategories {
		if matchesPattern(method, path, route.pattern) {
			return route.category
		}
	}
	return CategoryDefault
}

// Limit returns the limit for category, falling back to the default one.
func (c *Config) Limit(category string) RateLimit {
	if limit, ok := c.Limits[category]; ok {
		return limit
	}
	if limit, ok := c.Limits[CategoryDefault]; ok {
		return limit
	}
	return RateLimit{RequestsPerMinute: 60, BurstSize: 15, WindowSize: time.Minute}
}

func matchesPattern(method, path, pattern string) bool {
	patternMethod, patternPath, _ := strings.Cut(pattern, ":")
	if patternMethod != "*" && patternMethod != method {
		return false
	}
	if prefix, ok := strings.CutSuffix(patternPath, "*"); ok {
		return strings.HasPrefix(path, prefix)
	}
	return path == patternPath
}
