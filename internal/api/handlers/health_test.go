package handlers

import (
	"context"
	"driverless-backend/internal/config"
	"driverless-backend/pkg/ratelimit"
	"driverless-backend/pkg/redis"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type healthBody struct {
	Status   string                            `json:"status"`
	Services map[string]map[string]interface{} `json:"services"`
}

func TestHealthCheckWithoutBackends(t *testing.T) {
	env := newTestEnv(t)
	handler := NewHealthHandler(nil, nil)
	handler.SetRateLimiter(ratelimit.NewMemoryRateLimiter(nil))
	env.router.GET("/health", handler.HealthCheck)

	w := env.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body healthBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, false, body.Services["mongodb"]["enabled"])
	assert.Equal(t, false, body.Services["redis"]["enabled"])
	assert.Contains(t, body.Services, "rateLimiter")
}

func TestHealthCheckRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.DefaultRedisConfig()
	cfg.Host = mr.Host()
	cfg.Port = mr.Port()
	cfg.MaxRetries = 0
	cfg.DialTimeout = 200 * time.Millisecond

	client := redis.NewClient(context.Background(), cfg)
	t.Cleanup(func() { client.Close() })

	env := newTestEnv(t)
	env.router.GET("/health", NewHealthHandler(nil, client).HealthCheck)

	w := env.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body healthBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body.Services["redis"]["healthy"])

	mr.Close()

	w = env.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body.Status)
}
