package handlers

import (
	"context"
	"driverless-backend/pkg/batch"
	"driverless-backend/pkg/database"
	"driverless-backend/pkg/ratelimit"
	"driverless-backend/pkg/redis"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// HealthHandler reports the optional backing services. A service that was
// not configured is reported as disabled and does not make the unit
// unhealthy: the control core works without any of them.
type HealthHandler struct {
	db          *mongo.Database
	redisClient *redis.Client
	archiver    *batch.Archiver
	limiter     ratelimit.RateLimiter
}

type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Services  map[string]interface{} `json:"services"`
}

func NewHealthHandler(db *mongo.Database, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{
		db:          db,
		redisClient: redisClient,
	}
}

func (h *HealthHandler) SetArchiver(archiver *batch.Archiver) {
	h.archiver = archiver
}

func (h *HealthHandler) SetRateLimiter(limiter ratelimit.RateLimiter) {
	h.limiter = limiter
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Timestamp: time.Now(),
		Services:  make(map[string]interface{}),
	}

	mongoStatus := h.checkMongoDB(c.Request.Context())
	redisStatus := h.checkRedis(c.Request.Context())
	response.Services["mongodb"] = mongoStatus
	response.Services["redis"] = redisStatus

	if h.archiver != nil {
		response.Services["archive"] = h.archiver.GetBatchStats()
	}
	if h.limiter != nil {
		response.Services["rateLimiter"] = h.limiter.GetStats()
	}

	if mongoStatus["healthy"] == false || redisStatus["healthy"] == false {
		response.Status = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	response.Status = "healthy"
	c.JSON(http.StatusOK, response)
}

func (h *HealthHandler) checkMongoDB(ctx context.Context) map[string]interface{} {
	status := map[string]interface{}{
		"service": "mongodb",
	}

	if h.db == nil {
		status["enabled"] = false
		return status
	}

	status["enabled"] = true
	if err := database.Health(ctx, h.db); err != nil {
		status["healthy"] = false
		status["error"] = err.Error()
		return status
	}
	status["healthy"] = true
	status["message"] = "Connected"
	return status
}

func (h *HealthHandler) checkRedis(ctx context.Context) map[string]interface{} {
	status := map[string]interface{}{
		"service": "redis",
	}

	if h.redisClient == nil {
		status["enabled"] = false
		return status
	}

	healthStatus := h.redisClient.HealthCheck(ctx)
	status["enabled"] = true
	status["healthy"] = healthStatus.IsConnected
	status["connectionInfo"] = healthStatus.ConnectionInfo
	status["responseTime"] = healthStatus.ResponseTime.String()
	status["lastPing"] = healthStatus.LastPing
	status["connectionStats"] = h.redisClient.GetConnectionStats()

	if healthStatus.Error != "" {
		status["error"] = healthStatus.Error
	}
	return status
}
