package routes

import (
	"driverless-backend/internal/api/handlers"
	"driverless-backend/internal/api/middleware"
	"driverless-backend/internal/services"
	"driverless-backend/internal/websocket"
	"driverless-backend/pkg/ratelimit"

	"github.com/gin-gonic/gin"
)

// Dependencies are the components the console is built on. Archive,
// Health and RateLimiter are optional.
type Dependencies struct {
	Unit            *services.ControlUnit
	Sessions        *services.SessionService
	WebSocket       *websocket.Manager
	Health          *handlers.HealthHandler
	Archive         handlers.IncidentArchive
	RateLimiter     ratelimit.RateLimiter
	RateLimitConfig *ratelimit.Config
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	authHandler := handlers.NewAuthHandler(deps.Sessions)
	userHandler := handlers.NewUserHandler(deps.Unit)
	vehicleHandler := handlers.NewVehicleHandler(deps.Unit)
	sensorHandler := handlers.NewSensorHandler(deps.Unit)
	logHandler := handlers.NewLogHandler(deps.Unit, deps.Archive)
	wsHandler := handlers.NewWebSocketHandler(deps.WebSocket)

	healthHandler := deps.Health
	if healthHandler == nil {
		healthHandler = handlers.NewHealthHandler(nil, nil)
	}

	api := router.Group("/api/v1")
	if deps.RateLimiter != nil && deps.RateLimitConfig != nil {
		api.Use(middleware.RateLimitMiddleware(deps.RateLimiter, deps.RateLimitConfig))
	}

	// Public routes
	api.GET("/health", healthHandler.HealthCheck)
	api.POST("/auth/login", authHandler.Login)

	// Protected routes
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(deps.Sessions))
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/auth/me", authHandler.Me)
		protected.POST("/auth/refresh", authHandler.Refresh)

		users := protected.Group("/users")
		{
			users.GET("", userHandler.GetUsers)
			users.POST("", userHandler.CreateUser)
			users.DELETE("/:username", userHandler.DeleteUser)
		}

		vehicle := protected.Group("/vehicle")
		{
			vehicle.GET("", vehicleHandler.GetStatus)
			vehicle.POST("/start", vehicleHandler.Start)
			vehicle.POST("/stop", vehicleHandler.Stop)
			vehicle.POST("/accelerate", vehicleHandler.Accelerate)
			vehicle.POST("/brake", vehicleHandler.Brake)
			vehicle.POST("/direction", vehicleHandler.ChangeDirection)
			vehicle.POST("/lane", vehicleHandler.ChangeLane)
		}

		sensors := protected.Group("/sensors")
		{
			sensors.POST("/obstacles", sensorHandler.RecordObstacle)
			sensors.GET("/obstacles", sensorHandler.GetObstacles)
			sensors.POST("/vehicles", sensorHandler.RecordPeerVehicle)
			sensors.GET("/vehicles", sensorHandler.GetPeerVehicles)
			sensors.POST("/signs", sensorHandler.RecordSign)
		}

		protected.GET("/log", logHandler.ReadLog)
		protected.GET("/archive", logHandler.GetArchive)

		protected.GET("/ws", wsHandler.HandleWebSocket)
		protected.GET("/ws/clients", wsHandler.GetConnectedClients)
		protected.DELETE("/ws/clients/:clientId", wsHandler.DisconnectClient)
	}
}
