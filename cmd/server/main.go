package main

import (
	"context"
	"driverless-backend/internal/api/handlers"
	"driverless-backend/internal/api/routes"
	"driverless-backend/internal/config"
	"driverless-backend/internal/models"
	"driverless-backend/internal/repository"
	"driverless-backend/internal/services"
	"driverless-backend/internal/websocket"
	"driverless-backend/pkg/batch"
	"driverless-backend/pkg/cleanup"
	"driverless-backend/pkg/database"
	"driverless-backend/pkg/jwt"
	"driverless-backend/pkg/pubsub"
	"driverless-backend/pkg/ratelimit"
	"driverless-backend/pkg/redis"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
	log.Println("Server stopped")
}

func run(cfg *config.Config) error {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	unit := services.NewControlUnit(models.User{
		Name:     cfg.Admin.Name,
		Surname:  cfg.Admin.Surname,
		Username: cfg.Admin.Username,
	})
	if cfg.JWTSecret == "" {
		log.Println("JWT_SECRET not set, using a development secret")
	}
	sessions := services.NewSessionService(unit, jwt.NewJWTUtil(cfg.JWTSecret, cfg.JWTExpiry))

	// Live incident stream
	wsManager := websocket.NewManager()
	wsManager.SetSnapshotSource(unit.Status)
	unit.AddObserver(wsManager)
	g.Go(func() error { return wsManager.Run(gctx) })

	limitConfig := ratelimit.DefaultConfig()
	limitConfig.Enabled = cfg.RateLimitEnabled
	limitConfig.RedisKeyPrefix = cfg.RedisKeyPrefix + "ratelimit:"

	var (
		redisClient *redis.Client
		limiter     ratelimit.RateLimiter
	)
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(gctx, cfg.Redis)
		defer redisClient.Close()

		healthStatus := redisClient.HealthCheck(gctx)
		if healthStatus.IsConnected {
			log.Printf("Redis connected successfully at %s", healthStatus.ConnectionInfo)
		} else {
			log.Printf("Redis connection failed: %s (will retry automatically)", healthStatus.Error)
		}

		publisher := pubsub.NewPublisher(redisClient, cfg.RedisKeyPrefix, 1000)
		unit.AddObserver(publisher)
		g.Go(func() error { return publisher.Run(gctx) })

		limiter = ratelimit.NewManagedRedisRateLimiter(redisClient.GetClient, limitConfig)
	} else {
		log.Println("REDIS_URL/REDIS_HOST not set, using in-memory rate limiting")
		memLimiter := ratelimit.NewMemoryRateLimiter(limitConfig)
		g.Go(func() error { return memLimiter.Run(gctx) })
		limiter = memLimiter
	}

	var (
		healthDB *mongo.Database
		archive  handlers.IncidentArchive
		archiver *batch.Archiver
	)
	if cfg.MongoURI != "" {
		connectCtx, cancel := context.WithTimeout(gctx, 10*time.Second)
		db, err := database.Connect(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
		cancel()
		if err != nil {
			return err
		}
		defer database.Disconnect(db.Client())

		repo := repository.NewIncidentRepository(db)
		archiver, err = batch.NewArchiver(batch.ConfigFromArchive(cfg.Archive), repo)
		if err != nil {
			return err
		}
		unit.AddObserver(archiver)
		g.Go(func() error { return archiver.Run(gctx) })
		archive = repo
		healthDB = db

		if cfg.Archive.Retention > 0 {
			pruner := cleanup.NewCleanupService(repo, cfg.Archive.Retention, cfg.Archive.CleanupInterval)
			g.Go(func() error { return pruner.Run(gctx) })
		}
	} else {
		log.Println("MONGO_URI not set, incident archive disabled")
	}

	health := handlers.NewHealthHandler(healthDB, redisClient)
	health.SetRateLimiter(limiter)
	if archiver != nil {
		health.SetArchiver(archiver)
	}

	router := gin.Default()
	router.Use(cors.New(corsConfig(cfg.AllowedOrigins)))
	routes.SetupRoutes(router, routes.Dependencies{
		Unit:            unit,
		Sessions:        sessions,
		WebSocket:       wsManager,
		Health:          health,
		Archive:         archive,
		RateLimiter:     limiter,
		RateLimitConfig: limitConfig,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	g.Go(func() error {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func corsConfig(allowedOrigins []string) cors.Config {
	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Upgrade", "Connection", "Sec-WebSocket-Key", "Sec-WebSocket-Version", "Sec-WebSocket-Protocol"},
		ExposeHeaders: []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Burst", "Retry-After"},
	}

	// Handle wildcard origin for development
	if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = allowedOrigins
		corsConfig.AllowCredentials = true
	}
	return corsConfig
}
