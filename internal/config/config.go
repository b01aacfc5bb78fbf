package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	GinMode        string
	AllowedOrigins []string

	Admin AdminConfig

	JWTSecret string
	JWTExpiry time.Duration

	Redis         RedisConfig
	MongoURI      string
	MongoDatabase string

	Archive          ArchiveConfig
	RateLimitEnabled bool
	RedisKeyPrefix   string
}

// AdminConfig describes the admin user created at startup.
type AdminConfig struct {
	Name     string
	Surname  string
	Username string
}

type RedisConfig struct {
	URL          string
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	RetryDelay   time.Duration
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
}

// Enabled reports whether a Redis server was configured.
func (c RedisConfig) Enabled() bool {
	return c.URL != "" || c.Host != ""
}

// Addr is the host:port pair, used for diagnostics.
func (c RedisConfig) Addr() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

type ArchiveConfig struct {
	BatchSize     int
	FlushInterval time.Duration
	RetryAttempts int
	RetryBackoff  time.Duration
	// Retention of archived entries; zero keeps them forever.
	Retention       time.Duration
	CleanupInterval time.Duration
}

// DefaultRedisConfig returns pool settings suited to a single control unit.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Port:         "6379",
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		RetryDelay:   time.Second,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
	}
}

func Load() (*Config, error) {
	// a missing .env file is fine, the environment may already be set
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	var errs []string
	env := envReader{errs: &errs}

	redisCfg := DefaultRedisConfig()
	redisCfg.URL = os.Getenv("REDIS_URL")
	redisCfg.Host = os.Getenv("REDIS_HOST")
	redisCfg.Port = env.getString("REDIS_PORT", redisCfg.Port)
	redisCfg.Password = os.Getenv("REDIS_PASSWORD")
	redisCfg.DB = env.getInt("REDIS_DB", 0)
	redisCfg.PoolSize = env.getInt("REDIS_POOL_SIZE", redisCfg.PoolSize)
	redisCfg.MinIdleConns = env.getInt("REDIS_MIN_IDLE_CONNS", redisCfg.MinIdleConns)
	redisCfg.MaxRetries = env.getInt("REDIS_MAX_RETRIES", redisCfg.MaxRetries)

	cfg := &Config{
		Port:    env.getString("PORT", "8080"),
		GinMode: os.Getenv("GIN_MODE"),
		Admin: AdminConfig{
			Name:     env.getString("ADMIN_NAME", "John"),
			Surname:  env.getString("ADMIN_SURNAME", "Doe"),
			Username: env.getString("ADMIN_USERNAME", "admin"),
		},
		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTExpiry:     env.getDuration("JWT_EXPIRY", 24*time.Hour),
		Redis:         redisCfg,
		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDatabase: env.getString("MONGO_DATABASE", "driverless"),
		Archive: ArchiveConfig{
			BatchSize:     env.getInt("ARCHIVE_BATCH_SIZE", 50),
			FlushInterval: env.getDuration("ARCHIVE_INTERVAL", 5*time.Second),
			RetryAttempts: env.getInt("ARCHIVE_RETRY_ATTEMPTS", 3),
			RetryBackoff:  env.getDuration("ARCHIVE_RETRY_BACKOFF", 500*time.Millisecond),

			Retention:       env.getDuration("ARCHIVE_RETENTION", 0),
			CleanupInterval: env.getDuration("ARCHIVE_CLEANUP_INTERVAL", time.Hour),
		},
		RateLimitEnabled: env.getBool("RATE_LIMIT_ENABLED", true),
		RedisKeyPrefix:   env.getString("REDIS_KEY_PREFIX", "driverless:"),
	}

	allowedOrigins := env.getString("ALLOWED_ORIGINS", "*")
	for _, origin := range strings.Split(allowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	if cfg.Admin.Username == "" {
		errs = append(errs, "ADMIN_USERNAME must not be empty")
	}
	if cfg.Archive.BatchSize <= 0 {
		errs = append(errs, "ARCHIVE_BATCH_SIZE must be positive")
	}
	if cfg.Archive.Retention < 0 {
		errs = append(errs, "ARCHIVE_RETENTION must not be negative")
	}
	if cfg.Archive.CleanupInterval <= 0 {
		errs = append(errs, "ARCHIVE_CLEANUP_INTERVAL must be positive")
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// envReader collects parse failures instead of stopping at the first one.
type envReader struct {
	errs *[]string
}

func (r envReader) getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func (r envReader) getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*r.errs = append(*r.errs, fmt.Sprintf("%s: %q is not an integer", key, v))
		return fallback
	}
	return n
}

func (r envReader) getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*r.errs = append(*r.errs, fmt.Sprintf("%s: %q is not a duration", key, v))
		return fallback
	}
	return d
}

func (r envReader) getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*r.errs = append(*r.errs, fmt.Sprintf("%s: %q is not a boolean", key, v))
		return fallback
	}
	return b
}
