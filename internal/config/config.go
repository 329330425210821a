package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	HTTPAddr      string
	AuthJWTSecret string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	XP          XPConfig
	Leaderboard LeaderboardConfig
	RateLimit   RateLimitConfig
	Scheduler   SchedulerConfig
}

// XPConfig tunes the award processor and reconciler.
type XPConfig struct {
	DailyBaseCap   int64
	DriftThreshold int64
}

// LeaderboardConfig tunes the read-through projection cache.
type LeaderboardConfig struct {
	CacheTTL     time.Duration
	DefaultLimit int
	MaxLimit     int
}

// RateLimitConfig controls the redis-backed award rate limiter and the
// scheduler job locks. Disabled when RedisAddr is empty.
type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	AwardRate     float64
	AwardBurst    int
	LockTTL       time.Duration
}

// SchedulerConfig controls the background reconcile / SOTW jobs.
type SchedulerConfig struct {
	Enabled            bool
	RunInterval        time.Duration
	JobTimeout         time.Duration
	ReconcileBatchSize int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "ischkul"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),

		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		AuthJWTSecret: strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "ischkul"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 600),

		XP: XPConfig{
			DailyBaseCap:   getenvInt64("XP_DAILY_BASE_CAP", 50),
			DriftThreshold: getenvInt64("XP_DRIFT_THRESHOLD", 30),
		},
		Leaderboard: LeaderboardConfig{
			CacheTTL:     getenvDuration("LEADERBOARD_CACHE_TTL", 30*time.Second),
			DefaultLimit: getenvInt("LEADERBOARD_DEFAULT_LIMIT", 50),
			MaxLimit:     getenvInt("LEADERBOARD_MAX_LIMIT", 100),
		},
		RateLimit: RateLimitConfig{
			RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			RedisPassword: strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
			RedisDB:       getenvInt("REDIS_DB", 0),
			AwardRate:     getenvFloat("RATE_LIMIT_AWARD_RATE", 5),
			AwardBurst:    getenvInt("RATE_LIMIT_AWARD_BURST", 20),
			LockTTL:       getenvDuration("SCHEDULER_LOCK_TTL", 5*time.Minute),
		},
		Scheduler: SchedulerConfig{
			Enabled:            getenvBool("SCHEDULER_ENABLED", true),
			RunInterval:        getenvDuration("SCHEDULER_RUN_INTERVAL", time.Hour),
			JobTimeout:         getenvDuration("SCHEDULER_JOB_TIMEOUT", 10*time.Minute),
			ReconcileBatchSize: getenvInt("SCHEDULER_RECONCILE_BATCH_SIZE", 200),
		},
	}
	cfg.RateLimit.Enabled = cfg.RateLimit.RedisAddr != "" && getenvBool("RATE_LIMIT_ENABLED", true)

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
