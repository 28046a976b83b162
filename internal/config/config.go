package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr     string
	DBPath   string
	LogLevel string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisNamespace string

	UpstreamBaseURL string
	UpstreamToken   string
	UpstreamTimeout time.Duration

	CacheTTL     time.Duration
	CacheMaxSize int
	CacheStorage string
	CachePrefix  string

	ScheduleKey string
	Timezone    string

	WarmWorkerCount int
	WarmQueueSize   int
	WarmPaths       []string
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:            envOr("ADDR", ":8080"),
		DBPath:          envOr("DB_PATH", "file:studyflash.db"),
		LogLevel:        envOr("LOG_LEVEL", "INFO"),
		RedisAddr:       envOr("REDIS_ADDR", ""),
		RedisPassword:   envOr("REDIS_PASSWORD", ""),
		RedisDB:         envIntOr("REDIS_DB", 0),
		RedisNamespace:  envOr("REDIS_NAMESPACE", "studyflash"),
		UpstreamBaseURL: envOr("UPSTREAM_BASE_URL", "http://localhost:8000"),
		UpstreamToken:   envOr("UPSTREAM_TOKEN", ""),
		UpstreamTimeout: envDurationOr("UPSTREAM_TIMEOUT", 15*time.Second),
		CacheTTL:        envDurationOr("CACHE_TTL", 5*time.Minute),
		CacheMaxSize:    envIntOr("CACHE_MAX_SIZE", 100),
		CacheStorage:    envOr("CACHE_STORAGE", "memory"),
		CachePrefix:     envOr("CACHE_PREFIX", "api_cache_"),
		ScheduleKey:     envOr("SCHEDULE_KEY", "review_schedule"),
		Timezone:        envOr("TIMEZONE", "Local"),
		WarmWorkerCount: envIntOr("WARM_WORKER_COUNT", 2),
		WarmQueueSize:   envIntOr("WARM_QUEUE_SIZE", 32),
		WarmPaths:       envListOr("WARM_PATHS", nil),
	}
}

// Validate checks every field and reports all problems found, joined together.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, fmt.Errorf("ADDR cannot be empty"))
	}
	if c.DBPath == "" {
		errs = append(errs, fmt.Errorf("DB_PATH cannot be empty"))
	}
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of DEBUG, INFO, WARN, ERROR, got %q", c.LogLevel))
	}
	if c.RedisDB < 0 {
		errs = append(errs, fmt.Errorf("REDIS_DB cannot be negative, got %d", c.RedisDB))
	}
	if c.UpstreamBaseURL == "" {
		errs = append(errs, fmt.Errorf("UPSTREAM_BASE_URL cannot be empty"))
	}
	if c.UpstreamTimeout <= 0 {
		errs = append(errs, fmt.Errorf("UPSTREAM_TIMEOUT must be positive, got %s", c.UpstreamTimeout))
	}
	if c.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("CACHE_TTL cannot be negative, got %s", c.CacheTTL))
	}
	if c.CacheMaxSize < 1 {
		errs = append(errs, fmt.Errorf("CACHE_MAX_SIZE must be at least 1, got %d", c.CacheMaxSize))
	}
	switch c.CacheStorage {
	case "memory", "local", "session":
	default:
		errs = append(errs, fmt.Errorf("CACHE_STORAGE must be one of memory, local, session, got %q", c.CacheStorage))
	}
	if c.ScheduleKey == "" {
		errs = append(errs, fmt.Errorf("SCHEDULE_KEY cannot be empty"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE %q is invalid: %w", c.Timezone, err))
	}
	if c.WarmWorkerCount < 1 {
		errs = append(errs, fmt.Errorf("WARM_WORKER_COUNT must be at least 1, got %d", c.WarmWorkerCount))
	}
	if c.WarmQueueSize < 1 {
		errs = append(errs, fmt.Errorf("WARM_QUEUE_SIZE must be at least 1, got %d", c.WarmQueueSize))
	}
	return errors.Join(errs...)
}

// Location resolves Timezone. "Local" and "" map to time.Local.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid value for %s=%q, using default %s", key, v, def)
	}
	return def
}

func envListOr(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
