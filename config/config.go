// Package config loads service configuration from environment variables.
// A .env file in the working directory is loaded first when present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the root configuration of the service.
type Config struct {
	Service   ServiceConfig
	Logging   LoggingConfig
	Tracing   TracingConfig
	Profiling ProfilingConfig
	Mongo     MongoConfig
	Cache     CacheConfig
	Repair    RepairConfig
	Shutdown  ShutdownConfig
}

type ServiceConfig struct {
	Name    string
	Version string
	Env     string
	Port    string
}

type LoggingConfig struct {
	Level string
}

type TracingConfig struct {
	Enabled    bool
	Endpoint   string
	SampleRate float64
}

type ProfilingConfig struct {
	Enabled  bool
	Endpoint string
}

// MongoConfig describes the document store connection.
// Transactions must only be enabled against a replica set or sharded cluster.
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout string
	Transactions   bool
}

// CacheConfig controls the Redis-backed critic leaderboard cache.
type CacheConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           string
	Prefix        string
}

// RepairConfig controls the periodic orphaned-session repair job.
// An empty or zero interval disables the job.
type RepairConfig struct {
	Interval string
}

type ShutdownConfig struct {
	Timeout             string
	ReadinessDrainDelay string
}

// Load reads configuration from the environment, applying defaults.
func Load() *Config {
	// Missing .env is fine: production injects plain env vars.
	_ = godotenv.Load()

	return &Config{
		Service: ServiceConfig{
			Name:    getEnv("SERVICE_NAME", "mflix-service"),
			Version: getEnv("SERVICE_VERSION", "dev"),
			Env:     getEnv("ENV", "development"),
			Port:    getEnv("PORT", "8080"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Tracing: TracingConfig{
			Enabled:    getEnvBool("TRACING_ENABLED", false),
			Endpoint:   getEnv("OTEL_COLLECTOR_ENDPOINT", "otel-collector:4318"),
			SampleRate: getEnvFloat("OTEL_SAMPLE_RATE", 0.1),
		},
		Profiling: ProfilingConfig{
			Enabled:  getEnvBool("PROFILING_ENABLED", false),
			Endpoint: getEnv("PYROSCOPE_ENDPOINT", "http://pyroscope:4040"),
		},
		Mongo: MongoConfig{
			URI:            getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGO_DATABASE", "sample_mflix"),
			ConnectTimeout: getEnv("MONGO_CONNECT_TIMEOUT", "10s"),
			Transactions:   getEnvBool("MONGO_TRANSACTIONS", false),
		},
		Cache: CacheConfig{
			Enabled:       getEnvBool("CRITIC_CACHE_ENABLED", false),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       getEnvInt("REDIS_DB", 0),
			TTL:           getEnv("CRITIC_CACHE_TTL", "60s"),
			Prefix:        getEnv("CRITIC_CACHE_PREFIX", "mflix:critics:"),
		},
		Repair: RepairConfig{
			Interval: getEnv("REPAIR_INTERVAL", "10m"),
		},
		Shutdown: ShutdownConfig{
			Timeout:             getEnv("SHUTDOWN_TIMEOUT", "10s"),
			ReadinessDrainDelay: getEnv("READINESS_DRAIN_DELAY", "5s"),
		},
	}
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	var errs []error

	if c.Service.Name == "" {
		errs = append(errs, errors.New("SERVICE_NAME is required"))
	}
	if _, err := strconv.Atoi(c.Service.Port); err != nil {
		errs = append(errs, fmt.Errorf("PORT must be numeric, got %q", c.Service.Port))
	}
	if c.Mongo.URI == "" {
		errs = append(errs, errors.New("MONGO_URI is required"))
	}
	if c.Mongo.Database == "" {
		errs = append(errs, errors.New("MONGO_DATABASE is required"))
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		errs = append(errs, fmt.Errorf("OTEL_SAMPLE_RATE must be within [0, 1], got %v", c.Tracing.SampleRate))
	}
	if c.Cache.Enabled && c.Cache.RedisAddr == "" {
		errs = append(errs, errors.New("REDIS_ADDR is required when CRITIC_CACHE_ENABLED=true"))
	}

	durations := map[string]string{
		"MONGO_CONNECT_TIMEOUT": c.Mongo.ConnectTimeout,
		"CRITIC_CACHE_TTL":      c.Cache.TTL,
		"REPAIR_INTERVAL":       c.Repair.Interval,
		"SHUTDOWN_TIMEOUT":      c.Shutdown.Timeout,
		"READINESS_DRAIN_DELAY": c.Shutdown.ReadinessDrainDelay,
	}
	for key, value := range durations {
		if value == "" {
			continue
		}
		if d, err := time.ParseDuration(value); err != nil || d < 0 {
			errs = append(errs, fmt.Errorf("%s must be a non-negative duration, got %q", key, value))
		}
	}

	return errors.Join(errs...)
}

func (c *Config) GetMongoConnectTimeoutDuration() time.Duration {
	return parseDuration(c.Mongo.ConnectTimeout, 10*time.Second)
}

func (c *Config) GetCacheTTLDuration() time.Duration {
	return parseDuration(c.Cache.TTL, time.Minute)
}

// GetRepairIntervalDuration returns 0 when the repair job is disabled.
func (c *Config) GetRepairIntervalDuration() time.Duration {
	return parseDuration(c.Repair.Interval, 0)
}

func (c *Config) GetShutdownTimeoutDuration() time.Duration {
	return parseDuration(c.Shutdown.Timeout, 10*time.Second)
}

func (c *Config) GetReadinessDrainDelayDuration() time.Duration {
	return parseDuration(c.Shutdown.ReadinessDrainDelay, 0)
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
