package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Cache backends selectable through CACHE_BACKEND.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendNone   = "none"
)

// Config is the full process configuration.
type Config struct {
	Server   Server
	Log      Log
	PokeAPI  PokeAPI
	Cache    Cache
	Redis    RedisConfig
	Database Database

	// Warnings lists values that could not be parsed and fell back to defaults.
	Warnings []string
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// Log selects the slog handler.
type Log struct {
	Level  string
	Format string
}

// PokeAPI configures the remote gateway.
type PokeAPI struct {
	BaseURL   string
	Timeout   time.Duration
	RateRPS   float64
	RateBurst int
	MaxFanout int
}

// Cache selects the lookup cache.
type Cache struct {
	Backend string
	TTL     time.Duration
}

// RedisConfig configures the go-redis client used by the redis cache backend.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Database configures the optional Postgres datasource. Empty URL disables it.
type Database struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Load(os.Getenv)
}

// Load builds a Config from the given lookup function.
func Load(getenv func(string) string) Config {
	e := env{getenv: getenv}
	cfg := Config{
		Server: Server{
			Addr:            e.str("POKEGATE_ADDR", ":8080"),
			RequestTimeout:  e.duration("POKEGATE_REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: e.duration("POKEGATE_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Log: Log{
			Level:  strings.ToLower(e.str("LOG_LEVEL", "info")),
			Format: strings.ToLower(e.str("LOG_FORMAT", "json")),
		},
		PokeAPI: PokeAPI{
			BaseURL:   e.str("POKEAPI_BASE_URL", "https://pokeapi.co/api/v2"),
			Timeout:   e.duration("POKEAPI_TIMEOUT", 10*time.Second),
			RateRPS:   e.float("POKEAPI_RATE_RPS", 20),
			RateBurst: e.int("POKEAPI_RATE_BURST", 10),
			MaxFanout: e.int("POKEAPI_MAX_FANOUT", 4),
		},
		Cache: Cache{
			Backend: strings.ToLower(e.str("CACHE_BACKEND", CacheBackendMemory)),
			TTL:     e.duration("CACHE_TTL", 120*time.Minute),
		},
		Redis: RedisConfig{
			URL:          e.str("REDIS_URL", ""),
			PoolSize:     e.int("REDIS_POOL_SIZE", 10),
			MinIdleConns: e.int("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  e.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  e.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: e.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Database: Database{
			URL:          e.str("DATABASE_URL", ""),
			MaxOpenConns: e.int("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns: e.int("DATABASE_MAX_IDLE_CONNS", 5),
		},
	}

	switch cfg.Cache.Backend {
	case CacheBackendMemory, CacheBackendRedis, CacheBackendNone:
	default:
		e.warn("CACHE_BACKEND", cfg.Cache.Backend, CacheBackendMemory)
		cfg.Cache.Backend = CacheBackendMemory
	}
	if cfg.Cache.Backend == CacheBackendRedis && cfg.Redis.URL == "" {
		e.warnings = append(e.warnings, "CACHE_BACKEND=redis requires REDIS_URL; using memory")
		cfg.Cache.Backend = CacheBackendMemory
	}

	cfg.Warnings = e.warnings
	return cfg
}

type env struct {
	getenv   func(string) string
	warnings []string
}

func (e *env) warn(key, value string, fallback any) {
	e.warnings = append(e.warnings, fmt.Sprintf("invalid %s %q; using %v", key, value, fallback))
}

func (e *env) str(key, fallback string) string {
	if v := strings.TrimSpace(e.getenv(key)); v != "" {
		return v
	}
	return fallback
}

func (e *env) duration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		e.warn(key, v, fallback)
		return fallback
	}
	return d
}

func (e *env) int(key string, fallback int) int {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		e.warn(key, v, fallback)
		return fallback
	}
	return n
}

func (e *env) float(key string, fallback float64) float64 {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		e.warn(key, v, fallback)
		return fallback
	}
	return f
}
