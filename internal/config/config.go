// Package config reads the process configuration from BLOG_* environment
// variables. It is read once at startup.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/goliatone/go-blog-store/cache"
	"github.com/goliatone/go-blog-store/internal/storage"
)

// Config is the full process configuration.
type Config struct {
	Database Database `envPrefix:"BLOG_"`
	Cache    Cache    `envPrefix:"BLOG_"`
	HTTP     HTTP     `envPrefix:"BLOG_"`
	Auth     Auth     `envPrefix:"BLOG_"`
	Log      Log      `envPrefix:"BLOG_"`
}

// Database selects and configures the relational backend.
type Database struct {
	Backend    string        `env:"DB_BACKEND" envDefault:"sqlite"`
	PGDSN      string        `env:"PG_DSN"`
	PGMinConns int32         `env:"PG_MIN_CONNS" envDefault:"5"`
	PGMaxConns int32         `env:"PG_MAX_CONNS" envDefault:"20"`
	SQLitePath string        `env:"SQLITE_PATH" envDefault:"blog.db"`
	Timeout    time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"5s"`
}

// Cache selects the cache store and the lifetime of each cached read.
type Cache struct {
	Backend       string        `env:"CACHE_BACKEND" envDefault:"memory"`
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	Capacity      int           `env:"CACHE_CAPACITY" envDefault:"10000"`
	TTLPosts      time.Duration `env:"TTL_POSTS" envDefault:"60s"`
	TTLPost       time.Duration `env:"TTL_POST" envDefault:"300s"`
	TTLCategories time.Duration `env:"TTL_CATEGORIES" envDefault:"600s"`
	TTLUser       time.Duration `env:"TTL_USER" envDefault:"300s"`
}

// HTTP configures the listener.
type HTTP struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// Auth configures token signing.
type Auth struct {
	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`
	JWTIssuer string        `env:"JWT_ISSUER" envDefault:"blogd"`
}

// Log configures the process logger.
type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Pretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the backend enums and their required settings.
func (c Config) Validate() error {
	switch c.Database.Backend {
	case storage.BackendPostgres:
		if c.Database.PGDSN == "" {
			return fmt.Errorf("BLOG_PG_DSN is required for the postgres backend")
		}
		if c.Database.PGMinConns < 0 || c.Database.PGMaxConns < 1 || c.Database.PGMinConns > c.Database.PGMaxConns {
			return fmt.Errorf("invalid postgres pool bounds %d..%d", c.Database.PGMinConns, c.Database.PGMaxConns)
		}
	case storage.BackendSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("BLOG_SQLITE_PATH is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown BLOG_DB_BACKEND %q", c.Database.Backend)
	}

	if err := c.CacheConfig().Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("BLOG_JWT_SECRET is required")
	}
	if c.Auth.JWTTTL <= 0 {
		return fmt.Errorf("BLOG_JWT_TTL must be positive")
	}
	return nil
}

// CacheConfig maps the cache settings onto cache.Config. The memory store
// keeps entries for at most the longest configured TTL.
func (c Config) CacheConfig() cache.Config {
	cfg := cache.DefaultConfig()
	cfg.Backend = c.Cache.Backend
	cfg.Capacity = c.Cache.Capacity
	cfg.MaxTTL = maxDuration(c.Cache.TTLPosts, c.Cache.TTLPost, c.Cache.TTLCategories, c.Cache.TTLUser)
	cfg.RedisAddr = c.Cache.RedisAddr
	cfg.RedisPassword = c.Cache.RedisPassword
	cfg.RedisDB = c.Cache.RedisDB
	return cfg
}

func maxDuration(ds ...time.Duration) time.Duration {
	var out time.Duration
	for _, d := range ds {
		if d > out {
			out = d
		}
	}
	return out
}
