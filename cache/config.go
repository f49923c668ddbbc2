package cache

import (
	"fmt"
	"time"

	"github.com/goliatone/go-blog-store/internal/cacheinfra"
)

// Cache backends accepted by Config.Backend.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Config exposes cache configuration options for consumers of the cache package.
type Config struct {
	Backend string

	// Memory backend.
	Capacity           int
	NumShards          int
	MaxTTL             time.Duration
	EvictionPercentage int

	// Redis backend.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// DefaultConfig returns an in-process cache configuration.
func DefaultConfig() Config {
	mem := cacheinfra.DefaultConfig()
	return Config{
		Backend:            BackendMemory,
		Capacity:           mem.Capacity,
		NumShards:          mem.NumShards,
		MaxTTL:             mem.TTL,
		EvictionPercentage: mem.EvictionPercentage,
	}
}

// Validate checks whether the configuration values are valid for the
// selected backend.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
		return c.memoryConfig().Validate()
	case BackendRedis:
		return c.redisConfig().Validate()
	case BackendNone:
		return nil
	default:
		return fmt.Errorf("unknown cache backend %q", c.Backend)
	}
}

// NewStore builds the Store selected by cfg.Backend.
func NewStore(cfg Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case BackendMemory:
		return cacheinfra.NewMemoryStore(cfg.memoryConfig())
	case BackendRedis:
		return cacheinfra.NewRedisStore(cfg.redisConfig())
	default:
		return NopStore{}, nil
	}
}

func (c Config) memoryConfig() cacheinfra.Config {
	return cacheinfra.Config{
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		TTL:                c.MaxTTL,
		EvictionPercentage: c.EvictionPercentage,
	}
}

func (c Config) redisConfig() cacheinfra.RedisConfig {
	return cacheinfra.RedisConfig{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}
