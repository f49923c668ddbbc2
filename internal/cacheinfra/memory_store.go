package cacheinfra

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/viccon/sturdyc"
)

// ErrClosed is returned by a store after Close.
var ErrClosed = errors.New("cache store closed")

// Config holds the configuration for the in-process sturdyc store.
type Config struct {
	// Capacity defines the maximum number of entries that the cache can store.
	// Must be greater than 0.
	Capacity int

	// NumShards determines the number of cache shards for concurrent access.
	// Must be greater than 0. Default: 256
	NumShards int

	// TTL is the upper bound for any entry. Shorter per-entry TTLs passed
	// to Set are enforced by the store itself.
	TTL time.Duration

	// EvictionPercentage specifies what percentage of entries to evict
	// when the cache reaches its capacity. Must be between 1-100.
	EvictionPercentage int

	// EvictionInterval sets how often sturdyc sweeps expired entries.
	// Zero value uses the default interval.
	EvictionInterval time.Duration
}

// DefaultConfig returns a Config sized for a single blog instance.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          256,
		TTL:                10 * time.Minute,
		EvictionPercentage: 10,
	}
}

// ToSturdycOptions converts the Config to sturdyc options. Capacity,
// NumShards, TTL and EvictionPercentage go to sturdyc.New directly.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option
	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}
	return options
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}

	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}

	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}

	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}

	if c.EvictionInterval < 0 {
		return &ConfigError{Field: "EvictionInterval", Message: "must be non-negative"}
	}

	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// entry is what sturdyc holds. sturdyc only knows the client wide TTL, so
// each entry carries the deadline requested by the caller.
type entry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore keeps cache entries in process using a sturdyc client.
type MemoryStore struct {
	client *sturdyc.Client[entry]
	maxTTL time.Duration
	now    func() time.Time
	closed atomic.Bool
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the clock used to expire entries.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore validates cfg and creates a sturdyc backed store.
func NewMemoryStore(cfg Config, opts ...MemoryOption) (*MemoryStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[entry](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	s := &MemoryStore{
		client: client,
		maxTTL: cfg.TTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get returns the bytes stored at key when the entry has not expired.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	if s.closed.Load() {
		return nil, false, ErrClosed
	}

	e, ok := s.client.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !s.now().Before(e.expiresAt) {
		s.client.Delete(key)
		return nil, false, nil
	}
	return e.data, true, nil
}

// Set stores a copy of value. A ttl above the client TTL is capped.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if ttl <= 0 {
		return nil
	}
	if ttl > s.maxTTL {
		ttl = s.maxTTL
	}

	data := make([]byte, len(value))
	copy(data, value)
	s.client.Set(key, entry{data: data, expiresAt: s.now().Add(ttl)})
	return nil
}

// Delete removes a single entry.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.client.Delete(key)
	return nil
}

// DeleteByPrefix removes all entries whose key starts with prefix.
func (s *MemoryStore) DeleteByPrefix(_ context.Context, prefix string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	for _, key := range s.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			s.client.Delete(key)
		}
	}
	return nil
}

// Ping fails only after Close.
func (s *MemoryStore) Ping(context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return nil
}

// Close marks the store closed and drops every entry.
func (s *MemoryStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	for _, key := range s.client.ScanKeys() {
		s.client.Delete(key)
	}
	return nil
}
