package cache

import (
	"context"
	"time"
)

// KeySerializer builds a cache key from a namespace and arbitrary args.
// It is responsible for producing stable keys across calls.
type KeySerializer interface {
	SerializeKey(namespace string, args ...any) string
}

// Store is a TTL aware key-value backend. Get reports a miss with ok=false
// and a nil error; errors are reserved for connectivity and encoding
// failures.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	Ping(ctx context.Context) error
	Close() error
}

// Recorder receives one observation per cache operation. op is the method
// name and result one of hit, miss, ok or error.
type Recorder interface {
	CacheOp(op, result string)
}

// FetchFn is the function signature GetOrFetch expects when reading from the source of truth.
type FetchFn[T any] func(ctx context.Context) (T, error)

// Get decodes the value stored at key. Undecodable entries are dropped and
// reported as a miss.
func Get[T any](ctx context.Context, layer *Layer, key string) (T, bool) {
	var zero T

	data, ok := layer.Get(ctx, key)
	if !ok {
		return zero, false
	}

	var out T
	if err := decode(data, &out); err != nil {
		layer.logger.Warn().Err(err).Str("key", key).Msg("dropping undecodable cache entry")
		layer.Delete(ctx, key)
		return zero, false
	}
	return out, true
}

// Set encodes value and stores it at key for ttl.
func Set[T any](ctx context.Context, layer *Layer, key string, value T, ttl time.Duration) {
	data, err := encode(value)
	if err != nil {
		layer.logger.Warn().Err(err).Str("key", key).Msg("skipping unencodable cache value")
		return
	}
	layer.Set(ctx, key, data, ttl)
}

// GetOrFetch returns the cached value at key or calls fetchFn and caches
// its result for ttl. Fetch errors are returned as is and nothing is cached.
func GetOrFetch[T any](ctx context.Context, layer *Layer, key string, ttl time.Duration, fetchFn FetchFn[T]) (T, error) {
	if cached, ok := Get[T](ctx, layer, key); ok {
		return cached, nil
	}

	result, err := fetchFn(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	Set(ctx, layer, key, result, ttl)
	return result, nil
}
