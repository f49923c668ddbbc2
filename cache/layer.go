package cache

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Layer wraps a Store and degrades every failure to a bypass: a failed read
// is a miss, a failed write is skipped. Callers never see store errors, so
// losing the cache only costs latency.
type Layer struct {
	store    Store
	logger   zerolog.Logger
	recorder Recorder
}

// LayerOption configures a Layer.
type LayerOption func(*Layer)

// WithLogger sets the logger used to report bypassed failures.
func WithLogger(logger zerolog.Logger) LayerOption {
	return func(l *Layer) {
		l.logger = logger
	}
}

// WithRecorder sets the recorder notified of every operation.
func WithRecorder(recorder Recorder) LayerOption {
	return func(l *Layer) {
		if recorder != nil {
			l.recorder = recorder
		}
	}
}

// NewLayer creates a Layer over store. A nil store behaves as an always
// empty cache.
func NewLayer(store Store, opts ...LayerOption) *Layer {
	if store == nil {
		store = NopStore{}
	}
	l := &Layer{
		store:    store,
		logger:   zerolog.Nop(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Initialize checks the store is reachable. An unreachable store is logged
// and the layer keeps running in bypass mode.
func (l *Layer) Initialize(ctx context.Context) error {
	if err := l.store.Ping(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		l.logger.Warn().Err(err).Msg("cache unreachable, continuing without cache")
		return nil
	}
	l.logger.Info().Msg("cache initialized")
	return nil
}

// Close releases the store connection.
func (l *Layer) Close() error {
	return l.store.Close()
}

// Ping reports whether the store answers.
func (l *Layer) Ping(ctx context.Context) bool {
	return l.store.Ping(ctx) == nil
}

// Get returns the raw value stored at key.
func (l *Layer) Get(ctx context.Context, key string) ([]byte, bool) {
	data, ok, err := l.store.Get(ctx, key)
	switch {
	case err != nil:
		l.fail("get", key, err)
		return nil, false
	case !ok:
		l.recorder.CacheOp("get", "miss")
		return nil, false
	default:
		l.recorder.CacheOp("get", "hit")
		return data, true
	}
}

// Set stores value at key for ttl. A non-positive ttl skips the write.
func (l *Layer) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := l.store.Set(ctx, key, value, ttl); err != nil {
		l.fail("set", key, err)
		return
	}
	l.recorder.CacheOp("set", "ok")
}

// Delete removes key.
func (l *Layer) Delete(ctx context.Context, key string) {
	if err := l.store.Delete(ctx, key); err != nil {
		l.fail("delete", key, err)
		return
	}
	l.recorder.CacheOp("delete", "ok")
}

// DeleteByPrefix removes every key starting with prefix.
func (l *Layer) DeleteByPrefix(ctx context.Context, prefix string) {
	if err := l.store.DeleteByPrefix(ctx, prefix); err != nil {
		l.fail("delete_prefix", prefix, err)
		return
	}
	l.recorder.CacheOp("delete_prefix", "ok")
}

func (l *Layer) fail(op, key string, err error) {
	l.recorder.CacheOp(op, "error")
	l.logger.Warn().Err(err).Str("op", op).Str("key", key).Msg("cache bypassed")
}

type nopRecorder struct{}

func (nopRecorder) CacheOp(string, string) {}

// NopStore is a Store that holds nothing. It backs a disabled cache.
type NopStore struct{}

func (NopStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (NopStore) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

func (NopStore) Delete(context.Context, string) error {
	return nil
}

func (NopStore) DeleteByPrefix(context.Context, string) error {
	return nil
}

func (NopStore) Ping(context.Context) error {
	return nil
}

func (NopStore) Close() error {
	return nil
}
