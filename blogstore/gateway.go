// Package blogstore is the persistence gateway of the blog service.
//
// Reads return storage.Row values joined with category data; a lookup with no
// match returns a nil row rather than an error. Writes validate references
// explicitly before touching the database and report failures using the
// error taxonomy in errors.go.
package blogstore

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-blog-store/internal/schema"
	"github.com/goliatone/go-blog-store/internal/storage"
)

// Gateway is the persistence gateway for posts, categories and users. All
// operations are written once against storage.Backend, so the same code
// runs on Postgres and SQLite.
type Gateway struct {
	backend      storage.Backend
	now          func() time.Time
	logger       zerolog.Logger
	passwordCost int
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithClock overrides the time source used for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		if now != nil {
			g.now = now
		}
	}
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(logger zerolog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// New creates a Gateway over backend. Initialize must be called before use.
func New(backend storage.Backend, opts ...Option) *Gateway {
	g := &Gateway{
		backend: backend,
		now:     time.Now,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Backend returns the underlying backend.
func (g *Gateway) Backend() storage.Backend {
	return g.backend
}

// Initialize opens the backend and ensures the schema. Any failure is a
// SchemaError and should abort startup.
func (g *Gateway) Initialize(ctx context.Context) error {
	if err := g.backend.Open(ctx); err != nil {
		return SchemaError(storageError(err, "open "+g.backend.Name()))
	}
	if err := schema.Ensure(ctx, g.backend.DB()); err != nil {
		return SchemaError(err)
	}

	g.logger.Info().Str("backend", g.backend.Name()).Msg("persistence gateway initialized")
	return nil
}

// Close releases pooled connections.
func (g *Gateway) Close() error {
	return g.backend.Close()
}

// HealthCheck reports whether the backend answers a ping.
func (g *Gateway) HealthCheck(ctx context.Context) bool {
	if err := g.backend.Ping(ctx); err != nil {
		g.logger.Warn().Err(err).Str("backend", g.backend.Name()).Msg("health check failed")
		return false
	}
	return true
}

// timestamp returns the current time at the precision both backends store.
func (g *Gateway) timestamp() time.Time {
	return g.now().UTC().Truncate(time.Microsecond)
}
