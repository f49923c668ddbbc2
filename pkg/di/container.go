// Package di is the composition root of the blog service. It builds every
// component from a config.Config and releases them in reverse order.
package di

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-blog-store/blogservice"
	"github.com/goliatone/go-blog-store/blogstore"
	"github.com/goliatone/go-blog-store/cache"
	"github.com/goliatone/go-blog-store/internal/auth"
	"github.com/goliatone/go-blog-store/internal/config"
	"github.com/goliatone/go-blog-store/internal/metrics"
	"github.com/goliatone/go-blog-store/internal/storage"
	"github.com/goliatone/go-blog-store/internal/transport/httpapi"
)

// Container holds the singletons of a running service.
type Container struct {
	cfg       config.Config
	logger    zerolog.Logger
	registry  *prometheus.Registry
	metrics   *metrics.Collectors
	gateway   *blogstore.Gateway
	cache     *cache.Layer
	authority *auth.HMACAuthority
	service   *blogservice.Service
	router    *gin.Engine
}

type options struct {
	registry    *prometheus.Registry
	gatewayOpts []blogstore.Option
	cacheStore  cache.Store
}

// Option customizes NewContainer.
type Option func(*options)

// WithRegistry registers the collectors on reg instead of a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithGatewayOptions forwards opts to blogstore.New.
func WithGatewayOptions(opts ...blogstore.Option) Option {
	return func(o *options) {
		o.gatewayOpts = append(o.gatewayOpts, opts...)
	}
}

// WithCacheStore uses store instead of the one cfg selects.
func WithCacheStore(store cache.Store) Option {
	return func(o *options) {
		o.cacheStore = store
	}
}

// NewContainer builds and initializes every component. A database or
// schema failure is fatal; an unreachable cache only logs a warning.
func NewContainer(ctx context.Context, cfg config.Config, logger zerolog.Logger, opts ...Option) (*Container, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
	}

	collectors, err := metrics.New(o.registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	authority, err := auth.NewHMACAuthority(auth.Config{
		Secret: []byte(cfg.Auth.JWTSecret),
		Issuer: cfg.Auth.JWTIssuer,
		TTL:    cfg.Auth.JWTTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}

	backend, err := NewBackend(cfg.Database)
	if err != nil {
		return nil, err
	}

	gatewayOpts := append([]blogstore.Option{blogstore.WithLogger(logger)}, o.gatewayOpts...)
	gateway := blogstore.New(backend, gatewayOpts...)
	if err := gateway.Initialize(ctx); err != nil {
		_ = gateway.Close()
		return nil, err
	}

	store := o.cacheStore
	if store == nil {
		store, err = cache.NewStore(cfg.CacheConfig())
		if err != nil {
			_ = gateway.Close()
			return nil, fmt.Errorf("cache store: %w", err)
		}
	}
	layer := cache.NewLayer(store, cache.WithLogger(logger), cache.WithRecorder(collectors))
	if err := layer.Initialize(ctx); err != nil {
		_ = layer.Close()
		_ = gateway.Close()
		return nil, err
	}

	service := blogservice.New(gateway, layer,
		blogservice.WithTTLs(blogservice.TTLs{
			Posts:      cfg.Cache.TTLPosts,
			Post:       cfg.Cache.TTLPost,
			Categories: cfg.Cache.TTLCategories,
			User:       cfg.Cache.TTLUser,
		}),
		blogservice.WithTokenIssuer(authority),
		blogservice.WithLogger(logger),
	)

	router := httpapi.NewRouter(service, authority,
		httpapi.WithLogger(logger),
		httpapi.WithMetrics(collectors, o.registry),
	)

	logger.Info().
		Str("db", backend.Name()).
		Str("cache", cfg.Cache.Backend).
		Msg("container ready")

	return &Container{
		cfg:       cfg,
		logger:    logger,
		registry:  o.registry,
		metrics:   collectors,
		gateway:   gateway,
		cache:     layer,
		authority: authority,
		service:   service,
		router:    router,
	}, nil
}

// NewBackend returns the unopened backend cfg selects.
func NewBackend(cfg config.Database) (storage.Backend, error) {
	switch cfg.Backend {
	case storage.BackendPostgres:
		pg := storage.DefaultPostgresConfig(cfg.PGDSN)
		pg.MinConns = cfg.PGMinConns
		pg.MaxConns = cfg.PGMaxConns
		if cfg.Timeout > 0 {
			pg.ConnectTimeout = cfg.Timeout
		}
		return storage.NewPostgres(pg), nil
	case storage.BackendSQLite:
		return storage.NewSQLite(storage.SQLiteConfig{Path: cfg.SQLitePath, BusyTimeout: cfg.Timeout}), nil
	default:
		return nil, fmt.Errorf("unknown database backend %q", cfg.Backend)
	}
}

// Service returns the cached facade.
func (c *Container) Service() *blogservice.Service {
	return c.service
}

// Handler returns the HTTP handler serving every route.
func (c *Container) Handler() http.Handler {
	return c.router
}

// Gateway returns the persistence gateway.
func (c *Container) Gateway() *blogstore.Gateway {
	return c.gateway
}

// Cache returns the cache layer.
func (c *Container) Cache() *cache.Layer {
	return c.cache
}

// Authority returns the token authority.
func (c *Container) Authority() *auth.HMACAuthority {
	return c.authority
}

// Registry returns the registry the collectors live on.
func (c *Container) Registry() *prometheus.Registry {
	return c.registry
}

// Config returns the configuration the container was built from.
func (c *Container) Config() config.Config {
	return c.cfg
}

// Close releases the cache and then the database.
func (c *Container) Close() error {
	var errs []error
	if err := c.cache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close cache: %w", err))
	}
	if err := c.gateway.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close gateway: %w", err))
	}
	c.logger.Info().Msg("container closed")
	return stderrors.Join(errs...)
}
