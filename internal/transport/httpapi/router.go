// Package httpapi exposes the blog facade over HTTP with gin. Handlers only
// decode requests, call the facade and map its errors onto status codes.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-blog-store/internal/auth"
)

type routerConfig struct {
	logger   zerolog.Logger
	observer RequestObserver
	gatherer prometheus.Gatherer
}

// Option configures NewRouter.
type Option func(*routerConfig)

// WithLogger sets the access and error logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *routerConfig) {
		cfg.logger = logger
	}
}

// WithMetrics records every request on obs and serves gatherer on
// /metrics.
func WithMetrics(obs RequestObserver, gatherer prometheus.Gatherer) Option {
	return func(cfg *routerConfig) {
		cfg.observer = obs
		cfg.gatherer = gatherer
	}
}

// NewRouter wires the routes onto a new gin engine.
func NewRouter(svc Service, verifier auth.Verifier, opts ...Option) *gin.Engine {
	cfg := routerConfig{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := gin.New()
	r.Use(requestIDMiddleware())
	if cfg.observer != nil {
		r.Use(observeMiddleware(cfg.observer))
	}
	r.Use(accessLogMiddleware(cfg.logger))
	r.Use(gin.CustomRecovery(recoveryHandler(cfg.logger)))

	h := &handler{svc: svc, logger: cfg.logger}
	authed := requireAuth(verifier, cfg.logger)

	blog := r.Group("/blog/api")
	{
		blog.GET("/posts", h.listPosts)
		blog.GET("/posts/:id", h.getPost)
		blog.POST("/posts", authed, h.createPost)
		blog.PATCH("/posts/:id", authed, h.updatePost)
		blog.DELETE("/posts/:id", authed, h.deletePost)
		blog.GET("/categories", h.listCategories)
	}

	users := r.Group("/api")
	{
		users.POST("/users", h.registerUser)
		users.POST("/login", h.login)
		users.GET("/users/:username", h.getUser)
	}

	r.GET("/health", h.health)
	if cfg.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.gatherer, promhttp.HandlerOpts{})))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorBody{Status: "error", Code: "ROUTE_NOT_FOUND", Message: "route not found"})
	})
	return r
}
