package blogservice

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-blog-store/blogstore"
	"github.com/goliatone/go-blog-store/cache"
	"github.com/goliatone/go-blog-store/internal/storage"
)

// Gateway is the part of blogstore.Gateway the facade reads and writes
// through.
type Gateway interface {
	FetchPosts(ctx context.Context, offset, limit int, categorySlug string) ([]storage.Row, error)
	FetchPostByID(ctx context.Context, id int64) (storage.Row, error)
	FetchCategoriesWithCounts(ctx context.Context) ([]storage.Row, error)
	ValidateCategoryExists(ctx context.Context, id int64) (bool, error)
	CreatePost(ctx context.Context, title, content, author string, categoryID int64) (storage.Row, error)
	GetPostAuthor(ctx context.Context, id int64) (string, bool, error)
	UpdatePost(ctx context.Context, id int64, patch blogstore.PostPatch) (storage.Row, error)
	DeletePost(ctx context.Context, id int64) (bool, error)

	CreateUser(ctx context.Context, username, email, password string) (storage.Row, error)
	GetUserByUsername(ctx context.Context, username string) (storage.Row, error)
	VerifyCredentials(ctx context.Context, username, password string) (storage.Row, error)

	HealthCheck(ctx context.Context) bool
}

var _ Gateway = (*blogstore.Gateway)(nil)

// TokenIssuer signs a session token for an authenticated user.
type TokenIssuer interface {
	Issue(username string) (string, error)
}

// TTLs holds the lifetime of each cached read.
type TTLs struct {
	Posts      time.Duration
	Post       time.Duration
	Categories time.Duration
	User       time.Duration
}

// DefaultTTLs returns the lifetimes used when none are configured.
func DefaultTTLs() TTLs {
	return TTLs{
		Posts:      60 * time.Second,
		Post:       300 * time.Second,
		Categories: 600 * time.Second,
		User:       300 * time.Second,
	}
}

func (t TTLs) withDefaults() TTLs {
	def := DefaultTTLs()
	if t.Posts <= 0 {
		t.Posts = def.Posts
	}
	if t.Post <= 0 {
		t.Post = def.Post
	}
	if t.Categories <= 0 {
		t.Categories = def.Categories
	}
	if t.User <= 0 {
		t.User = def.User
	}
	return t
}

// Service decorates a Gateway with read-through caching and write
// invalidation.
type Service struct {
	gateway Gateway
	cache   *cache.Layer
	ttl     TTLs
	tokens  TokenIssuer
	logger  zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTTLs overrides the cache lifetimes. Zero fields keep their default.
func WithTTLs(ttl TTLs) Option {
	return func(s *Service) {
		s.ttl = ttl.withDefaults()
	}
}

// WithTokenIssuer sets the issuer used by Login.
func WithTokenIssuer(issuer TokenIssuer) Option {
	return func(s *Service) {
		s.tokens = issuer
	}
}

// WithLogger sets the service logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates a Service over gateway. A nil layer disables caching.
func New(gateway Gateway, layer *cache.Layer, opts ...Option) *Service {
	if layer == nil {
		layer = cache.NewLayer(nil)
	}
	s := &Service{
		gateway: gateway,
		cache:   layer,
		ttl:     DefaultTTLs(),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Health reports the reachability of the database and the cache.
type Health struct {
	Database bool `json:"database"`
	Cache    bool `json:"cache"`
}

// Healthy reports whether the service can answer requests. The cache is
// optional.
func (h Health) Healthy() bool {
	return h.Database
}

// Health checks both dependencies.
func (s *Service) Health(ctx context.Context) Health {
	return Health{
		Database: s.gateway.HealthCheck(ctx),
		Cache:    s.cache.Ping(ctx),
	}
}

// invalidateLists drops every cached list page, filtered or not.
func (s *Service) invalidateLists(ctx context.Context) {
	s.cache.DeleteByPrefix(ctx, cache.PostsPrefix)
}

func (s *Service) invalidatePost(ctx context.Context, id int64) {
	s.cache.Delete(ctx, cache.PostKey(id))
}
