package blogservice

import (
	"context"

	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-blog-store/blogstore"
	"github.com/goliatone/go-blog-store/cache"
	"github.com/goliatone/go-blog-store/record"
)

// Session is the result of a successful login.
type Session struct {
	Token     string      `json:"token"`
	TokenType string      `json:"token_type"`
	User      record.User `json:"user"`
}

// RegisterUser creates a user. A taken username is AlreadyExists.
func (s *Service) RegisterUser(ctx context.Context, in RegisterInput) (record.User, error) {
	if err := in.Validate(); err != nil {
		return record.User{}, validationError(err, "invalid user")
	}

	row, err := s.gateway.CreateUser(ctx, in.Username, in.Email, in.Password)
	if err != nil {
		return record.User{}, err
	}

	s.cache.Delete(ctx, cache.UserKey(in.Username))
	return record.PublicUser(row), nil
}

// Login checks the credentials and issues a token for the user.
func (s *Service) Login(ctx context.Context, in Credentials) (Session, error) {
	if err := in.Validate(); err != nil {
		return Session{}, validationError(err, "invalid credentials payload")
	}
	if s.tokens == nil {
		return Session{}, errors.New("token issuer not configured", errors.CategoryInternal)
	}

	row, err := s.gateway.VerifyCredentials(ctx, in.Username, in.Password)
	if err != nil {
		return Session{}, err
	}
	if row == nil {
		return Session{}, blogstore.InvalidCredentials()
	}

	token, err := s.tokens.Issue(in.Username)
	if err != nil {
		return Session{}, errors.Wrap(err, errors.CategoryInternal, "issue token")
	}

	return Session{
		Token:     token,
		TokenType: "bearer",
		User:      record.PublicUser(row),
	}, nil
}

// GetUser returns the public record of username. The cached record never
// holds the password hash.
func (s *Service) GetUser(ctx context.Context, username string) (record.User, error) {
	return cache.GetOrFetch(ctx, s.cache, cache.UserKey(username), s.ttl.User, func(ctx context.Context) (record.User, error) {
		row, err := s.gateway.GetUserByUsername(ctx, username)
		if err != nil {
			return record.User{}, err
		}
		if row == nil {
			return record.User{}, blogstore.NotFound("user", username)
		}
		return record.PublicUser(row), nil
	})
}
