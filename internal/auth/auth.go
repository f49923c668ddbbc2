// Package auth issues and verifies the bearer tokens that identify blog
// authors. The rest of the service only ever sees the username a token
// resolves to.
package auth

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/golang-jwt/jwt/v5"
)

// Text codes of token failures.
const (
	CodeTokenMissing = "TOKEN_MISSING"
	CodeTokenInvalid = "TOKEN_INVALID"
	CodeTokenExpired = "TOKEN_EXPIRED"
)

// Verifier resolves a bearer token to the username it was issued for.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// Config configures an HMACAuthority.
type Config struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	Now    func() time.Time
}

type claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// HMACAuthority signs and verifies HS256 tokens with a shared secret.
type HMACAuthority struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewHMACAuthority validates cfg and returns an authority.
func NewHMACAuthority(cfg Config) (*HMACAuthority, error) {
	if len(cfg.Secret) == 0 {
		return nil, stderrors.New("auth secret is required")
	}
	if cfg.TTL <= 0 {
		return nil, stderrors.New("auth token ttl must be positive")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &HMACAuthority{
		secret: cfg.Secret,
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		now:    cfg.Now,
	}, nil
}

// Issue signs a token for username valid for the configured TTL.
func (a *HMACAuthority) Issue(username string) (string, error) {
	if strings.TrimSpace(username) == "" {
		return "", stderrors.New("username is required")
	}

	now := a.now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
		Username: username,
	})
	return token.SignedString(a.secret)
}

// Verify checks the signature, the issuer and the expiry of token and
// returns its username.
func (a *HMACAuthority) Verify(_ context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.New("missing bearer token", errors.CategoryAuth).WithTextCode(CodeTokenMissing)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	var parsed claims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return "", mapJWTError(err)
	}

	username := parsed.Username
	if username == "" {
		username = parsed.Subject
	}
	if username == "" || (parsed.Subject != "" && parsed.Subject != username) {
		return "", errors.New("token subject mismatch", errors.CategoryAuth).WithTextCode(CodeTokenInvalid)
	}
	return username, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func mapJWTError(err error) error {
	switch {
	case stderrors.Is(err, jwt.ErrTokenExpired):
		return errors.Wrap(err, errors.CategoryAuth, "token is expired").WithTextCode(CodeTokenExpired)
	case stderrors.Is(err, jwt.ErrTokenSignatureInvalid):
		return errors.Wrap(err, errors.CategoryAuth, "token signature is invalid").WithTextCode(CodeTokenInvalid)
	case stderrors.Is(err, jwt.ErrTokenUnverifiable):
		return errors.Wrap(err, errors.CategoryAuth, "token alg is invalid").WithTextCode(CodeTokenInvalid)
	default:
		return errors.Wrap(err, errors.CategoryAuth, "token is invalid").WithTextCode(CodeTokenInvalid)
	}
}
