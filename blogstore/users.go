package blogstore

import (
	"context"
	stderrors "errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/goliatone/go-blog-store/internal/storage"
)

const (
	userColumns = `id, username, email, password_hash, created_at`

	getUserByUsernameQuery = `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	getUserByIDQuery       = `SELECT ` + userColumns + ` FROM users WHERE id = ?`
)

var userInsertColumns = []string{"username", "email", "password_hash", "created_at"}

// WithPasswordCost sets the bcrypt cost used by CreateUser.
func WithPasswordCost(cost int) Option {
	return func(g *Gateway) {
		g.passwordCost = cost
	}
}

// CreateUser stores a user with a hashed password. The returned row does
// not carry the hash. A taken username yields an AlreadyExists error.
func (g *Gateway) CreateUser(ctx context.Context, username, email, password string) (storage.Row, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), g.cost())
	if err != nil {
		return nil, storageError(err, "hash password")
	}

	row, err := g.backend.InsertReturning(ctx, "users", userInsertColumns,
		username, email, string(hash), g.timestamp())
	if err != nil {
		return nil, storageError(err, "create user")
	}
	return withoutHash(row), nil
}

// GetUserByUsername returns the full user row, hash included, or nil.
func (g *Gateway) GetUserByUsername(ctx context.Context, username string) (storage.Row, error) {
	row, err := g.backend.FetchOne(ctx, getUserByUsernameQuery, username)
	if err != nil {
		return nil, storageError(err, "fetch user")
	}
	return row, nil
}

// GetUserByID returns the full user row, hash included, or nil.
func (g *Gateway) GetUserByID(ctx context.Context, id int64) (storage.Row, error) {
	row, err := g.backend.FetchOne(ctx, getUserByIDQuery, id)
	if err != nil {
		return nil, storageError(err, "fetch user")
	}
	return row, nil
}

// VerifyCredentials checks password against the stored hash. It returns the
// user without the hash on success and nil on any mismatch.
func (g *Gateway) VerifyCredentials(ctx context.Context, username, password string) (storage.Row, error) {
	row, err := g.GetUserByUsername(ctx, username)
	if err != nil || row == nil {
		return nil, err
	}

	err = bcrypt.CompareHashAndPassword([]byte(row.String("password_hash")), []byte(password))
	if stderrors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return nil, nil
	}
	if err != nil {
		return nil, storageError(err, "verify password")
	}
	return withoutHash(row), nil
}

func (g *Gateway) cost() int {
	if g.passwordCost == 0 {
		return bcrypt.DefaultCost
	}
	return g.passwordCost
}

func withoutHash(row storage.Row) storage.Row {
	if row == nil {
		return nil
	}
	out := make(storage.Row, len(row))
	for k, v := range row {
		if k == "password_hash" {
			continue
		}
		out[k] = v
	}
	return out
}
