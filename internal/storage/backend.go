// Package storage holds the two relational backends the blog store runs on.
//
// Every higher level query is written once against Executor using "?"
// placeholders. Each backend is responsible for translating placeholders,
// collecting rows into Row maps and returning generated values after an
// insert, so callers never branch on the engine in use.
package storage

import (
	"context"

	"github.com/uptrace/bun"
)

// Executor runs parameterized statements against a backend or an open transaction.
type Executor interface {
	// Exec runs a statement and reports the number of affected rows.
	Exec(ctx context.Context, query string, args ...any) (int64, error)

	// FetchOne returns the first row produced by query, or nil when there is none.
	FetchOne(ctx context.Context, query string, args ...any) (Row, error)

	// FetchAll returns every row produced by query in backend order.
	FetchAll(ctx context.Context, query string, args ...any) ([]Row, error)

	// InsertReturning inserts one row and returns it as stored, including
	// generated ids and defaulted columns.
	InsertReturning(ctx context.Context, table string, columns []string, args ...any) (Row, error)
}

// TxFunc is executed by Backend.InTx with an Executor bound to the transaction.
type TxFunc func(ctx context.Context, tx Executor) error

// Backend is a relational engine selected once at configuration time.
type Backend interface {
	Executor

	// Name identifies the engine, e.g. "postgres" or "sqlite".
	Name() string

	// Open establishes pools or validates the database file. It must be
	// called before any other operation.
	Open(ctx context.Context) error

	// InTx runs fn atomically. Errors returned by fn roll the transaction back.
	InTx(ctx context.Context, fn TxFunc) error

	Ping(ctx context.Context) error
	Close() error

	// DB exposes a bun handle over the same connections, used for DDL.
	DB() *bun.DB
}

const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)
