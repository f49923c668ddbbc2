package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

// PostgresConfig configures the pooled Postgres backend.
type PostgresConfig struct {
	DSN      string
	MinConns int32
	MaxConns int32

	// ConnectTimeout bounds the initial pool ping. Zero means 5 seconds.
	ConnectTimeout time.Duration
}

// DefaultPostgresConfig returns the pool bounds used when none are configured.
func DefaultPostgresConfig(dsn string) PostgresConfig {
	return PostgresConfig{
		DSN:            dsn,
		MinConns:       5,
		MaxConns:       20,
		ConnectTimeout: 5 * time.Second,
	}
}

// pgQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Postgres is a Backend over a bounded pgx connection pool.
type Postgres struct {
	cfg  PostgresConfig
	pool *pgxpool.Pool
	bun  *bun.DB
	pgExecutor
}

var _ Backend = (*Postgres)(nil)

// NewPostgres creates an unopened Postgres backend.
func NewPostgres(cfg PostgresConfig) *Postgres {
	return &Postgres{cfg: cfg}
}

func (p *Postgres) Name() string { return BackendPostgres }

// Open parses the DSN, applies pool bounds and verifies connectivity.
func (p *Postgres) Open(ctx context.Context) error {
	if p.pool != nil {
		return nil
	}
	poolCfg, err := pgxpool.ParseConfig(p.cfg.DSN)
	if err != nil {
		return fmt.Errorf("parse postgres dsn: %w", err)
	}
	if p.cfg.MaxConns > 0 {
		poolCfg.MaxConns = p.cfg.MaxConns
	}
	if p.cfg.MinConns > 0 {
		poolCfg.MinConns = p.cfg.MinConns
	}
	if poolCfg.MinConns > poolCfg.MaxConns {
		poolCfg.MinConns = poolCfg.MaxConns
	}

	timeout := p.cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	openCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(openCtx, poolCfg)
	if err != nil {
		return classifyPostgres("open postgres pool", err)
	}
	if err := pool.Ping(openCtx); err != nil {
		pool.Close()
		return classifyPostgres("ping postgres", err)
	}

	p.pool = pool
	p.pgExecutor = pgExecutor{q: pool}
	p.bun = bun.NewDB(stdlib.OpenDBFromPool(pool), pgdialect.New())
	return nil
}

// InTx runs fn inside a single pooled transaction.
func (p *Postgres) InTx(ctx context.Context, fn TxFunc) error {
	if p.pool == nil {
		return fmt.Errorf("begin transaction: %w: backend not opened", ErrUnavailable)
	}

	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return classifyPostgres("begin transaction", err)
	}

	if err := fn(ctx, pgExecutor{q: tx}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return classifyPostgres("commit transaction", err)
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	if p.pool == nil {
		return fmt.Errorf("ping postgres: %w: backend not opened", ErrUnavailable)
	}
	return classifyPostgres("ping postgres", p.pool.Ping(ctx))
}

// Close releases the bun handle and every pooled connection.
func (p *Postgres) Close() error {
	if p.pool == nil {
		return nil
	}
	var err error
	if p.bun != nil {
		err = p.bun.Close()
	}
	p.pool.Close()
	p.pool = nil
	p.pgExecutor = pgExecutor{}
	return err
}

func (p *Postgres) DB() *bun.DB { return p.bun }

type pgExecutor struct {
	q pgQuerier
}

func (e pgExecutor) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if e.q == nil {
		return 0, fmt.Errorf("exec: %w: backend not opened", ErrUnavailable)
	}
	tag, err := e.q.Exec(ctx, Rebind(query), args...)
	if err != nil {
		return 0, classifyPostgres("exec", err)
	}
	return tag.RowsAffected(), nil
}

func (e pgExecutor) FetchOne(ctx context.Context, query string, args ...any) (Row, error) {
	rows, err := e.FetchAll(ctx, query, args...)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (e pgExecutor) FetchAll(ctx context.Context, query string, args ...any) ([]Row, error) {
	if e.q == nil {
		return nil, fmt.Errorf("query: %w: backend not opened", ErrUnavailable)
	}
	rows, err := e.q.Query(ctx, Rebind(query), args...)
	if err != nil {
		return nil, classifyPostgres("query", err)
	}

	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, classifyPostgres("collect rows", err)
	}

	return rowsFromMaps(maps), nil
}

// InsertReturning uses RETURNING so generated values arrive with the insert.
func (e pgExecutor) InsertReturning(ctx context.Context, table string, columns []string, args ...any) (Row, error) {
	if e.q == nil {
		return nil, fmt.Errorf("insert: %w: backend not opened", ErrUnavailable)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		table, strings.Join(columns, ", "), placeholders(len(columns)))

	rows, err := e.q.Query(ctx, Rebind(query), args...)
	if err != nil {
		return nil, classifyPostgres("insert "+table, err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToMap)
	if err != nil {
		return nil, classifyPostgres("insert "+table, err)
	}
	return Row(m), nil
}
