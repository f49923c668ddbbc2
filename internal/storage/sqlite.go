package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// SQLiteConfig configures the file backed SQLite backend.
type SQLiteConfig struct {
	Path string

	// BusyTimeout is how long a connection waits on a locked database
	// before failing. Zero means 5 seconds.
	BusyTimeout time.Duration
}

// sqlQuerier is satisfied by both *sql.DB and *sql.Tx.
type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SQLite is a Backend that keeps no idle connections: every logical
// operation opens a connection and releases it when done. SQLite does not
// tolerate long lived connections shared across concurrent requests.
type SQLite struct {
	cfg SQLiteConfig
	db  *sql.DB
	bun *bun.DB
	sqliteExecutor
}

var _ Backend = (*SQLite)(nil)

// NewSQLite creates an unopened SQLite backend.
func NewSQLite(cfg SQLiteConfig) *SQLite {
	return &SQLite{cfg: cfg}
}

func (s *SQLite) Name() string { return BackendSQLite }

// DSN returns the connection string handed to the sqlite3 driver.
func (c SQLiteConfig) DSN() string {
	timeout := c.BusyTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	params := url.Values{}
	params.Set("_busy_timeout", fmt.Sprint(timeout.Milliseconds()))
	params.Set("_foreign_keys", "on")
	params.Set("_journal_mode", "WAL")
	params.Set("_txlock", "immediate")

	return "file:" + c.Path + "?" + params.Encode()
}

// Open validates the path and verifies the file can be opened.
func (s *SQLite) Open(ctx context.Context) error {
	if s.db != nil {
		return nil
	}
	path := strings.TrimSpace(s.cfg.Path)
	if path == "" {
		return errors.New("open sqlite: path is required")
	}
	if path == ":memory:" || strings.Contains(path, "mode=memory") {
		// Each operation gets a fresh connection, which would see an empty database.
		return errors.New("open sqlite: in-memory databases are not supported")
	}

	db, err := sql.Open("sqlite3", s.cfg.DSN())
	if err != nil {
		return classifySQLite("open sqlite", err)
	}
	db.SetMaxIdleConns(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return classifySQLite("ping sqlite", err)
	}

	s.db = db
	s.bun = bun.NewDB(db, sqlitedialect.New())
	s.sqliteExecutor = sqliteExecutor{q: db, bun: s.bun}
	return nil
}

// InTx pins a single connection for the duration of fn.
func (s *SQLite) InTx(ctx context.Context, fn TxFunc) error {
	if s.db == nil {
		return fmt.Errorf("begin transaction: %w: backend not opened", ErrUnavailable)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classifySQLite("begin transaction", err)
	}

	if err := fn(ctx, sqliteExecutor{q: tx, bun: s.bun}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return classifySQLite("commit transaction", err)
	}
	return nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("ping sqlite: %w: backend not opened", ErrUnavailable)
	}
	return classifySQLite("ping sqlite", s.db.PingContext(ctx))
}

func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.sqliteExecutor = sqliteExecutor{}
	return err
}

func (s *SQLite) DB() *bun.DB { return s.bun }

// sqliteExecutor runs raw SQL on q and lets bun scan the results.
type sqliteExecutor struct {
	q   sqlQuerier
	bun *bun.DB
}

func (e sqliteExecutor) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if e.q == nil {
		return 0, fmt.Errorf("exec: %w: backend not opened", ErrUnavailable)
	}
	res, err := e.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, classifySQLite("exec", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, classifySQLite("rows affected", err)
	}
	return n, nil
}

func (e sqliteExecutor) FetchOne(ctx context.Context, query string, args ...any) (Row, error) {
	rows, err := e.FetchAll(ctx, query, args...)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (e sqliteExecutor) FetchAll(ctx context.Context, query string, args ...any) ([]Row, error) {
	if e.q == nil {
		return nil, fmt.Errorf("query: %w: backend not opened", ErrUnavailable)
	}
	rows, err := e.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifySQLite("query", err)
	}

	var maps []map[string]any
	if err := e.bun.ScanRows(ctx, rows, &maps); err != nil {
		return nil, classifySQLite("scan rows", err)
	}
	return rowsFromMaps(maps), nil
}

// InsertReturning inserts and then reads the row back by its rowid, since
// the driver only reports the generated id.
func (e sqliteExecutor) InsertReturning(ctx context.Context, table string, columns []string, args ...any) (Row, error) {
	if e.q == nil {
		return nil, fmt.Errorf("insert: %w: backend not opened", ErrUnavailable)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), placeholders(len(columns)))

	res, err := e.q.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, classifySQLite("insert "+table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, classifySQLite("insert "+table, err)
	}

	row, err := e.FetchOne(ctx, fmt.Sprintf("SELECT * FROM %s WHERE rowid = ?", table), id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("insert %s: row %d not readable after insert", table, id)
	}
	return row, nil
}
