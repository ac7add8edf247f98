package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"expenses/internal/core"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Config describes how to reach the store and how to size its connection pool.
type Config struct {
	Driver Driver
	// DSN is a file path for sqlite and a connection URL for postgres.
	DSN string

	MaxOpenConns    int
	MinIdleConns    int
	ConnMaxIdleTime time.Duration
	// AcquireTimeout bounds the wait for a pooled connection.
	AcquireTimeout time.Duration
}

func (c Config) sqlDriverName() string {
	if c.Driver == DriverPostgres {
		return "pgx"
	}
	return "sqlite"
}

// ensureDir creates the parent directory of a sqlite database file.
func (c Config) ensureDir() error {
	if c.Driver != DriverSQLite {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.DSN), 0755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}
	return nil
}

func (c Config) dataSourceName() string {
	if c.Driver == DriverPostgres {
		return c.DSN
	}
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(10000)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Set("_txlock", "immediate")
	return c.DSN + "?" + q.Encode()
}

// Store is the relational store shared by every request. It holds no other mutable state.
type Store struct {
	db             *sql.DB
	dialect        Dialect
	acquireTimeout time.Duration
}

// querier is satisfied by both *sql.Conn and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open connects to the store, applies migrations and configures the pool.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	if err := cfg.ensureDir(); err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.sqlDriverName(), cfg.dataSourceName())
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MinIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MinIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = 5 * time.Second
	}

	s := &Store{db: db, dialect: dialect, acquireTimeout: cfg.AcquireTimeout}
	if err := s.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(cfg); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return s, nil
}

func (s *Store) Dialect() Dialect { return s.dialect }

func (s *Store) Ping(ctx context.Context) error {
	return s.withConn(ctx, func(q querier) error {
		var one int
		return q.QueryRowContext(ctx, "SELECT 1").Scan(&one)
	})
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// conn takes a connection from the pool. Only the wait is bounded by the
// acquire timeout; the returned connection follows ctx.
func (s *Store) conn(ctx context.Context) (*sql.Conn, error) {
	actx, cancel := context.WithTimeout(ctx, s.acquireTimeout)
	defer cancel()

	c, err := s.db.Conn(actx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("acquire connection after %s: %w", s.acquireTimeout, core.ErrUnavailable)
		}
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return c, nil
}

func (s *Store) withConn(ctx context.Context, fn func(q querier) error) error {
	c, err := s.conn(ctx)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

// withTx runs fn in a transaction, rolling back on any error.
func (s *Store) withTx(ctx context.Context, fn func(q querier) error) error {
	c, err := s.conn(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	tx, err := c.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) ph(n int) string { return s.dialect.Placeholder(n) }
