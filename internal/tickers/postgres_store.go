package tickers

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStoreConfig controls the Postgres connection pool used for the
// ticker document set.
type PostgresStoreConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PostgresStore persists ticker entries in Postgres.
type PostgresStore struct {
	pool pgxPool
}

const (
	createTickersTableSQL = `CREATE TABLE IF NOT EXISTS tickers (
		ticker TEXT PRIMARY KEY,
		name   TEXT NOT NULL
	)`
	selectTickersSQL = `SELECT ticker, name FROM tickers ORDER BY ticker`
	deleteTickersSQL = `DELETE FROM tickers`
	upsertTickerSQL  = `INSERT INTO tickers (ticker, name) VALUES ($1, $2)
		ON CONFLICT (ticker) DO UPDATE SET name = EXCLUDED.name`
)

// NewPostgresStore connects a pool and ensures the schema exists.
func NewPostgresStore(ctx context.Context, cfg PostgresStoreConfig) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("tickers.db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store := &PostgresStore{pool: pool}
	if err := store.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresStoreWithPool constructs a store from an existing pool
// (primarily for testing). The schema is not touched.
func NewPostgresStoreWithPool(pool pgxPool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createTickersTableSQL); err != nil {
		return fmt.Errorf("ensure tickers table: %w", err)
	}
	return nil
}

// Load reads all persisted entries.
func (s *PostgresStore) Load(ctx context.Context) ([]Entry, error) {
	rows, err := s.pool.Query(ctx, selectTickersSQL)
	if err != nil {
		return nil, fmt.Errorf("select tickers: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Ticker, &e.Name); err != nil {
			return nil, fmt.Errorf("scan ticker row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ticker rows: %w", err)
	}
	return entries, nil
}

// Save replaces the persisted set with the given entries.
func (s *PostgresStore) Save(ctx context.Context, entries []Entry) error {
	if _, err := s.pool.Exec(ctx, deleteTickersSQL); err != nil {
		return fmt.Errorf("clear tickers: %w", err)
	}
	for _, e := range entries {
		if _, err := s.pool.Exec(ctx, upsertTickerSQL, e.Ticker, e.Name); err != nil {
			return fmt.Errorf("upsert ticker %q: %w", e.Ticker, err)
		}
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *PostgresStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}
