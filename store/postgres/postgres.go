// Package postgres is a store.KV backend over PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oap75/freecalls/store"
)

// Config configures the PostgreSQL connection pool.
type Config struct {
	ConnString       string
	MaxConns         int32
	MinConns         int32
	ConnErrorStrings []string
}

var connErrorStrings = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no route to host",
	"i/o timeout",
	"too many connections",
}

// Backend adapts a pgx connection pool to store.KV, storing records in a
// single key/value table created on first connect.
type Backend struct {
	pool       *pgxpool.Pool
	connErrors []string
}

// New connects to PostgreSQL per config, pings it, and ensures the backing
// table exists.
func New(ctx context.Context, config Config) (*Backend, error) {
	if config.MaxConns == 0 {
		config.MaxConns = 10
	}
	if config.MinConns == 0 {
		config.MinConns = 2
	}
	patterns := config.ConnErrorStrings
	if patterns == nil {
		patterns = connErrorStrings
	}
	b := &Backend{connErrors: patterns}

	poolConfig, err := pgxpool.ParseConfig(config.ConnString)
	if err != nil {
		return nil, b.maybeConnError("postgres:ParseConfig", err)
	}
	poolConfig.MaxConns = config.MaxConns
	poolConfig.MinConns = config.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, b.maybeConnError("postgres:NewPool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, b.maybeConnError("postgres:Ping", err)
	}
	if err := createTable(ctx, pool); err != nil {
		return nil, fmt.Errorf("store/postgres: create table: %w", err)
	}

	b.pool = pool
	return b, nil
}

// NewWithPool wraps an already-connected pool.
func NewWithPool(pool *pgxpool.Pool) *Backend {
	return &Backend{pool: pool, connErrors: connErrorStrings}
}

func createTable(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS freecalls_kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			expires_at TIMESTAMPTZ
		)
	`)
	return err
}

func (b *Backend) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	var expiresAt *time.Time
	err := b.pool.QueryRow(ctx,
		`SELECT value, expires_at FROM freecalls_kv WHERE key = $1`, key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, b.maybeConnError("postgres:Get", err)
	}
	if expiresAt != nil && time.Now().After(*expiresAt) {
		return "", false, nil
	}
	return value, true, nil
}

func (b *Backend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	expiresAt := expiryFor(ttl)
	_, err := b.pool.Exec(ctx, `
		INSERT INTO freecalls_kv (key, value, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at
	`, key, value, expiresAt)
	if err != nil {
		return b.maybeConnError("postgres:Set", err)
	}
	return nil
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	_, err := b.pool.Exec(ctx, `DELETE FROM freecalls_kv WHERE key = $1`, key)
	if err != nil {
		return b.maybeConnError("postgres:Delete", err)
	}
	return nil
}

func (b *Backend) Close() error {
	if b.pool != nil {
		b.pool.Close()
	}
	return nil
}

func (b *Backend) CheckAndSet(ctx context.Context, key, oldValue, newValue string, ttl time.Duration) (bool, error) {
	expiresAt := expiryFor(ttl)

	if oldValue == "" {
		result, err := b.pool.Exec(ctx, `
			INSERT INTO freecalls_kv (key, value, expires_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (key) DO UPDATE SET
				value = EXCLUDED.value, expires_at = EXCLUDED.expires_at
			WHERE freecalls_kv.expires_at IS NOT NULL AND freecalls_kv.expires_at <= NOW()
		`, key, newValue, expiresAt)
		if err != nil {
			return false, b.maybeConnError("postgres:CheckAndSet:Insert", err)
		}
		return result.RowsAffected() > 0, nil
	}

	result, err := b.pool.Exec(ctx, `
		UPDATE freecalls_kv
		SET value = $1, expires_at = $2
		WHERE key = $3 AND value = $4 AND (expires_at IS NULL OR expires_at > NOW())
	`, newValue, expiresAt, key, oldValue)
	if err != nil {
		return false, b.maybeConnError("postgres:CheckAndSet:Update", err)
	}
	return result.RowsAffected() == 1, nil
}

// PruneExpired deletes up to batchSize rows past their expiry and returns
// how many were removed. Intended for a periodic maintenance job, not the
// request path.
func (b *Backend) PruneExpired(ctx context.Context, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 1000
	}
	cmd, err := b.pool.Exec(ctx, `
		WITH stale AS (
			SELECT key FROM freecalls_kv
			WHERE expires_at IS NOT NULL AND expires_at <= NOW()
			LIMIT $1
		)
		DELETE FROM freecalls_kv t USING stale WHERE t.key = stale.key
	`, batchSize)
	if err != nil {
		return 0, fmt.Errorf("store/postgres: prune expired: %w", err)
	}
	return cmd.RowsAffected(), nil
}

func expiryFor(ttl time.Duration) *time.Time {
	if ttl <= 0 {
		return nil
	}
	t := time.Now().Add(ttl)
	return &t
}

func (b *Backend) maybeConnError(op string, err error) error {
	lower := strings.ToLower(err.Error())
	for _, pattern := range b.connErrors {
		if strings.Contains(lower, pattern) {
			return store.NewHealthError(op, err)
		}
	}
	return fmt.Errorf("store/postgres: %s: %w", op, err)
}
