// Package postgres implements the optional audit trail using PostgreSQL via
// pgx. The scanner works fully without it; when a DSN is configured every
// tick's readings and every placed order are recorded for later review.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ClientConfig holds connection parameters for the PostgreSQL client.
type ClientConfig struct {
	DSN      string
	MaxConns int
	MinConns int
}

// Client wraps a pgxpool.Pool and manages schema setup.
type Client struct {
	pool *pgxpool.Pool
}

// New creates a Client with a connection pool configured from cfg, pings
// the database, and ensures the audit schema exists.
func New(ctx context.Context, cfg ClientConfig) (*Client, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = int32(cfg.MinConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	c := &Client{pool: pool}
	if err := c.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return c, nil
}

// Pool returns the underlying connection pool.
func (c *Client) Pool() *pgxpool.Pool {
	return c.pool
}

// Close releases the connection pool.
func (c *Client) Close() {
	c.pool.Close()
}

func (c *Client) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS readings (
			id              BIGSERIAL PRIMARY KEY,
			location        TEXT NOT NULL,
			forecast_high_f DOUBLE PRECISION NOT NULL,
			sigma_f         DOUBLE PRECISION NOT NULL,
			target_bracket  TEXT,
			best_edge       DOUBLE PRECISION,
			order_id        TEXT,
			skipped_reason  TEXT,
			observed_at     TIMESTAMPTZ NOT NULL,
			recorded_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_readings_location_observed
			ON readings (location, observed_at DESC)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id            TEXT PRIMARY KEY,
			token_id      TEXT NOT NULL,
			wallet        TEXT NOT NULL,
			side          TEXT NOT NULL,
			order_type    TEXT NOT NULL,
			price         DOUBLE PRECISION NOT NULL,
			spend_usdc    DOUBLE PRECISION NOT NULL,
			status        TEXT NOT NULL,
			location      TEXT,
			bracket       TEXT,
			created_at    TIMESTAMPTZ NOT NULL,
			recorded_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range stmts {
		if _, err := c.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: ensure schema: %w", err)
		}
	}
	return nil
}
