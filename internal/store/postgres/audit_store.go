package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wxarb/internal/domain"
)

// AuditStore persists tick readings and placed orders.
type AuditStore struct {
	pool *pgxpool.Pool
}

// NewAuditStore creates an AuditStore backed by the given connection pool.
func NewAuditStore(pool *pgxpool.Pool) *AuditStore {
	return &AuditStore{pool: pool}
}

// RecordReadings inserts one tick's readings in a single batch.
func (s *AuditStore) RecordReadings(ctx context.Context, readings []domain.Reading) error {
	if len(readings) == 0 {
		return nil
	}

	const query = `
		INSERT INTO readings (
			location, forecast_high_f, sigma_f, target_bracket,
			best_edge, order_id, skipped_reason, observed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	batch := &pgx.Batch{}
	for _, r := range readings {
		batch.Queue(query,
			r.Location, r.ForecastHighF, r.SigmaF, r.TargetBracket,
			r.BestEdge, r.OrderID, r.SkippedReason, r.Timestamp,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range readings {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: record readings: %w", err)
		}
	}
	return nil
}

// RecordOrder inserts a placed order together with the location and bracket
// that produced it.
func (s *AuditStore) RecordOrder(ctx context.Context, location, bracket string, o domain.Order) error {
	const query = `
		INSERT INTO orders (
			id, token_id, wallet, side, order_type,
			price, spend_usdc, status, location, bracket, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING`

	_, err := s.pool.Exec(ctx, query,
		o.ID, o.TokenID, o.Wallet, string(o.Side), string(o.Type),
		o.Price(), o.SpendUSDC(), string(o.Status), location, bracket, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: record order %s: %w", o.ID, err)
	}
	return nil
}

// RecentReadings returns up to limit readings, newest first.
func (s *AuditStore) RecentReadings(ctx context.Context, limit int) ([]domain.Reading, error) {
	if limit <= 0 {
		limit = 50
	}

	const query = `
		SELECT location, forecast_high_f, sigma_f, target_bracket,
		       best_edge, order_id, skipped_reason, observed_at
		FROM readings
		ORDER BY observed_at DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: recent readings: %w", err)
	}
	defer rows.Close()

	var readings []domain.Reading
	for rows.Next() {
		var r domain.Reading
		if err := rows.Scan(
			&r.Location, &r.ForecastHighF, &r.SigmaF, &r.TargetBracket,
			&r.BestEdge, &r.OrderID, &r.SkippedReason, &r.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan reading: %w", err)
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate readings: %w", err)
	}
	return readings, nil
}
