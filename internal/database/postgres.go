package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"optionpricer/internal/config"
	"optionpricer/internal/model"
)

const createQuotesTableSQL = `
CREATE TABLE IF NOT EXISTS option_quotes (
	id TEXT PRIMARY KEY,
	timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	spot DOUBLE PRECISION NOT NULL,
	strike DOUBLE PRECISION NOT NULL,
	days INTEGER NOT NULL,
	rate_percent DOUBLE PRECISION NOT NULL,
	volatility_percent DOUBLE PRECISION NOT NULL,
	years DOUBLE PRECISION NOT NULL,
	rate DOUBLE PRECISION NOT NULL,
	volatility DOUBLE PRECISION NOT NULL,
	call_price DOUBLE PRECISION NOT NULL,
	put_price DOUBLE PRECISION NOT NULL
);`

// PostgresRepository stores quotes in PostgreSQL.
type PostgresRepository struct {
	Pool *pgxpool.Pool
}

// NewPostgresRepository connects to the configured database.
func NewPostgresRepository(ctx context.Context, cfg config.DatabaseConfig) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &PostgresRepository{Pool: pool}, nil
}

// Close releases the connection pool.
func (r *PostgresRepository) Close() {
	r.Pool.Close()
}

// Migrate creates the quotes table if it does not exist.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	_, err := r.Pool.Exec(ctx, createQuotesTableSQL)
	return err
}

// LogQuote inserts a single quote.
func (r *PostgresRepository) LogQuote(ctx context.Context, q model.Quote) error {
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO option_quotes (id, timestamp, spot, strike, days, rate_percent, volatility_percent,
			years, rate, volatility, call_price, put_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		q.ID, q.Timestamp, q.Spot, q.Strike, q.Days, q.RatePercent, q.VolatilityPercent,
		q.Years, q.Rate, q.Volatility, q.CallPrice, q.PutPrice,
	)
	return err
}

// RecentQuotes returns up to limit quotes, newest first.
func (r *PostgresRepository) RecentQuotes(ctx context.Context, limit int) ([]model.Quote, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT id, timestamp, spot, strike, days, rate_percent, volatility_percent,
			years, rate, volatility, call_price, put_price
		FROM option_quotes
		ORDER BY timestamp DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByNameLax[model.Quote])
}
