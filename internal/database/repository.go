package database

import (
	"context"
	"errors"

	"optionpricer/internal/model"
)

// ErrDisabled is returned by repositories that do not persist anything.
var ErrDisabled = errors.New("quote storage is disabled")

// Repository defines the standard interface for database operations.
type Repository interface {
	Migrate(ctx context.Context) error
	LogQuote(ctx context.Context, quote model.Quote) error
	RecentQuotes(ctx context.Context, limit int) ([]model.Quote, error)
}

// NopRepository discards quotes. It is used when no database is configured.
type NopRepository struct{}

// Migrate does nothing.
func (NopRepository) Migrate(context.Context) error { return nil }

// LogQuote discards the quote.
func (NopRepository) LogQuote(context.Context, model.Quote) error { return nil }

// RecentQuotes always returns ErrDisabled.
func (NopRepository) RecentQuotes(context.Context, int) ([]model.Quote, error) {
	return nil, ErrDisabled
}
