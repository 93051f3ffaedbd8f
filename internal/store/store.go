// Package store defines the persistence contract shared by the Supabase and
// SQLite backends.
package store

import (
	"context"
	"errors"

	"paper-trader/internal/models"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Store is the backing store of the portfolio.
type Store interface {
	// LatestPrice returns the close price of the most recent row for symbol,
	// or ErrNotFound.
	LatestPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
	// RecentPrices returns up to limit price rows across all symbols, newest
	// date first.
	RecentPrices(ctx context.Context, limit int) ([]models.DailyPrice, error)

	LoadHoldings(ctx context.Context) ([]models.Holding, error)
	// SaveHolding upserts on symbol.
	SaveHolding(ctx context.Context, h models.Holding) error
	DeleteHolding(ctx context.Context, symbol string) error

	// UpsertPnL writes the record, replacing any existing row for its date.
	UpsertPnL(ctx context.Context, rec models.PnLRecord) error
	// LatestPnL returns the most recent record, or ErrNotFound.
	LatestPnL(ctx context.Context) (models.PnLRecord, error)
	// PnLHistory returns up to limit records, newest first.
	PnLHistory(ctx context.Context, limit int) ([]models.PnLRecord, error)

	RecordTrade(ctx context.Context, t models.Trade) error
	// ListTrades returns up to limit trades, newest first.
	ListTrades(ctx context.Context, limit int) ([]models.Trade, error)

	Close() error
}

// PriceWriter is implemented by backends that can seed price rows. The
// remote store's price table is filled by an external loader.
type PriceWriter interface {
	SavePrice(ctx context.Context, p models.DailyPrice) error
}
