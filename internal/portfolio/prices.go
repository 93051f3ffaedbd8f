package portfolio

import (
	"context"
	"errors"
	"fmt"

	"paper-trader/internal/store"

	"github.com/shopspring/decimal"
)

// PriceSource is the read side of the price table.
type PriceSource interface {
	LatestPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// PriceLookup resolves the latest close price of a symbol. Every call goes to
// the store; there is no cache.
type PriceLookup struct {
	source PriceSource
}

func NewPriceLookup(source PriceSource) *PriceLookup {
	return &PriceLookup{source: source}
}

// LatestPrice returns the most recent close price, or a KindNoPriceData error
// when the store has no row for symbol.
func (p *PriceLookup) LatestPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	price, err := p.source.LatestPrice(ctx, symbol)
	if errors.Is(err, store.ErrNotFound) {
		return decimal.Zero, &Error{Kind: KindNoPriceData, Symbol: symbol}
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("price lookup for %s: %w", symbol, err)
	}
	return price, nil
}

// LatestPrices looks up every symbol in turn.
func (p *PriceLookup) LatestPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(symbols))
	for _, symbol := range symbols {
		price, err := p.LatestPrice(ctx, symbol)
		if err != nil {
			return nil, err
		}
		prices[symbol] = price
	}
	return prices, nil
}
