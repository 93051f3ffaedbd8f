package portfolio

import (
	"context"
	"fmt"

	"paper-trader/internal/models"
)

// HoldingStore is the durable mirror of the ledger.
type HoldingStore interface {
	LoadHoldings(ctx context.Context) ([]models.Holding, error)
	SaveHolding(ctx context.Context, h models.Holding) error
	DeleteHolding(ctx context.Context, symbol string) error
}

// Ledger is the authoritative symbol -> Position map. Each change is written
// to the store before it is applied in memory, one symbol at a time.
type Ledger struct {
	store    HoldingStore
	holdings map[string]Position
}

func NewLedger(store HoldingStore) *Ledger {
	return &Ledger{store: store, holdings: make(map[string]Position)}
}

// Load replaces the in-memory map with the store contents.
func (l *Ledger) Load(ctx context.Context) error {
	rows, err := l.store.LoadHoldings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load holdings: %w", err)
	}

	holdings := make(map[string]Position, len(rows))
	for _, row := range rows {
		if row.Quantity <= 0 {
			continue
		}
		holdings[row.Symbol] = Position{Quantity: row.Quantity, AvgPrice: row.AvgPrice}
	}
	l.holdings = holdings
	return nil
}

// Apply sets the position of symbol. A zero quantity deletes the holding.
// On a store failure the in-memory map is left unchanged.
func (l *Ledger) Apply(ctx context.Context, symbol string, pos Position) error {
	if pos.Quantity == 0 {
		if err := l.store.DeleteHolding(ctx, symbol); err != nil {
			return err
		}
		delete(l.holdings, symbol)
		return nil
	}

	row := models.Holding{Symbol: symbol, Quantity: pos.Quantity, AvgPrice: pos.AvgPrice}
	if err := l.store.SaveHolding(ctx, row); err != nil {
		return err
	}
	l.holdings[symbol] = pos
	return nil
}

// Holdings returns a copy of the map.
func (l *Ledger) Holdings() map[string]Position {
	return State{Holdings: l.holdings}.Clone().Holdings
}

func (l *Ledger) Len() int {
	return len(l.holdings)
}
