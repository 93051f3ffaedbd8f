package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"paper-trader/internal/id"
	"paper-trader/internal/models"
	"paper-trader/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultMaxHoldings is the number of distinct symbols a portfolio may hold.
const DefaultMaxHoldings = 10

// Store is everything the portfolio needs from the backing store.
type Store interface {
	PriceSource
	HoldingStore
	PnLStore
	LatestPnL(ctx context.Context) (models.PnLRecord, error)
	RecordTrade(ctx context.Context, t models.Trade) error
}

// Options configures a Portfolio.
type Options struct {
	StartingCash decimal.Decimal
	MaxHoldings  int
	RecordTrades bool
	// Now defaults to time.Now. It dates snapshots and trades.
	Now func() time.Time
}

// Portfolio applies trades to the cash balance and the ledger and keeps the
// daily snapshot current. All methods are safe for concurrent use; operations
// are serialized.
type Portfolio struct {
	mu sync.Mutex

	logger    *zap.Logger
	store     Store
	prices    *PriceLookup
	ledger    *Ledger
	snapshots *SnapshotWriter

	cash         decimal.Decimal
	startingCash decimal.Decimal
	maxHoldings  int
	recordTrades bool
	now          func() time.Time
}

// New creates a portfolio holding only the starting cash. Call Load to
// restore the persisted state.
func New(logger *zap.Logger, st Store, opts Options) *Portfolio {
	if opts.MaxHoldings <= 0 {
		opts.MaxHoldings = DefaultMaxHoldings
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Portfolio{
		logger:       logger.Named("portfolio"),
		store:        st,
		prices:       NewPriceLookup(st),
		ledger:       NewLedger(st),
		snapshots:    NewSnapshotWriter(st, opts.Now),
		cash:         opts.StartingCash,
		startingCash: opts.StartingCash,
		maxHoldings:  opts.MaxHoldings,
		recordTrades: opts.RecordTrades,
		now:          opts.Now,
	}
}

// Load replaces the in-memory state with the stored holdings and restores
// cash from the latest daily snapshot. Without a snapshot the starting cash is
// kept.
func (p *Portfolio) Load(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ledger.Load(ctx); err != nil {
		return err
	}
	p.logger.Info("Loaded holdings", zap.Int("count", p.ledger.Len()))

	rec, err := p.store.LatestPnL(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		p.cash = p.startingCash
		p.logger.Info("No P&L record found, using starting cash", zap.String("cash", p.cash.String()))
	case err != nil:
		return fmt.Errorf("failed to load cash: %w", err)
	default:
		p.cash = rec.Cash
		p.logger.Info("Restored cash from P&L record",
			zap.String("date", rec.Date),
			zap.String("cash", p.cash.String()))
	}
	return nil
}

// State returns a copy of the cash balance and holdings.
func (p *Portfolio) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state()
}

func (p *Portfolio) state() State {
	return State{Cash: p.cash, Holdings: p.ledger.Holdings()}
}

// Buy purchases quantity shares of symbol at the latest price, persists the
// holding and today's snapshot, and returns the resulting summary.
func (p *Portfolio) Buy(ctx context.Context, symbol string, quantity int64) (Summary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	l := p.logger.With(zap.String("symbol", symbol), zap.Int64("quantity", quantity))
	l.Info("Buy order", zap.String("cash", p.cash.String()))

	state := p.state()
	if err := validateOrder(symbol, quantity); err != nil {
		return Summary{}, p.rejected(l, err)
	}
	if err := state.checkCapacity(symbol, p.maxHoldings); err != nil {
		return Summary{}, p.rejected(l, err)
	}

	price, err := p.prices.LatestPrice(ctx, symbol)
	if err != nil {
		return Summary{}, p.rejected(l, err)
	}

	next, err := state.Buy(symbol, quantity, price, p.maxHoldings)
	if err != nil {
		return Summary{}, p.rejected(l, err)
	}

	if err := p.ledger.Apply(ctx, symbol, next.Holdings[symbol]); err != nil {
		l.Error("Failed to persist holding", zap.Error(err))
		return Summary{}, fmt.Errorf("buy %s: %w", symbol, err)
	}
	p.cash = next.Cash

	pos := next.Holdings[symbol]
	l.Info("Bought",
		zap.String("price", price.String()),
		zap.String("cash", p.cash.String()),
		zap.Int64("position", pos.Quantity),
		zap.String("avg_price", pos.AvgPrice.String()))

	p.journal(ctx, l, models.SideBuy, symbol, quantity, price)
	summary, err := p.updateDailyPnL(ctx)
	if err != nil {
		l.Error("Trade applied but snapshot failed", zap.Error(err))
		return Summary{}, &SnapshotError{Side: models.SideBuy, Symbol: symbol, Cause: err.Error()}
	}
	return summary, nil
}

// Sell disposes of quantity shares of symbol at the latest price. Selling the
// whole position removes the holding.
func (p *Portfolio) Sell(ctx context.Context, symbol string, quantity int64) (Summary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	l := p.logger.With(zap.String("symbol", symbol), zap.Int64("quantity", quantity))
	l.Info("Sell order", zap.String("cash", p.cash.String()))

	state := p.state()
	if err := validateOrder(symbol, quantity); err != nil {
		return Summary{}, p.rejected(l, err)
	}
	if err := state.checkShares(symbol, quantity); err != nil {
		return Summary{}, p.rejected(l, err)
	}

	price, err := p.prices.LatestPrice(ctx, symbol)
	if err != nil {
		return Summary{}, p.rejected(l, err)
	}

	next, err := state.Sell(symbol, quantity, price)
	if err != nil {
		return Summary{}, p.rejected(l, err)
	}

	// A missing entry is the zero Position, which deletes the holding.
	if err := p.ledger.Apply(ctx, symbol, next.Holdings[symbol]); err != nil {
		l.Error("Failed to persist holding", zap.Error(err))
		return Summary{}, fmt.Errorf("sell %s: %w", symbol, err)
	}
	p.cash = next.Cash

	l.Info("Sold",
		zap.String("price", price.String()),
		zap.String("cash", p.cash.String()),
		zap.Int64("remaining", next.Holdings[symbol].Quantity))

	p.journal(ctx, l, models.SideSell, symbol, quantity, price)
	summary, err := p.updateDailyPnL(ctx)
	if err != nil {
		l.Error("Trade applied but snapshot failed", zap.Error(err))
		return Summary{}, &SnapshotError{Side: models.SideSell, Symbol: symbol, Cause: err.Error()}
	}
	return summary, nil
}

// Summary values the portfolio at the latest prices. It writes nothing.
func (p *Portfolio) Summary(ctx context.Context) (Summary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.summary(ctx)
}

func (p *Portfolio) summary(ctx context.Context) (Summary, error) {
	state := p.state()
	prices, err := p.prices.LatestPrices(ctx, state.Symbols())
	if err != nil {
		return Summary{}, err
	}
	return state.Value(prices), nil
}

// UpdateDailyPnL values the portfolio and upserts today's snapshot.
func (p *Portfolio) UpdateDailyPnL(ctx context.Context) (Summary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.updateDailyPnL(ctx)
}

func (p *Portfolio) updateDailyPnL(ctx context.Context) (Summary, error) {
	summary, err := p.summary(ctx)
	if err != nil {
		return Summary{}, err
	}

	rec, err := p.snapshots.Write(ctx, summary)
	if err != nil {
		p.logger.Error("Failed to save P&L", zap.Error(err))
		return Summary{}, err
	}

	p.logger.Info("Saved P&L snapshot",
		zap.String("date", rec.Date),
		zap.String("cash", rec.Cash.String()),
		zap.String("unrealized_pnl", rec.UnrealizedPnL.String()),
		zap.String("total", rec.Total.String()))
	return summary, nil
}

// journal records an executed trade. Failures are logged and do not undo the
// trade.
func (p *Portfolio) journal(ctx context.Context, l *zap.Logger, side, symbol string, quantity int64, price decimal.Decimal) {
	if !p.recordTrades {
		return
	}

	executedAt := p.now().UTC()
	trade := models.Trade{
		ID:         id.New(executedAt),
		Symbol:     symbol,
		Side:       side,
		Quantity:   quantity,
		Price:      price,
		Amount:     price.Mul(decimal.NewFromInt(quantity)),
		ExecutedAt: executedAt,
	}
	if err := p.store.RecordTrade(ctx, trade); err != nil {
		l.Error("Failed to record trade", zap.Error(err))
		return
	}
	l.Debug("Recorded trade", zap.String("trade_id", trade.ID))
}

func (p *Portfolio) rejected(l *zap.Logger, err error) error {
	if IsValidation(err) {
		l.Info("Order rejected", zap.Error(err))
	} else {
		l.Error("Order failed", zap.Error(err))
	}
	return err
}
