package portfolio

import (
	"maps"
	"sort"

	"github.com/shopspring/decimal"
)

// Position is the open quantity of one symbol and its weighted-average cost.
type Position struct {
	Quantity int64           `json:"quantity"`
	AvgPrice decimal.Decimal `json:"avg_price"`
}

// State is the cash balance and the open positions. Holdings never contains a
// zero-quantity position.
type State struct {
	Cash     decimal.Decimal     `json:"cash"`
	Holdings map[string]Position `json:"holdings"`
}

// Clone returns a copy that shares nothing with s.
func (s State) Clone() State {
	holdings := make(map[string]Position, len(s.Holdings))
	maps.Copy(holdings, s.Holdings)
	return State{Cash: s.Cash, Holdings: holdings}
}

// Symbols returns the held symbols in sorted order.
func (s State) Symbols() []string {
	symbols := make([]string, 0, len(s.Holdings))
	for symbol := range s.Holdings {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

func validateOrder(symbol string, quantity int64) error {
	if symbol == "" {
		return &Error{Kind: KindInvalidSymbol}
	}
	if quantity <= 0 {
		return &Error{Kind: KindInvalidQuantity, Symbol: symbol, Quantity: quantity}
	}
	return nil
}

// checkCapacity fails when buying symbol would open a position beyond
// maxHoldings.
func (s State) checkCapacity(symbol string, maxHoldings int) error {
	if _, held := s.Holdings[symbol]; !held && len(s.Holdings) >= maxHoldings {
		return &Error{Kind: KindMaxHoldingsReached, Symbol: symbol, Limit: maxHoldings}
	}
	return nil
}

// checkShares fails when fewer than quantity shares of symbol are held.
func (s State) checkShares(symbol string, quantity int64) error {
	if pos := s.Holdings[symbol]; pos.Quantity < quantity {
		return &Error{Kind: KindInsufficientShares, Symbol: symbol, Quantity: quantity, Held: pos.Quantity}
	}
	return nil
}

// Buy returns the state after buying quantity shares of symbol at price.
// s is not modified. The new average is the cost-weighted mean of the held
// shares and the purchase.
func (s State) Buy(symbol string, quantity int64, price decimal.Decimal, maxHoldings int) (State, error) {
	if err := validateOrder(symbol, quantity); err != nil {
		return s, err
	}
	if err := s.checkCapacity(symbol, maxHoldings); err != nil {
		return s, err
	}

	cost := price.Mul(decimal.NewFromInt(quantity))
	if cost.GreaterThan(s.Cash) {
		return s, &Error{Kind: KindInsufficientCash, Symbol: symbol, Quantity: quantity, Cost: cost, Cash: s.Cash}
	}

	next := s.Clone()
	prev := next.Holdings[symbol]
	newQty := prev.Quantity + quantity
	newAvg := decimal.NewFromInt(prev.Quantity).Mul(prev.AvgPrice).Add(cost).Div(decimal.NewFromInt(newQty))

	next.Cash = s.Cash.Sub(cost)
	next.Holdings[symbol] = Position{Quantity: newQty, AvgPrice: newAvg}
	return next, nil
}

// Sell returns the state after selling quantity shares of symbol at price.
// s is not modified. The average price of the remaining shares is unchanged;
// selling the whole position removes it.
func (s State) Sell(symbol string, quantity int64, price decimal.Decimal) (State, error) {
	if err := validateOrder(symbol, quantity); err != nil {
		return s, err
	}
	if err := s.checkShares(symbol, quantity); err != nil {
		return s, err
	}

	next := s.Clone()
	pos := next.Holdings[symbol]
	pos.Quantity -= quantity

	next.Cash = s.Cash.Add(price.Mul(decimal.NewFromInt(quantity)))
	if pos.Quantity == 0 {
		delete(next.Holdings, symbol)
	} else {
		next.Holdings[symbol] = pos
	}
	return next, nil
}

// Summary is the state valued at current prices.
type Summary struct {
	State
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
	Total         decimal.Decimal `json:"total"`
}

// Value computes unrealized P&L as the sum over holdings of
// (price - average price) * quantity, and total equity as cash plus that.
// prices must contain every held symbol.
func (s State) Value(prices map[string]decimal.Decimal) Summary {
	pnl := decimal.Zero
	for symbol, pos := range s.Holdings {
		pnl = pnl.Add(prices[symbol].Sub(pos.AvgPrice).Mul(decimal.NewFromInt(pos.Quantity)))
	}
	return Summary{
		State:         s.Clone(),
		UnrealizedPnL: pnl,
		Total:         s.Cash.Add(pnl),
	}
}
