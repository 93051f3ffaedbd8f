package portfolio

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind classifies a rejected request. Every Kind is a validation failure:
// the request was refused before any state changed and retrying it unchanged
// will fail again.
type Kind int

const (
	KindInvalidQuantity Kind = iota + 1
	KindInvalidSymbol
	KindNoPriceData
	KindMaxHoldingsReached
	KindInsufficientCash
	KindInsufficientShares
)

var kindNames = map[Kind]string{
	KindInvalidQuantity:    "invalid_quantity",
	KindInvalidSymbol:      "invalid_symbol",
	KindNoPriceData:        "no_price_data",
	KindMaxHoldingsReached: "max_holdings_reached",
	KindInsufficientCash:   "insufficient_cash",
	KindInsufficientShares: "insufficient_shares",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a rejected buy or sell. Only the fields relevant to Kind are set.
type Error struct {
	Kind     Kind
	Symbol   string
	Quantity int64           // requested
	Held     int64           // shares held, InsufficientShares
	Limit    int             // MaxHoldingsReached
	Cost     decimal.Decimal // InsufficientCash
	Cash     decimal.Decimal // InsufficientCash
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidQuantity:
		return fmt.Sprintf("Quantity must be positive, got %d", e.Quantity)
	case KindInvalidSymbol:
		return "Symbol is required"
	case KindNoPriceData:
		return fmt.Sprintf("No price data for symbol %s", e.Symbol)
	case KindMaxHoldingsReached:
		return "Maximum number of holdings reached"
	case KindInsufficientCash:
		return fmt.Sprintf("Insufficient cash. Need %s, have %s", e.Cost.StringFixed(2), e.Cash.StringFixed(2))
	case KindInsufficientShares:
		return fmt.Sprintf("Not enough shares to sell. Have %d, trying to sell %d", e.Held, e.Quantity)
	}
	return e.Kind.String()
}

// Is matches any *Error of the same Kind, so the sentinels below work with
// errors.Is regardless of the structured fields.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidQuantity    = &Error{Kind: KindInvalidQuantity}
	ErrInvalidSymbol      = &Error{Kind: KindInvalidSymbol}
	ErrNoPriceData        = &Error{Kind: KindNoPriceData}
	ErrMaxHoldingsReached = &Error{Kind: KindMaxHoldingsReached}
	ErrInsufficientCash   = &Error{Kind: KindInsufficientCash}
	ErrInsufficientShares = &Error{Kind: KindInsufficientShares}
)

// IsValidation reports whether err is a rejected request as opposed to an
// infrastructure failure.
func IsValidation(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// SnapshotError is returned when a trade was applied but the daily snapshot
// that follows it could not be valued or written. It does not unwrap to the
// cause: a missing price for another holding must not read as a rejection.
type SnapshotError struct {
	Side   string
	Symbol string
	Cause  string
}

func (e *SnapshotError) Error() string {
	return fmt.Sprintf("%s %s applied, snapshot failed: %s", e.Side, e.Symbol, e.Cause)
}
