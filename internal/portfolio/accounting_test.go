package portfolio

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func freshState(cash string) State {
	return State{Cash: dec(cash), Holdings: map[string]Position{}}
}

func TestStateWorkedExample(t *testing.T) {
	s := freshState("1000000")

	s, err := s.Buy("AAPL", 10, dec("150"), DefaultMaxHoldings)
	require.NoError(t, err)
	assertDecimal(t, "998500", s.Cash)
	assert.Equal(t, int64(10), s.Holdings["AAPL"].Quantity)
	assertDecimal(t, "150", s.Holdings["AAPL"].AvgPrice)

	s, err = s.Buy("AAPL", 10, dec("170"), DefaultMaxHoldings)
	require.NoError(t, err)
	assertDecimal(t, "996800", s.Cash)
	assert.Equal(t, int64(20), s.Holdings["AAPL"].Quantity)
	assertDecimal(t, "160", s.Holdings["AAPL"].AvgPrice)

	s, err = s.Sell("AAPL", 15, dec("200"))
	require.NoError(t, err)
	assertDecimal(t, "999800", s.Cash)
	assert.Equal(t, int64(5), s.Holdings["AAPL"].Quantity)
	assertDecimal(t, "160", s.Holdings["AAPL"].AvgPrice)

	summary := s.Value(map[string]decimal.Decimal{"AAPL": dec("200")})
	assertDecimal(t, "200", summary.UnrealizedPnL)
	assertDecimal(t, "1000000", summary.Total)
}

func TestBuyAveragesCostWeighted(t *testing.T) {
	buys := []struct {
		qty   int64
		price string
	}{
		{qty: 3, price: "10"},
		{qty: 7, price: "12.5"},
		{qty: 1, price: "100"},
		{qty: 9, price: "8.25"},
	}

	s := freshState("100000")
	totalCost := decimal.Zero
	var totalQty int64
	for _, b := range buys {
		var err error
		s, err = s.Buy("XYZ", b.qty, dec(b.price), DefaultMaxHoldings)
		require.NoError(t, err)
		totalCost = totalCost.Add(dec(b.price).Mul(decimal.NewFromInt(b.qty)))
		totalQty += b.qty
	}

	pos := s.Holdings["XYZ"]
	assert.Equal(t, totalQty, pos.Quantity)
	assert.True(t, totalCost.Div(decimal.NewFromInt(totalQty)).Sub(pos.AvgPrice).Abs().LessThan(dec("0.000000001")),
		"avg %s", pos.AvgPrice)
	assertDecimal(t, "100000", s.Cash.Add(totalCost))
}

func TestSellKeepsAveragePrice(t *testing.T) {
	start := State{
		Cash:     dec("0"),
		Holdings: map[string]Position{"AAPL": {Quantity: 10, AvgPrice: dec("123.45")}},
	}

	for _, qty := range []int64{1, 5, 9} {
		s, err := start.Sell("AAPL", qty, dec("99"))
		require.NoError(t, err)
		assert.Equal(t, 10-qty, s.Holdings["AAPL"].Quantity)
		assertDecimal(t, "123.45", s.Holdings["AAPL"].AvgPrice)
		assertDecimal(t, dec("99").Mul(decimal.NewFromInt(qty)).String(), s.Cash)
	}

	s, err := start.Sell("AAPL", 10, dec("99"))
	require.NoError(t, err)
	_, held := s.Holdings["AAPL"]
	assert.False(t, held, "selling the full position removes it")
	assert.Equal(t, int64(10), start.Holdings["AAPL"].Quantity, "the input state is not modified")
}

func TestStateRejections(t *testing.T) {
	full := freshState("1000")
	for _, symbol := range []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"} {
		full.Holdings[symbol] = Position{Quantity: 1, AvgPrice: dec("1")}
	}

	testCases := []struct {
		name    string
		apply   func(s State) (State, error)
		start   State
		wantErr error
	}{
		{
			name:    "new symbol beyond max holdings",
			start:   full,
			apply:   func(s State) (State, error) { return s.Buy("K", 1, dec("1"), DefaultMaxHoldings) },
			wantErr: ErrMaxHoldingsReached,
		},
		{
			name:    "insufficient cash",
			start:   freshState("1000"),
			apply:   func(s State) (State, error) { return s.Buy("AAPL", 10, dec("100.01"), DefaultMaxHoldings) },
			wantErr: ErrInsufficientCash,
		},
		{
			name:    "sell more than held",
			start:   full,
			apply:   func(s State) (State, error) { return s.Sell("A", 2, dec("1")) },
			wantErr: ErrInsufficientShares,
		},
		{
			name:    "sell symbol not held",
			start:   freshState("1000"),
			apply:   func(s State) (State, error) { return s.Sell("AAPL", 1, dec("1")) },
			wantErr: ErrInsufficientShares,
		},
		{
			name:    "zero quantity buy",
			start:   freshState("1000"),
			apply:   func(s State) (State, error) { return s.Buy("AAPL", 0, dec("1"), DefaultMaxHoldings) },
			wantErr: ErrInvalidQuantity,
		},
		{
			name:    "negative quantity sell",
			start:   full,
			apply:   func(s State) (State, error) { return s.Sell("A", -1, dec("1")) },
			wantErr: ErrInvalidQuantity,
		},
		{
			name:    "empty symbol",
			start:   freshState("1000"),
			apply:   func(s State) (State, error) { return s.Buy("", 1, dec("1"), DefaultMaxHoldings) },
			wantErr: ErrInvalidSymbol,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			before := tc.start.Clone()

			got, err := tc.apply(tc.start)

			assert.ErrorIs(t, err, tc.wantErr)
			assert.True(t, IsValidation(err))
			assertDecimal(t, before.Cash.String(), got.Cash)
			assert.Equal(t, before.Holdings, got.Holdings)
			assert.Equal(t, before.Holdings, tc.start.Holdings)
		})
	}
}

func TestBuyExistingSymbolAtMaxHoldings(t *testing.T) {
	s := freshState("1000")
	for _, symbol := range []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"} {
		s.Holdings[symbol] = Position{Quantity: 1, AvgPrice: dec("1")}
	}

	s, err := s.Buy("A", 1, dec("3"), DefaultMaxHoldings)

	require.NoError(t, err)
	assert.Equal(t, int64(2), s.Holdings["A"].Quantity)
	assertDecimal(t, "2", s.Holdings["A"].AvgPrice)
}

func TestBuyExactlyAllCash(t *testing.T) {
	s, err := freshState("1500").Buy("AAPL", 10, dec("150"), DefaultMaxHoldings)

	require.NoError(t, err)
	assert.True(t, s.Cash.IsZero())
}

func TestErrorMessages(t *testing.T) {
	testCases := []struct {
		err  *Error
		want string
	}{
		{err: &Error{Kind: KindMaxHoldingsReached, Limit: 10}, want: "Maximum number of holdings reached"},
		{err: &Error{Kind: KindInsufficientCash, Cost: dec("1500"), Cash: dec("1000")}, want: "Insufficient cash. Need 1500.00, have 1000.00"},
		{err: &Error{Kind: KindInsufficientShares, Held: 2, Quantity: 5}, want: "Not enough shares to sell. Have 2, trying to sell 5"},
		{err: &Error{Kind: KindNoPriceData, Symbol: "ZZZ"}, want: "No price data for symbol ZZZ"},
	}

	for _, tc := range testCases {
		t.Run(tc.err.Kind.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.Error())
		})
	}

	wrapped := errors.Join(errors.New("context"), &Error{Kind: KindNoPriceData})
	assert.ErrorIs(t, wrapped, ErrNoPriceData)
	assert.NotErrorIs(t, wrapped, ErrInsufficientCash)
	assert.False(t, IsValidation(errors.New("connection refused")))
}
