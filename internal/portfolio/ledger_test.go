package portfolio

import (
	"context"
	"errors"
	"testing"
	"time"

	"paper-trader/internal/models"
	"paper-trader/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerLoadSkipsEmptyRows(t *testing.T) {
	st := new(MockStore)
	st.On("LoadHoldings").Return([]models.Holding{
		{Symbol: "AAPL", Quantity: 5, AvgPrice: dec("160")},
		{Symbol: "GONE", Quantity: 0, AvgPrice: dec("1")},
	}, nil)

	l := NewLedger(st)
	require.NoError(t, l.Load(context.Background()))

	assert.Equal(t, 1, l.Len())
	assert.Equal(t, int64(5), l.Holdings()["AAPL"].Quantity)
}

func TestLedgerApply(t *testing.T) {
	ctx := context.Background()
	st := new(MockStore)
	st.On("SaveHolding", "AAPL").Return(nil).Once()
	st.On("DeleteHolding", "AAPL").Return(nil).Once()

	l := NewLedger(st)
	require.NoError(t, l.Apply(ctx, "AAPL", Position{Quantity: 3, AvgPrice: dec("10")}))
	assert.Equal(t, 1, l.Len())

	holdings := l.Holdings()
	holdings["MSFT"] = Position{Quantity: 1}
	assert.Equal(t, 1, l.Len(), "Holdings returns a copy")

	require.NoError(t, l.Apply(ctx, "AAPL", Position{}))
	assert.Equal(t, 0, l.Len())
	st.AssertExpectations(t)
}

func TestLedgerApplyFailureKeepsMemory(t *testing.T) {
	st := new(MockStore)
	st.On("SaveHolding", "AAPL").Return(errors.New("timeout"))

	l := NewLedger(st)
	err := l.Apply(context.Background(), "AAPL", Position{Quantity: 3, AvgPrice: dec("10")})

	assert.Error(t, err)
	assert.Equal(t, 0, l.Len())
}

func TestSnapshotWriterDatesRows(t *testing.T) {
	st := new(MockStore)
	st.On("UpsertPnL", "2025-06-02").Return(nil).Once()
	st.On("UpsertPnL", "2025-06-03").Return(errors.New("unavailable")).Once()

	day := testNow
	w := NewSnapshotWriter(st, func() time.Time { return day })
	summary := freshState("100").Value(nil)

	rec, err := w.Write(context.Background(), summary)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-02", rec.Date)
	assertDecimal(t, "100", rec.Total)

	day = day.Add(24 * time.Hour)
	_, err = w.Write(context.Background(), summary)
	assert.ErrorContains(t, err, "2025-06-03")
	st.AssertExpectations(t)
}

func TestPriceLookup(t *testing.T) {
	st := new(MockStore)
	st.On("LatestPrice", "AAPL").Return(dec("150"), nil)
	st.On("LatestPrice", "NONE").Return(dec("0"), store.ErrNotFound)
	st.On("LatestPrice", "DOWN").Return(dec("0"), errors.New("connection reset"))

	lookup := NewPriceLookup(st)
	ctx := context.Background()

	price, err := lookup.LatestPrice(ctx, "AAPL")
	require.NoError(t, err)
	assertDecimal(t, "150", price)

	_, err = lookup.LatestPrice(ctx, "NONE")
	assert.ErrorIs(t, err, ErrNoPriceData)

	_, err = lookup.LatestPrice(ctx, "DOWN")
	assert.Error(t, err)
	assert.False(t, IsValidation(err))

	_, err = lookup.LatestPrices(ctx, []string{"AAPL", "NONE"})
	assert.ErrorIs(t, err, ErrNoPriceData)
}
