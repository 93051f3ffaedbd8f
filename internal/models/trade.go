package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade sides.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Trade represents an executed buy or sell in the journal.
type Trade struct {
	ID         string          `gorm:"primaryKey" json:"id"` // ULID, sortable by execution time
	Symbol     string          `gorm:"index;not null" json:"symbol"`
	Side       string          `gorm:"not null" json:"side"`
	Quantity   int64           `gorm:"not null" json:"quantity"`
	Price      decimal.Decimal `gorm:"type:text;not null" json:"price"`
	Amount     decimal.Decimal `gorm:"type:text;not null" json:"amount"` // price * quantity
	ExecutedAt time.Time       `gorm:"index;not null" json:"executed_at"`
}

func (Trade) TableName() string {
	return "trades"
}
