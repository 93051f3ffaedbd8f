package models

import "github.com/shopspring/decimal"

// Holding is the stored mirror of one open position.
// A row only exists while Quantity is positive.
type Holding struct {
	Symbol   string          `gorm:"primaryKey" json:"symbol"`
	Quantity int64           `gorm:"not null" json:"quantity"`
	AvgPrice decimal.Decimal `gorm:"column:avg_price;type:text;not null" json:"avg_price"`
}

func (Holding) TableName() string {
	return "holdings"
}
