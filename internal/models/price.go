package models

import "github.com/shopspring/decimal"

// DailyPrice is one closing price for a symbol. Only the most recent row per
// symbol is ever consulted.
type DailyPrice struct {
	Symbol     string          `gorm:"primaryKey" json:"symbol"`
	Date       string          `gorm:"primaryKey" json:"date"` // YYYY-MM-DD
	ClosePrice decimal.Decimal `gorm:"column:close_price;type:text;not null" json:"close_price"`
}

func (DailyPrice) TableName() string {
	return "daily_prices"
}
