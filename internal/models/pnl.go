package models

import "github.com/shopspring/decimal"

// DateLayout is the key format of daily records.
const DateLayout = "2006-01-02"

// PnLRecord is the daily snapshot of the portfolio, one row per calendar date.
//
// UnrealizedPnL carries an explicit column name, gorm would otherwise derive
// "unrealized_pn_l".
type PnLRecord struct {
	Date          string          `gorm:"primaryKey" json:"date"`
	Cash          decimal.Decimal `gorm:"type:text;not null" json:"cash"`
	UnrealizedPnL decimal.Decimal `gorm:"column:unrealized_pnl;type:text;not null" json:"unrealized_pnl"`
	Total         decimal.Decimal `gorm:"type:text;not null" json:"total"`
}

func (PnLRecord) TableName() string {
	return "pnl"
}
