// Package models holds the stored records of the portfolio.
//
// Decimal columns are declared as text. SQLite's numeric affinity would store
// them as REAL and round long averages on the way back.
package models

import "github.com/shopspring/decimal"

func init() {
	// Money is written as JSON numbers, which is what the numeric columns of
	// the remote store and the API clients expect.
	decimal.MarshalJSONWithoutQuotes = true
}
