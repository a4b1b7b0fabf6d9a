package model

import "github.com/shopspring/decimal"

// Monetary amounts are rendered as JSON numbers, not quoted strings.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}
