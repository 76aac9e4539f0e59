package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is an append-only ledger record. PriceUSD is set for trades
// only.
type Transaction struct {
	ID        string
	UserID    string
	Type      string
	Coin      string
	Amount    decimal.Decimal
	PriceUSD  decimal.NullDecimal
	CreatedAt time.Time
}
