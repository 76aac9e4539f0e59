package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is the balance of one coin for one user; (UserID, Coin) is unique.
type Wallet struct {
	ID        string
	UserID    string
	Coin      string
	Balance   decimal.Decimal
	UpdatedAt time.Time
}
