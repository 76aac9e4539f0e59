package wallets

import (
	"context"

	"github.com/dmitrijs2005/cryptoex/internal/server/models"
	"github.com/shopspring/decimal"
)

type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Wallet, error)

	// GetForUpdate reads and row-locks the wallet for the rest of the
	// surrounding transaction. Missing wallets yield common.ErrorNotFound.
	GetForUpdate(ctx context.Context, userID, coin string) (*models.Wallet, error)

	// Insert creates the wallet. If a concurrent insert won, it returns
	// common.ErrorConflict.
	Insert(ctx context.Context, userID, coin string, balance decimal.Decimal) (*models.Wallet, error)

	UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error
}
