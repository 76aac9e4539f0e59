package transactions

import (
	"context"

	"github.com/dmitrijs2005/cryptoex/internal/server/models"
)

type Repository interface {
	// Create appends a record and fills ID and CreatedAt.
	Create(ctx context.Context, t *models.Transaction) (*models.Transaction, error)

	// ListByUser returns the newest records first. limit <= 0 means no limit.
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Transaction, error)
}
