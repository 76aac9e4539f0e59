package profiles

import (
	"context"

	"github.com/dmitrijs2005/cryptoex/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, p *models.Profile) error
	Get(ctx context.Context, userID string) (*models.Profile, error)
	UpdateDisplayName(ctx context.Context, userID, name string) error
	UpdatePin(ctx context.Context, userID string, pinHash []byte) error
}
