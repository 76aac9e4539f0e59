// Package sessions persists the signed-in session of the terminal client in
// its local SQLite database.
package sessions

import (
	"context"

	"github.com/dmitrijs2005/cryptoex/internal/client/models"
)

type Repository interface {
	// Load returns the stored session, or (nil, nil) when there is none.
	Load(ctx context.Context) (*models.StoredSession, error)
	Save(ctx context.Context, s models.StoredSession) error
	Clear(ctx context.Context) error
}
