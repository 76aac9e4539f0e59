package users

import (
	"context"

	"github.com/dmitrijs2005/cryptoex/internal/server/models"
)

type Repository interface {
	// Create inserts the user and fills ID and CreatedAt. A taken e-mail
	// yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)

	// TokenGeneration returns the counter access tokens must carry to be
	// accepted. BumpTokenGeneration invalidates every token issued so far.
	TokenGeneration(ctx context.Context, id string) (int64, error)
	BumpTokenGeneration(ctx context.Context, id string) error
}
