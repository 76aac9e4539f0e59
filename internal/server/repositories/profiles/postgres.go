// Package profiles stores display names and second-factor PIN hashes.
package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cryptoex/internal/common"
	"github.com/dmitrijs2005/cryptoex/internal/dbx"
	"github.com/dmitrijs2005/cryptoex/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO profiles (user_id, display_name, two_fa_pin)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, p.UserID, p.DisplayName, p.PinHash); err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.Profile, error) {
	query := `
		SELECT user_id, display_name, two_fa_pin, updated_at
		FROM profiles
		WHERE user_id = $1
	`
	p := &models.Profile{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&p.UserID, &p.DisplayName, &p.PinHash, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) UpdateDisplayName(ctx context.Context, userID, name string) error {
	query := `
		UPDATE profiles SET display_name = $2, updated_at = now()
		WHERE user_id = $1
	`
	return r.update(ctx, query, userID, name)
}

func (r *PostgresRepository) UpdatePin(ctx context.Context, userID string, pinHash []byte) error {
	query := `
		UPDATE profiles SET two_fa_pin = $2, updated_at = now()
		WHERE user_id = $1
	`
	return r.update(ctx, query, userID, pinHash)
}

func (r *PostgresRepository) update(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
