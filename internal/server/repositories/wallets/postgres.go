// Package wallets stores per-user, per-coin balances. There is at most one
// row per (user_id, coin).
package wallets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cryptoex/internal/common"
	"github.com/dmitrijs2005/cryptoex/internal/dbx"
	"github.com/dmitrijs2005/cryptoex/internal/server/models"
	"github.com/shopspring/decimal"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]models.Wallet, error) {
	query := `
		SELECT id, user_id, coin, balance, updated_at
		FROM wallets
		WHERE user_id = $1
		ORDER BY coin
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.Wallet
	for rows.Next() {
		var w models.Wallet
		if err := rows.Scan(&w.ID, &w.UserID, &w.Coin, &w.Balance, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, userID, coin string) (*models.Wallet, error) {
	query := `
		SELECT id, user_id, coin, balance, updated_at
		FROM wallets
		WHERE user_id = $1 AND coin = $2
		FOR UPDATE
	`
	w := &models.Wallet{}
	err := r.db.QueryRowContext(ctx, query, userID, coin).Scan(&w.ID, &w.UserID, &w.Coin, &w.Balance, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return w, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, userID, coin string, balance decimal.Decimal) (*models.Wallet, error) {
	query := `
		INSERT INTO wallets (user_id, coin, balance)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, coin) DO NOTHING
		RETURNING id, updated_at
	`
	w := &models.Wallet{UserID: userID, Coin: coin, Balance: balance}
	err := r.db.QueryRowContext(ctx, query, userID, coin, balance).Scan(&w.ID, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return w, nil
}

func (r *PostgresRepository) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	query := `
		UPDATE wallets SET balance = $2, updated_at = now()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, balance)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
