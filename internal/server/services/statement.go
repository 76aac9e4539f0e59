package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cryptoex/internal/common"
	"github.com/dmitrijs2005/cryptoex/internal/logging"
	"github.com/dmitrijs2005/cryptoex/internal/server/models"
	"github.com/dmitrijs2005/cryptoex/internal/server/objectstore"
	"github.com/dmitrijs2005/cryptoex/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Statement is an exported transaction history.
type Statement struct {
	Key       string
	URL       string
	Rows      int
	ExpiresAt time.Time
}

// StatementService renders the transaction history as CSV, stores it and
// returns a time-limited download link.
type StatementService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       objectstore.Store
	linkTTL     time.Duration
	log         logging.Logger
	now         func() time.Time
}

// NewStatementService accepts a nil store; Export then fails with
// common.ErrorNotConfigured.
func NewStatementService(db *sql.DB, m repomanager.RepositoryManager, store objectstore.Store, linkTTL time.Duration, log logging.Logger) *StatementService {
	return &StatementService{
		db:          db,
		repomanager: m,
		store:       store,
		linkTTL:     linkTTL,
		log:         log.With("module", "statements"),
		now:         time.Now,
	}
}

func (s *StatementService) Export(ctx context.Context, userID string) (*Statement, error) {
	if s.store == nil {
		return nil, fmt.Errorf("%w: statement storage", common.ErrorNotConfigured)
	}

	txs, err := s.repomanager.Transactions(s.db).ListByUser(ctx, userID, 0)
	if err != nil {
		return nil, persistErr("list transactions", err)
	}

	body, err := renderCSV(txs)
	if err != nil {
		return nil, fmt.Errorf("%w: render statement: %v", common.ErrorInternal, err)
	}

	key := fmt.Sprintf("statements/%s/%s.csv", userID, uuid.NewString())
	if err := s.store.Put(ctx, key, "text/csv", body); err != nil {
		s.log.Error(ctx, "statement upload failed", "key", key, "error", err)
		return nil, fmt.Errorf("%w: upload statement", common.ErrorInternal)
	}
	url, err := s.store.PresignGet(ctx, key, s.linkTTL)
	if err != nil {
		s.log.Error(ctx, "statement presign failed", "key", key, "error", err)
		return nil, fmt.Errorf("%w: presign statement", common.ErrorInternal)
	}

	s.log.Info(ctx, "statement exported", "user_id", userID, "rows", len(txs))
	return &Statement{Key: key, URL: url, Rows: len(txs), ExpiresAt: s.now().Add(s.linkTTL).UTC()}, nil
}

var statementHeader = []string{"id", "created_at", "type", "coin", "amount", "price_usd"}

func renderCSV(txs []models.Transaction) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(statementHeader); err != nil {
		return nil, err
	}
	for _, t := range txs {
		price := ""
		if t.PriceUSD.Valid {
			price = t.PriceUSD.Decimal.String()
		}
		rec := []string{t.ID, t.CreatedAt.UTC().Format(time.RFC3339), t.Type, t.Coin, t.Amount.String(), price}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
