package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cryptoex/internal/common"
	"github.com/dmitrijs2005/cryptoex/internal/dbx"
	"github.com/dmitrijs2005/cryptoex/internal/ledger"
	"github.com/dmitrijs2005/cryptoex/internal/logging"
	"github.com/dmitrijs2005/cryptoex/internal/pricefeed"
	"github.com/dmitrijs2005/cryptoex/internal/server/events"
	"github.com/dmitrijs2005/cryptoex/internal/server/models"
	"github.com/dmitrijs2005/cryptoex/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// PriceSource exposes the latest snapshot set; nil means none yet.
type PriceSource interface {
	Current() *pricefeed.Set
}

// LedgerResult is the outcome of a committed ledger action.
type LedgerResult struct {
	Transaction models.Transaction
	Balance     decimal.Decimal
}

// Portfolio is the valuation of a user's wallets against the latest prices.
type Portfolio struct {
	ledger.Valuation
	Stale     bool
	FetchedAt time.Time
}

// LedgerService records ledger actions and keeps wallet balances in step
// with the transaction log.
//
// Each action runs in one database transaction: the balance check, the
// transaction insert and the wallet write either all commit or none do.
// The wallet row is locked (SELECT ... FOR UPDATE), so concurrent actions
// on the same wallet are applied one after another.
type LedgerService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	prices      PriceSource
	publisher   events.Publisher
	policy      ledger.Policy
	log         logging.Logger
	now         func() time.Time
}

func NewLedgerService(db *sql.DB, m repomanager.RepositoryManager, prices PriceSource, pub events.Publisher, policy ledger.Policy, log logging.Logger) *LedgerService {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &LedgerService{
		db:          db,
		repomanager: m,
		prices:      prices,
		publisher:   pub,
		policy:      policy,
		log:         log.With("module", "ledger"),
		now:         time.Now,
	}
}

func (s *LedgerService) Deposit(ctx context.Context, userID, coin string, amount decimal.Decimal) (*LedgerResult, error) {
	return s.Apply(ctx, userID, ledger.Deposit, coin, amount)
}

func (s *LedgerService) Withdraw(ctx context.Context, userID, coin string, amount decimal.Decimal) (*LedgerResult, error) {
	return s.Apply(ctx, userID, ledger.Withdraw, coin, amount)
}

func (s *LedgerService) Buy(ctx context.Context, userID, coin string, amount decimal.Decimal) (*LedgerResult, error) {
	return s.Apply(ctx, userID, ledger.Buy, coin, amount)
}

func (s *LedgerService) Sell(ctx context.Context, userID, coin string, amount decimal.Decimal) (*LedgerResult, error) {
	return s.Apply(ctx, userID, ledger.Sell, coin, amount)
}

// Apply performs one ledger action. Validation and balance failures are
// reported before anything is written.
func (s *LedgerService) Apply(ctx context.Context, userID string, kind ledger.Kind, coin string, amount decimal.Decimal) (*LedgerResult, error) {
	coin, err := ledger.NormalizeCoin(coin)
	if err != nil {
		return nil, err
	}
	if err := ledger.ValidateAmount(amount); err != nil {
		return nil, err
	}

	var priceUSD decimal.NullDecimal
	if kind.Trade() {
		price, ok := s.prices.Current().Price(coin)
		if !ok {
			return nil, fmt.Errorf("%w: no market price for %s", common.ErrorValidation, coin)
		}
		value, err := ledger.TradeValue(amount, price)
		if err != nil {
			return nil, err
		}
		priceUSD = decimal.NewNullDecimal(value)
	}

	var result LedgerResult
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		wallets := s.repomanager.Wallets(tx)

		w, err := findWallet(ctx, wallets.GetForUpdate, userID, coin)
		if err != nil {
			return err
		}
		if err := s.policy.Check(kind, balanceOf(w), amount); err != nil {
			return err
		}

		rec, err := s.repomanager.Transactions(tx).Create(ctx, &models.Transaction{
			UserID:   userID,
			Type:     string(kind),
			Coin:     coin,
			Amount:   amount,
			PriceUSD: priceUSD,
		})
		if err != nil {
			return persistErr("insert transaction", err)
		}

		w, err = findWallet(ctx, wallets.GetForUpdate, userID, coin)
		if err != nil {
			return err
		}
		next, err := s.policy.Next(kind, balanceOf(w), amount)
		if err != nil {
			return err
		}

		if w != nil {
			if err := wallets.UpdateBalance(ctx, w.ID, next); err != nil {
				return persistErr("update wallet", err)
			}
		} else if _, err := wallets.Insert(ctx, userID, coin, next); err != nil {
			return persistErr("insert wallet", err)
		}

		result = LedgerResult{Transaction: *rec, Balance: next}
		return nil
	})
	if err != nil {
		err = persistErr("ledger transaction", err)
		if errors.Is(err, common.ErrorPersistence) || errors.Is(err, common.ErrorConflict) {
			s.log.Error(ctx, "ledger action failed", "user_id", userID, "kind", kind, "coin", coin, "error", err)
		}
		return nil, err
	}

	s.log.Info(ctx, "ledger action applied", "user_id", userID, "kind", kind, "coin", coin,
		"amount", amount.String(), "balance", result.Balance.String())
	s.publish(ctx, result)
	return &result, nil
}

func (s *LedgerService) publish(ctx context.Context, r LedgerResult) {
	occurred := r.Transaction.CreatedAt
	if occurred.IsZero() {
		occurred = s.now().UTC()
	}
	err := s.publisher.Publish(ctx, events.LedgerEvent{
		EventID:       uuid.NewString(),
		UserID:        r.Transaction.UserID,
		TransactionID: r.Transaction.ID,
		Type:          r.Transaction.Type,
		Coin:          r.Transaction.Coin,
		Amount:        r.Transaction.Amount,
		PriceUSD:      r.Transaction.PriceUSD,
		Balance:       r.Balance,
		OccurredAt:    occurred,
	})
	if err != nil {
		s.log.Warn(ctx, "ledger event not published", "transaction_id", r.Transaction.ID, "error", err)
	}
}

func findWallet(ctx context.Context, get func(context.Context, string, string) (*models.Wallet, error), userID, coin string) (*models.Wallet, error) {
	w, err := get(ctx, userID, coin)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, persistErr("read wallet", err)
	}
	return w, nil
}

func balanceOf(w *models.Wallet) decimal.Decimal {
	if w == nil {
		return decimal.Zero
	}
	return w.Balance
}

func (s *LedgerService) Wallets(ctx context.Context, userID string) ([]models.Wallet, error) {
	ws, err := s.repomanager.Wallets(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, persistErr("list wallets", err)
	}
	return ws, nil
}

// Portfolio values every wallet at the latest price. Coins without a price
// are listed with a zero value. Without any price set the result is stale.
func (s *LedgerService) Portfolio(ctx context.Context, userID string) (*Portfolio, error) {
	ws, err := s.Wallets(ctx, userID)
	if err != nil {
		return nil, err
	}

	in := make([]ledger.Wallet, 0, len(ws))
	for _, w := range ws {
		in = append(in, ledger.Wallet{Coin: w.Coin, Balance: w.Balance})
	}

	set := s.prices.Current()
	p := &Portfolio{Valuation: ledger.ComputeHoldings(in, set.Prices()), Stale: true}
	if set != nil {
		p.Stale = set.Stale
		p.FetchedAt = set.FetchedAt
	}
	ledger.SortByValue(p.Holdings)
	return p, nil
}

// History returns the newest transactions first. limit is clamped to
// (0, 500]; zero selects the default of 50.
func (s *LedgerService) History(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	switch {
	case limit < 0:
		return nil, fmt.Errorf("%w: negative limit", common.ErrorValidation)
	case limit == 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}
	txs, err := s.repomanager.Transactions(s.db).ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, persistErr("list transactions", err)
	}
	return txs, nil
}
