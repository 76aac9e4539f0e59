package services

import (
	"context"

	"github.com/dmitrijs2005/cryptoex/internal/ledger"
	"github.com/dmitrijs2005/cryptoex/internal/pricefeed"
	"github.com/dmitrijs2005/cryptoex/internal/server/auth"
	"github.com/dmitrijs2005/cryptoex/internal/server/models"
	"github.com/shopspring/decimal"
)

// The interfaces below are what the gRPC and HTTP transports depend on.

type Sessions interface {
	SignUp(ctx context.Context, email, password string) (*TokenPair, error)
	SignIn(ctx context.Context, email, password string) (*TokenPair, error)
	VerifyPin(ctx context.Context, p auth.Principal, code string) (*TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)
	SignOut(ctx context.Context, userID string) error
	// Authorize checks that a parsed token still belongs to a live session.
	Authorize(ctx context.Context, p auth.Principal) error
}

type Ledger interface {
	Apply(ctx context.Context, userID string, kind ledger.Kind, coin string, amount decimal.Decimal) (*LedgerResult, error)
	Wallets(ctx context.Context, userID string) ([]models.Wallet, error)
	Portfolio(ctx context.Context, userID string) (*Portfolio, error)
	History(ctx context.Context, userID string, limit int) ([]models.Transaction, error)
}

type Markets interface {
	Snapshot(ctx context.Context) (*pricefeed.Set, error)
	Refresh(ctx context.Context) (*pricefeed.Set, error)
	Watch() (<-chan *pricefeed.Set, func())
}

type Profiles interface {
	Get(ctx context.Context, userID string) (*Profile, error)
	UpdateDisplayName(ctx context.Context, userID, name string) error
	ChangePin(ctx context.Context, userID, current, next, confirm string) error
}

type Statements interface {
	Export(ctx context.Context, userID string) (*Statement, error)
}

// Registry bundles the services a transport serves.
type Registry struct {
	Sessions   Sessions
	Ledger     Ledger
	Markets    Markets
	Profiles   Profiles
	Statements Statements
}

var (
	_ Sessions   = (*SessionService)(nil)
	_ Ledger     = (*LedgerService)(nil)
	_ Markets    = (*MarketService)(nil)
	_ Profiles   = (*ProfileService)(nil)
	_ Statements = (*StatementService)(nil)
)
