package client

import (
	"context"

	"github.com/dmitrijs2005/cryptoex/internal/ledger"
	"github.com/dmitrijs2005/cryptoex/internal/wire"
	"github.com/shopspring/decimal"
)

// Client is the remote API of the exchange as seen by the terminal client.
type Client interface {
	Close() error

	// SetTokens replaces the credentials attached to outgoing calls.
	SetTokens(accessToken, refreshToken string)
	// OnTokens registers fn to be called after a transparent token refresh.
	OnTokens(fn func(ctx context.Context, t wire.Tokens))

	Ping(ctx context.Context) error
	SignUp(ctx context.Context, email, password string) (wire.Tokens, error)
	SignIn(ctx context.Context, email, password string) (wire.Tokens, error)
	Session(ctx context.Context) (wire.SessionInfo, error)
	VerifyPin(ctx context.Context, pin string) (wire.Tokens, error)
	SignOut(ctx context.Context) error

	Market(ctx context.Context) (wire.Market, error)
	RefreshMarket(ctx context.Context) (wire.Market, error)

	Wallets(ctx context.Context) ([]wire.Wallet, error)
	Portfolio(ctx context.Context) (wire.Portfolio, error)
	Apply(ctx context.Context, kind ledger.Kind, coin string, amount decimal.Decimal) (wire.ActionResult, error)
	History(ctx context.Context, limit int) ([]wire.Transaction, error)

	Profile(ctx context.Context) (wire.Profile, error)
	UpdateDisplayName(ctx context.Context, name string) (wire.Profile, error)
	ChangePin(ctx context.Context, current, next, confirm string) error
	ExportStatement(ctx context.Context) (wire.Statement, error)
}
