// Package servicestest provides a configurable fake of every service
// surface for transport tests.
package servicestest

import (
	"context"

	"github.com/dmitrijs2005/cryptoex/internal/ledger"
	"github.com/dmitrijs2005/cryptoex/internal/pricefeed"
	"github.com/dmitrijs2005/cryptoex/internal/server/auth"
	"github.com/dmitrijs2005/cryptoex/internal/server/models"
	"github.com/dmitrijs2005/cryptoex/internal/server/services"
	"github.com/shopspring/decimal"
)

// Fake implements all service interfaces. Unset funcs return zero values.
type Fake struct {
	SignUpFn       func(ctx context.Context, email, password string) (*services.TokenPair, error)
	SignInFn       func(ctx context.Context, email, password string) (*services.TokenPair, error)
	VerifyPinFn    func(ctx context.Context, p auth.Principal, code string) (*services.TokenPair, error)
	RefreshTokenFn func(ctx context.Context, token string) (*services.TokenPair, error)
	SignOutFn      func(ctx context.Context, userID string) error
	AuthorizeFn    func(ctx context.Context, p auth.Principal) error

	ApplyFn     func(ctx context.Context, userID string, kind ledger.Kind, coin string, amount decimal.Decimal) (*services.LedgerResult, error)
	WalletsFn   func(ctx context.Context, userID string) ([]models.Wallet, error)
	PortfolioFn func(ctx context.Context, userID string) (*services.Portfolio, error)
	HistoryFn   func(ctx context.Context, userID string, limit int) ([]models.Transaction, error)

	SnapshotFn func(ctx context.Context) (*pricefeed.Set, error)
	RefreshFn  func(ctx context.Context) (*pricefeed.Set, error)
	WatchFn    func() (<-chan *pricefeed.Set, func())

	ProfileFn           func(ctx context.Context, userID string) (*services.Profile, error)
	UpdateDisplayNameFn func(ctx context.Context, userID, name string) error
	ChangePinFn         func(ctx context.Context, userID, current, next, confirm string) error

	ExportFn func(ctx context.Context, userID string) (*services.Statement, error)
}

// Registry returns a registry backed entirely by f.
func (f *Fake) Registry() services.Registry {
	return services.Registry{Sessions: f, Ledger: f, Markets: f, Profiles: f, Statements: f}
}

func (f *Fake) SignUp(ctx context.Context, email, password string) (*services.TokenPair, error) {
	if f.SignUpFn == nil {
		return &services.TokenPair{}, nil
	}
	return f.SignUpFn(ctx, email, password)
}

func (f *Fake) SignIn(ctx context.Context, email, password string) (*services.TokenPair, error) {
	if f.SignInFn == nil {
		return &services.TokenPair{}, nil
	}
	return f.SignInFn(ctx, email, password)
}

func (f *Fake) VerifyPin(ctx context.Context, p auth.Principal, code string) (*services.TokenPair, error) {
	if f.VerifyPinFn == nil {
		return &services.TokenPair{}, nil
	}
	return f.VerifyPinFn(ctx, p, code)
}

func (f *Fake) RefreshToken(ctx context.Context, token string) (*services.TokenPair, error) {
	if f.RefreshTokenFn == nil {
		return &services.TokenPair{}, nil
	}
	return f.RefreshTokenFn(ctx, token)
}

func (f *Fake) SignOut(ctx context.Context, userID string) error {
	if f.SignOutFn == nil {
		return nil
	}
	return f.SignOutFn(ctx, userID)
}

func (f *Fake) Authorize(ctx context.Context, p auth.Principal) error {
	if f.AuthorizeFn == nil {
		return nil
	}
	return f.AuthorizeFn(ctx, p)
}

func (f *Fake) Apply(ctx context.Context, userID string, kind ledger.Kind, coin string, amount decimal.Decimal) (*services.LedgerResult, error) {
	if f.ApplyFn == nil {
		return &services.LedgerResult{}, nil
	}
	return f.ApplyFn(ctx, userID, kind, coin, amount)
}

func (f *Fake) Wallets(ctx context.Context, userID string) ([]models.Wallet, error) {
	if f.WalletsFn == nil {
		return nil, nil
	}
	return f.WalletsFn(ctx, userID)
}

func (f *Fake) Portfolio(ctx context.Context, userID string) (*services.Portfolio, error) {
	if f.PortfolioFn == nil {
		return &services.Portfolio{}, nil
	}
	return f.PortfolioFn(ctx, userID)
}

func (f *Fake) History(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	if f.HistoryFn == nil {
		return nil, nil
	}
	return f.HistoryFn(ctx, userID, limit)
}

func (f *Fake) Snapshot(ctx context.Context) (*pricefeed.Set, error) {
	if f.SnapshotFn == nil {
		return &pricefeed.Set{}, nil
	}
	return f.SnapshotFn(ctx)
}

func (f *Fake) Refresh(ctx context.Context) (*pricefeed.Set, error) {
	if f.RefreshFn == nil {
		return &pricefeed.Set{}, nil
	}
	return f.RefreshFn(ctx)
}

func (f *Fake) Watch() (<-chan *pricefeed.Set, func()) {
	if f.WatchFn == nil {
		ch := make(chan *pricefeed.Set)
		close(ch)
		return ch, func() {}
	}
	return f.WatchFn()
}

func (f *Fake) Get(ctx context.Context, userID string) (*services.Profile, error) {
	if f.ProfileFn == nil {
		return &services.Profile{UserID: userID}, nil
	}
	return f.ProfileFn(ctx, userID)
}

func (f *Fake) UpdateDisplayName(ctx context.Context, userID, name string) error {
	if f.UpdateDisplayNameFn == nil {
		return nil
	}
	return f.UpdateDisplayNameFn(ctx, userID, name)
}

func (f *Fake) ChangePin(ctx context.Context, userID, current, next, confirm string) error {
	if f.ChangePinFn == nil {
		return nil
	}
	return f.ChangePinFn(ctx, userID, current, next, confirm)
}

func (f *Fake) Export(ctx context.Context, userID string) (*services.Statement, error) {
	if f.ExportFn == nil {
		return &services.Statement{}, nil
	}
	return f.ExportFn(ctx, userID)
}
