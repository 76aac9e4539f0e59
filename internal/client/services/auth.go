// Package services contains application services for the CryptoEx terminal
// client. AuthService owns the client's session gate and keeps it, the
// remote token pair and the local session store in step.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/cryptoex/internal/client/client"
	"github.com/dmitrijs2005/cryptoex/internal/client/models"
	"github.com/dmitrijs2005/cryptoex/internal/client/repositories/sessions"
	"github.com/dmitrijs2005/cryptoex/internal/common"
	"github.com/dmitrijs2005/cryptoex/internal/logging"
	"github.com/dmitrijs2005/cryptoex/internal/session"
	"github.com/dmitrijs2005/cryptoex/internal/wire"
)

// AuthService defines session operations for the CLI.
//
// Contract:
//   - Resume: restore the persisted session, verifying it with the server.
//   - SignUp / SignIn: open a PIN-unverified session.
//   - VerifyPin: upgrade the session to verified.
//   - SignOut: end the session locally and on the server.
//   - Check: feed an error of an authenticated call back into the gate.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Resume(ctx context.Context) (session.State, error)
	SignUp(ctx context.Context, email string, password []byte) error
	SignIn(ctx context.Context, email string, password []byte) error
	VerifyPin(ctx context.Context, pin []byte) error
	SignOut(ctx context.Context) error
	Check(ctx context.Context, err error) error

	Status() session.Status
	Route(screen session.Screen) session.Decision
	Email() string

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type authService struct {
	client client.Client
	repo   sessions.Repository
	gate   *session.Gate
	logger logging.Logger
	now    func() time.Time

	mu    sync.RWMutex
	email string
}

// NewAuthService binds the gate to the API client and the local database.
func NewAuthService(c client.Client, db *sql.DB, l logging.Logger) AuthService {
	return newAuthService(c, sessions.NewSQLiteRepository(db), l)
}

func newAuthService(c client.Client, repo sessions.Repository, l logging.Logger) *authService {
	a := &authService{
		client: c,
		repo:   repo,
		gate:   session.NewGate(),
		logger: l.With("module", "auth"),
		now:    time.Now,
	}
	c.OnTokens(a.persistRefreshed)
	return a
}

func (a *authService) Status() session.Status {
	return a.gate.Status()
}

func (a *authService) Route(screen session.Screen) session.Decision {
	return a.gate.Route(screen)
}

func (a *authService) Email() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.email
}

func (a *authService) setEmail(email string) {
	a.mu.Lock()
	a.email = email
	a.mu.Unlock()
}

// Resume keeps the gate loading until the stored session is resolved.
// A rejected session is forgotten. When the server cannot be reached the
// stored state is trusted and ErrUnavailable is returned alongside it.
func (a *authService) Resume(ctx context.Context) (session.State, error) {
	a.gate.BeginResolve()

	stored, err := a.repo.Load(ctx)
	if err != nil {
		a.gate.Resolve(session.SignedOut)
		return session.SignedOut, err
	}
	if stored == nil || stored.State() == session.SignedOut {
		a.gate.Resolve(session.SignedOut)
		return session.SignedOut, nil
	}

	a.client.SetTokens(stored.AccessToken, stored.RefreshToken)
	a.setEmail(stored.Email)

	info, err := a.client.Session(ctx)
	switch {
	case err == nil:
		st := session.StateOf(session.Stage(info.State))
		a.gate.Resolve(st)
		return st, nil
	case errors.Is(err, client.ErrUnavailable):
		a.gate.Resolve(stored.State())
		return stored.State(), err
	default:
		a.logger.Info(ctx, "stored session rejected", "error", err)
		a.forget(ctx)
		a.gate.Resolve(session.SignedOut)
		return session.SignedOut, nil
	}
}

func (a *authService) SignUp(ctx context.Context, email string, password []byte) error {
	t, err := a.client.SignUp(ctx, email, string(password))
	if err != nil {
		return err
	}
	return a.open(ctx, email, t)
}

func (a *authService) SignIn(ctx context.Context, email string, password []byte) error {
	t, err := a.client.SignIn(ctx, email, string(password))
	if err != nil {
		return err
	}
	return a.open(ctx, email, t)
}

// open replaces whatever session the gate held with the new token pair.
func (a *authService) open(ctx context.Context, email string, t wire.Tokens) error {
	a.setEmail(email)
	if err := a.save(ctx, t); err != nil {
		return err
	}

	if a.gate.Status().State != session.SignedOut {
		a.gate.SignOut()
	}
	if err := a.gate.SignedIn(); err != nil {
		return err
	}
	if session.StateOf(session.Stage(t.State)) == session.Verified {
		return a.gate.PinVerified()
	}
	return nil
}

// VerifyPin checks the second factor. A wrong PIN leaves the gate
// Unverified and returns common.ErrorInvalidPin.
func (a *authService) VerifyPin(ctx context.Context, pin []byte) error {
	if !common.ValidPin(string(pin)) {
		return fmt.Errorf("%w: pin must be %d digits", common.ErrorValidation, common.PinLength)
	}

	t, err := a.client.VerifyPin(ctx, string(pin))
	if err != nil {
		return a.Check(ctx, err)
	}
	if err := a.save(ctx, t); err != nil {
		return err
	}
	return a.gate.PinVerified()
}

// SignOut always ends the local session. A failed remote revocation is
// logged and not reported.
func (a *authService) SignOut(ctx context.Context) error {
	if err := a.client.SignOut(ctx); err != nil {
		a.logger.Warn(ctx, "remote sign out failed", "error", err)
	}
	a.gate.SignOut()
	return a.forget(ctx)
}

// Check realigns the gate with what the server reported and returns err
// unchanged. Token failures end the session; PIN state disagreements move
// the gate to the state the server holds.
func (a *authService) Check(ctx context.Context, err error) error {
	switch {
	case err == nil:
	case errors.Is(err, common.ErrRefreshTokenExpired),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrorUnauthorized):
		a.gate.Invalidate()
		_ = a.forget(ctx)
	case errors.Is(err, common.ErrorPinRequired):
		a.gate.Resolve(session.Unverified)
	case errors.Is(err, common.ErrorAlreadyVerified):
		a.gate.Resolve(session.Verified)
	}
	return err
}

func (a *authService) save(ctx context.Context, t wire.Tokens) error {
	return a.repo.Save(ctx, models.StoredSession{
		Email:        a.Email(),
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		Stage:        session.Stage(t.State),
		SavedAt:      a.now(),
	})
}

func (a *authService) persistRefreshed(ctx context.Context, t wire.Tokens) {
	if err := a.save(ctx, t); err != nil {
		a.logger.Warn(ctx, "cannot persist refreshed tokens", "error", err)
	}
}

func (a *authService) forget(ctx context.Context) error {
	a.client.SetTokens("", "")
	a.setEmail("")
	return a.repo.Clear(ctx)
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}
