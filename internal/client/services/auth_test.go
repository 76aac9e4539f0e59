package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/cryptoex/internal/client/client"
	"github.com/dmitrijs2005/cryptoex/internal/client/models"
	"github.com/dmitrijs2005/cryptoex/internal/common"
	"github.com/dmitrijs2005/cryptoex/internal/ledger"
	"github.com/dmitrijs2005/cryptoex/internal/logging"
	"github.com/dmitrijs2005/cryptoex/internal/session"
	"github.com/dmitrijs2005/cryptoex/internal/wire"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// ---- fake client ----

type fakeClient struct {
	access, refresh string
	onTokens        func(ctx context.Context, t wire.Tokens)

	signUpTokens wire.Tokens
	signUpErr    error
	signInTokens wire.Tokens
	signInErr    error
	pinTokens    wire.Tokens
	pinErr       error
	sessionInfo  wire.SessionInfo
	sessionErr   error
	signOutErr   error
	pingErr      error

	lastEmail, lastPassword, lastPin string
	signOutCalls                     int
	closed                           bool
}

func (f *fakeClient) Close() error { f.closed = true; return nil }
func (f *fakeClient) SetTokens(a, r string) {
	f.access, f.refresh = a, r
}
func (f *fakeClient) OnTokens(fn func(ctx context.Context, t wire.Tokens)) { f.onTokens = fn }
func (f *fakeClient) Ping(context.Context) error                          { return f.pingErr }

func (f *fakeClient) SignUp(_ context.Context, email, password string) (wire.Tokens, error) {
	f.lastEmail, f.lastPassword = email, password
	return f.signUpTokens, f.signUpErr
}
func (f *fakeClient) SignIn(_ context.Context, email, password string) (wire.Tokens, error) {
	f.lastEmail, f.lastPassword = email, password
	return f.signInTokens, f.signInErr
}
func (f *fakeClient) Session(context.Context) (wire.SessionInfo, error) {
	return f.sessionInfo, f.sessionErr
}
func (f *fakeClient) VerifyPin(_ context.Context, pin string) (wire.Tokens, error) {
	f.lastPin = pin
	return f.pinTokens, f.pinErr
}
func (f *fakeClient) SignOut(context.Context) error {
	f.signOutCalls++
	return f.signOutErr
}
func (f *fakeClient) Market(context.Context) (wire.Market, error)        { return wire.Market{}, nil }
func (f *fakeClient) RefreshMarket(context.Context) (wire.Market, error) { return wire.Market{}, nil }
func (f *fakeClient) Wallets(context.Context) ([]wire.Wallet, error)     { return nil, nil }
func (f *fakeClient) Portfolio(context.Context) (wire.Portfolio, error)  { return wire.Portfolio{}, nil }
func (f *fakeClient) Apply(context.Context, ledger.Kind, string, decimal.Decimal) (wire.ActionResult, error) {
	return wire.ActionResult{}, nil
}
func (f *fakeClient) History(context.Context, int) ([]wire.Transaction, error) { return nil, nil }
func (f *fakeClient) Profile(context.Context) (wire.Profile, error)            { return wire.Profile{}, nil }
func (f *fakeClient) UpdateDisplayName(context.Context, string) (wire.Profile, error) {
	return wire.Profile{}, nil
}
func (f *fakeClient) ChangePin(context.Context, string, string, string) error { return nil }
func (f *fakeClient) ExportStatement(context.Context) (wire.Statement, error) {
	return wire.Statement{}, nil
}

var _ client.Client = (*fakeClient)(nil)

// ---- fake repository ----

type memRepo struct {
	stored  *models.StoredSession
	loadErr error
	saveErr error
	saves   int
}

func (m *memRepo) Load(context.Context) (*models.StoredSession, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.stored == nil {
		return nil, nil
	}
	cp := *m.stored
	return &cp, nil
}

func (m *memRepo) Save(_ context.Context, s models.StoredSession) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.stored = &s
	return nil
}

func (m *memRepo) Clear(context.Context) error {
	m.stored = nil
	return nil
}

func newTestAuth(c *fakeClient, r *memRepo) *authService {
	a := newAuthService(c, r, logging.Nop{})
	a.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return a
}

func unverified(access string) wire.Tokens {
	return wire.Tokens{AccessToken: access, RefreshToken: "r-" + access, State: "unverified"}
}

func verified(access string) wire.Tokens {
	return wire.Tokens{AccessToken: access, RefreshToken: "r-" + access, State: "verified"}
}

// ---- tests ----

func TestSignIn_OpensUnverifiedSessionAndPersists(t *testing.T) {
	c := &fakeClient{signInTokens: unverified("a1")}
	r := &memRepo{}
	a := newTestAuth(c, r)

	require.NoError(t, a.SignIn(context.Background(), "alice@example.com", []byte("pw")))

	assert.Equal(t, "pw", c.lastPassword)
	assert.Equal(t, session.Unverified, a.Status().State)
	assert.Equal(t, "alice@example.com", a.Email())
	require.NotNil(t, r.stored)
	assert.Equal(t, "a1", r.stored.AccessToken)
	assert.Equal(t, session.StageUnverified, r.stored.Stage)

	assert.Equal(t, session.RedirectPin, a.Route(session.ScreenDashboard))
	assert.Equal(t, session.Render, a.Route(session.ScreenPin))
}

func TestSignIn_FailureLeavesGateSignedOut(t *testing.T) {
	c := &fakeClient{signInErr: common.ErrorUnauthorized}
	r := &memRepo{}
	a := newTestAuth(c, r)

	err := a.SignIn(context.Background(), "alice@example.com", []byte("bad"))
	require.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.Equal(t, session.SignedOut, a.Status().State)
	assert.Nil(t, r.stored)
}

func TestSignUp_ReplacesExistingSession(t *testing.T) {
	c := &fakeClient{signInTokens: unverified("a1"), pinTokens: verified("a2"), signUpTokens: unverified("b1")}
	a := newTestAuth(c, &memRepo{})
	ctx := context.Background()

	require.NoError(t, a.SignIn(ctx, "alice@example.com", []byte("pw")))
	require.NoError(t, a.VerifyPin(ctx, []byte("123456")))
	require.Equal(t, session.Verified, a.Status().State)

	require.NoError(t, a.SignUp(ctx, "bob@example.com", []byte("pw2")))
	assert.Equal(t, session.Unverified, a.Status().State)
	assert.Equal(t, "bob@example.com", a.Email())
}

func TestSignUp_StoreFailure(t *testing.T) {
	c := &fakeClient{signUpTokens: unverified("a1")}
	a := newTestAuth(c, &memRepo{saveErr: errors.New("disk full")})

	err := a.SignUp(context.Background(), "alice@example.com", []byte("pw"))
	require.ErrorContains(t, err, "disk full")
	assert.Equal(t, session.SignedOut, a.Status().State)
}

func TestVerifyPin(t *testing.T) {
	ctx := context.Background()

	t.Run("correct pin reaches verified", func(t *testing.T) {
		c := &fakeClient{signInTokens: unverified("a1"), pinTokens: verified("a2")}
		r := &memRepo{}
		a := newTestAuth(c, r)
		require.NoError(t, a.SignIn(ctx, "alice@example.com", []byte("pw")))

		require.NoError(t, a.VerifyPin(ctx, []byte("123456")))
		assert.Equal(t, "123456", c.lastPin)
		assert.Equal(t, session.Verified, a.Status().State)
		assert.Equal(t, session.StageVerified, r.stored.Stage)
		assert.Equal(t, "alice@example.com", r.stored.Email)
		assert.Equal(t, session.RedirectDashboard, a.Route(session.ScreenPin))
	})

	t.Run("wrong pin keeps unverified", func(t *testing.T) {
		c := &fakeClient{signInTokens: unverified("a1"), pinErr: common.ErrorInvalidPin}
		a := newTestAuth(c, &memRepo{})
		require.NoError(t, a.SignIn(ctx, "alice@example.com", []byte("pw")))

		err := a.VerifyPin(ctx, []byte("000000"))
		require.ErrorIs(t, err, common.ErrorInvalidPin)
		assert.Equal(t, session.Unverified, a.Status().State)
	})

	t.Run("malformed pin is not sent", func(t *testing.T) {
		c := &fakeClient{}
		a := newTestAuth(c, &memRepo{})

		err := a.VerifyPin(ctx, []byte("12ab"))
		require.ErrorIs(t, err, common.ErrorValidation)
		assert.Empty(t, c.lastPin)
	})

	t.Run("expired session signs out", func(t *testing.T) {
		c := &fakeClient{signInTokens: unverified("a1"), pinErr: common.ErrRefreshTokenExpired}
		r := &memRepo{}
		a := newTestAuth(c, r)
		require.NoError(t, a.SignIn(ctx, "alice@example.com", []byte("pw")))

		err := a.VerifyPin(ctx, []byte("123456"))
		require.ErrorIs(t, err, common.ErrRefreshTokenExpired)
		assert.Equal(t, session.SignedOut, a.Status().State)
		assert.Nil(t, r.stored)
	})
}

func TestSignOut_AlwaysEndsLocally(t *testing.T) {
	c := &fakeClient{signInTokens: unverified("a1"), signOutErr: fmt.Errorf("%w: down", client.ErrUnavailable)}
	r := &memRepo{}
	a := newTestAuth(c, r)
	ctx := context.Background()
	require.NoError(t, a.SignIn(ctx, "alice@example.com", []byte("pw")))

	require.NoError(t, a.SignOut(ctx))
	assert.Equal(t, 1, c.signOutCalls)
	assert.Equal(t, session.SignedOut, a.Status().State)
	assert.Nil(t, r.stored)
	assert.Empty(t, c.access)
	assert.Empty(t, a.Email())
}

func TestResume(t *testing.T) {
	ctx := context.Background()
	stored := func(stage session.Stage) *models.StoredSession {
		return &models.StoredSession{Email: "alice@example.com", AccessToken: "a1", RefreshToken: "r1", Stage: stage}
	}

	t.Run("nothing stored", func(t *testing.T) {
		a := newTestAuth(&fakeClient{}, &memRepo{})
		st, err := a.Resume(ctx)
		require.NoError(t, err)
		assert.Equal(t, session.SignedOut, st)
		assert.False(t, a.Status().Loading)
	})

	t.Run("server confirms verified", func(t *testing.T) {
		c := &fakeClient{sessionInfo: wire.SessionInfo{UserID: "u1", State: "verified"}}
		a := newTestAuth(c, &memRepo{stored: stored(session.StageVerified)})

		st, err := a.Resume(ctx)
		require.NoError(t, err)
		assert.Equal(t, session.Verified, st)
		assert.Equal(t, "a1", c.access)
		assert.Equal(t, "r1", c.refresh)
		assert.Equal(t, "alice@example.com", a.Email())
		assert.Equal(t, session.Render, a.Route(session.ScreenWallet))
	})

	t.Run("server reports unverified", func(t *testing.T) {
		c := &fakeClient{sessionInfo: wire.SessionInfo{UserID: "u1", State: "unverified"}}
		a := newTestAuth(c, &memRepo{stored: stored(session.StageVerified)})

		st, err := a.Resume(ctx)
		require.NoError(t, err)
		assert.Equal(t, session.Unverified, st)
	})

	t.Run("rejected session is forgotten", func(t *testing.T) {
		c := &fakeClient{sessionErr: common.ErrRefreshTokenExpired}
		r := &memRepo{stored: stored(session.StageVerified)}
		a := newTestAuth(c, r)

		st, err := a.Resume(ctx)
		require.NoError(t, err)
		assert.Equal(t, session.SignedOut, st)
		assert.Nil(t, r.stored)
		assert.Empty(t, c.access)
	})

	t.Run("offline trusts stored state", func(t *testing.T) {
		c := &fakeClient{sessionErr: fmt.Errorf("%w: refused", client.ErrUnavailable)}
		r := &memRepo{stored: stored(session.StageUnverified)}
		a := newTestAuth(c, r)

		st, err := a.Resume(ctx)
		require.ErrorIs(t, err, client.ErrUnavailable)
		assert.Equal(t, session.Unverified, st)
		assert.NotNil(t, r.stored)
	})

	t.Run("store failure", func(t *testing.T) {
		a := newTestAuth(&fakeClient{}, &memRepo{loadErr: errors.New("locked")})
		st, err := a.Resume(ctx)
		require.Error(t, err)
		assert.Equal(t, session.SignedOut, st)
		assert.False(t, a.Status().Loading)
	})
}

func TestCheck_RealignsGate(t *testing.T) {
	ctx := context.Background()
	c := &fakeClient{signInTokens: unverified("a1"), pinTokens: verified("a2")}
	r := &memRepo{}
	a := newTestAuth(c, r)
	require.NoError(t, a.SignIn(ctx, "alice@example.com", []byte("pw")))
	require.NoError(t, a.VerifyPin(ctx, []byte("123456")))

	require.NoError(t, a.Check(ctx, nil))
	assert.Equal(t, session.Verified, a.Status().State)

	err := a.Check(ctx, common.ErrorInsufficientBalance)
	require.ErrorIs(t, err, common.ErrorInsufficientBalance)
	assert.Equal(t, session.Verified, a.Status().State)

	_ = a.Check(ctx, fmt.Errorf("%w: again", common.ErrorPinRequired))
	assert.Equal(t, session.Unverified, a.Status().State)

	_ = a.Check(ctx, common.ErrorAlreadyVerified)
	assert.Equal(t, session.Verified, a.Status().State)

	_ = a.Check(ctx, common.ErrInvalidToken)
	assert.Equal(t, session.SignedOut, a.Status().State)
	assert.Nil(t, r.stored)
}

func TestRefreshedTokensArePersisted(t *testing.T) {
	c := &fakeClient{signInTokens: unverified("a1")}
	r := &memRepo{}
	a := newTestAuth(c, r)
	ctx := context.Background()
	require.NoError(t, a.SignIn(ctx, "alice@example.com", []byte("pw")))

	require.NotNil(t, c.onTokens)
	c.onTokens(ctx, unverified("a9"))

	assert.Equal(t, "a9", r.stored.AccessToken)
	assert.Equal(t, "alice@example.com", r.stored.Email)
}

func TestNewAuthService_WithSQLite(t *testing.T) {
	ctx := context.Background()
	db, err := client.InitDatabase(ctx, filepath.Join(t.TempDir(), "s.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	c := &fakeClient{signInTokens: unverified("a1"), sessionInfo: wire.SessionInfo{UserID: "u1", State: "unverified"}}
	require.NoError(t, NewAuthService(c, db, logging.Nop{}).SignIn(ctx, "alice@example.com", []byte("pw")))

	// a second process picks the session up from the file
	c2 := &fakeClient{sessionInfo: wire.SessionInfo{UserID: "u1", State: "unverified"}}
	next := NewAuthService(c2, db, logging.Nop{})
	st, err := next.Resume(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.Unverified, st)
	assert.Equal(t, "a1", c2.access)
	assert.Equal(t, "alice@example.com", next.Email())

	require.NoError(t, next.Ping(ctx))
	require.NoError(t, next.Close(ctx))
	assert.True(t, c2.closed)
}
