package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/cryptoex/internal/client/client"
	"github.com/dmitrijs2005/cryptoex/internal/client/config"
	"github.com/dmitrijs2005/cryptoex/internal/common"
	"github.com/dmitrijs2005/cryptoex/internal/ledger"
	"github.com/dmitrijs2005/cryptoex/internal/logging"
	"github.com/dmitrijs2005/cryptoex/internal/session"
	"github.com/dmitrijs2005/cryptoex/internal/wire"
	"github.com/shopspring/decimal"
)

type fakeAuth struct {
	gate  *session.Gate
	email string

	resumeState session.State
	resumeErr   error
	signUpErr   error
	signInErr   error
	pinErr      error
	pingErr     error

	lastEmail, lastPassword, lastPin string
	checked                          []error
	signOuts                         int
	closed                           bool
}

func newFakeAuth() *fakeAuth { return &fakeAuth{gate: session.NewGate()} }

func (f *fakeAuth) Resume(context.Context) (session.State, error) {
	f.gate.Resolve(f.resumeState)
	return f.resumeState, f.resumeErr
}

func (f *fakeAuth) open(email string, password []byte, err error) error {
	f.lastEmail, f.lastPassword = email, string(password)
	if err != nil {
		return err
	}
	f.gate.SignOut()
	f.email = email
	return f.gate.SignedIn()
}

func (f *fakeAuth) SignUp(_ context.Context, email string, password []byte) error {
	return f.open(email, password, f.signUpErr)
}

func (f *fakeAuth) SignIn(_ context.Context, email string, password []byte) error {
	return f.open(email, password, f.signInErr)
}

func (f *fakeAuth) VerifyPin(_ context.Context, pin []byte) error {
	f.lastPin = string(pin)
	if f.pinErr != nil {
		return f.pinErr
	}
	return f.gate.PinVerified()
}

func (f *fakeAuth) SignOut(context.Context) error {
	f.signOuts++
	f.email = ""
	f.gate.SignOut()
	return nil
}

func (f *fakeAuth) Check(_ context.Context, err error) error {
	if err != nil {
		f.checked = append(f.checked, err)
		if errors.Is(err, common.ErrInvalidToken) {
			f.gate.Invalidate()
		}
	}
	return err
}

func (f *fakeAuth) Status() session.Status                       { return f.gate.Status() }
func (f *fakeAuth) Route(s session.Screen) session.Decision      { return f.gate.Route(s) }
func (f *fakeAuth) Email() string                                { return f.email }
func (f *fakeAuth) Ping(context.Context) error                   { return f.pingErr }
func (f *fakeAuth) Close(context.Context) error                  { f.closed = true; return nil }

type applyCall struct {
	kind   ledger.Kind
	coin   string
	amount decimal.Decimal
}

type fakeAPI struct {
	market    wire.Market
	marketErr []error // consumed one per Market call
	refreshed wire.Market
	wallets   []wire.Wallet
	portfolio wire.Portfolio
	applyRes  wire.ActionResult
	applyErr  error
	history   []wire.Transaction
	profile   wire.Profile
	statement wire.Statement
	err       error

	marketCalls int
	applied     []applyCall
	limit       int
	displayName string
	pins        []string
}

func (f *fakeAPI) Close() error                                         { return nil }
func (f *fakeAPI) SetTokens(string, string)                             {}
func (f *fakeAPI) OnTokens(func(context.Context, wire.Tokens))          {}
func (f *fakeAPI) Ping(context.Context) error                           { return nil }
func (f *fakeAPI) SignUp(context.Context, string, string) (wire.Tokens, error) {
	return wire.Tokens{}, nil
}
func (f *fakeAPI) SignIn(context.Context, string, string) (wire.Tokens, error) {
	return wire.Tokens{}, nil
}
func (f *fakeAPI) Session(context.Context) (wire.SessionInfo, error)     { return wire.SessionInfo{}, nil }
func (f *fakeAPI) VerifyPin(context.Context, string) (wire.Tokens, error) { return wire.Tokens{}, nil }
func (f *fakeAPI) SignOut(context.Context) error                          { return nil }

func (f *fakeAPI) Market(context.Context) (wire.Market, error) {
	f.marketCalls++
	if len(f.marketErr) > 0 {
		err := f.marketErr[0]
		f.marketErr = f.marketErr[1:]
		if err != nil {
			return wire.Market{}, err
		}
	}
	return f.market, nil
}

func (f *fakeAPI) RefreshMarket(context.Context) (wire.Market, error) { return f.refreshed, f.err }
func (f *fakeAPI) Wallets(context.Context) ([]wire.Wallet, error)     { return f.wallets, f.err }
func (f *fakeAPI) Portfolio(context.Context) (wire.Portfolio, error)  { return f.portfolio, f.err }

func (f *fakeAPI) Apply(_ context.Context, kind ledger.Kind, coin string, amount decimal.Decimal) (wire.ActionResult, error) {
	f.applied = append(f.applied, applyCall{kind, coin, amount})
	return f.applyRes, f.applyErr
}

func (f *fakeAPI) History(_ context.Context, limit int) ([]wire.Transaction, error) {
	f.limit = limit
	return f.history, f.err
}

func (f *fakeAPI) Profile(context.Context) (wire.Profile, error) { return f.profile, f.err }

func (f *fakeAPI) UpdateDisplayName(_ context.Context, name string) (wire.Profile, error) {
	f.displayName = name
	return wire.Profile{Email: f.profile.Email, DisplayName: name}, f.err
}

func (f *fakeAPI) ChangePin(_ context.Context, current, next, confirm string) error {
	f.pins = []string{current, next, confirm}
	return f.err
}

func (f *fakeAPI) ExportStatement(context.Context) (wire.Statement, error) { return f.statement, f.err }

var _ client.Client = (*fakeAPI)(nil)

func newTestApp(auth *fakeAuth, api *fakeAPI, input string) (*App, *bytes.Buffer) {
	out := &bytes.Buffer{}
	cfg := &config.Config{WatchInterval: time.Millisecond}
	return &App{
		config: cfg,
		auth:   auth,
		api:    api,
		logger: logging.Nop{},
		reader: bufio.NewReader(strings.NewReader(input)),
		out:    out,
	}, out
}

// stubSecrets makes getSecret return the given values in order.
func stubSecrets(t *testing.T, values ...string) {
	t.Helper()
	orig := getSecret
	t.Cleanup(func() { getSecret = orig })
	getSecret = func(io.Writer, string) ([]byte, error) {
		if len(values) == 0 {
			return nil, io.EOF
		}
		v := values[0]
		values = values[1:]
		return []byte(v), nil
	}
}

var errOffline = errors.Join(client.ErrUnavailable, errors.New("connection refused"))
