package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/cryptoex/internal/common"
	"github.com/dmitrijs2005/cryptoex/internal/ledger"
	"github.com/dmitrijs2005/cryptoex/internal/wire"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var applyMethods = map[ledger.Kind]string{
	ledger.Deposit:  wire.MethodDeposit,
	ledger.Withdraw: wire.MethodWithdraw,
	ledger.Buy:      wire.MethodBuy,
	ledger.Sell:     wire.MethodSell,
}

type GRPCClient struct {
	endpointURL string
	timeout     time.Duration
	conn        *grpc.ClientConn

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	onTokens     func(ctx context.Context, t wire.Tokens)

	// refreshMu serialises refreshes so a rotated refresh token is used once.
	refreshMu sync.Mutex
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) tokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

func (s *GRPCClient) SetTokens(accessToken, refreshToken string) {
	s.mu.Lock()
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	s.mu.Unlock()
}

func (s *GRPCClient) OnTokens(fn func(ctx context.Context, t wire.Tokens)) {
	s.mu.Lock()
	s.onTokens = fn
	s.mu.Unlock()
}

// accessTokenInterceptor attaches the access token and, when the server
// reports it expired, rotates the pair once and retries the call.
func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	used, _ := s.tokens()
	err := invoker(withAccessToken(ctx, used), method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}

	fresh, rerr := s.refresh(ctx, used, cc, invoker, opts...)
	if rerr != nil {
		return rerr
	}

	return invoker(withAccessToken(ctx, fresh), method, req, reply, cc, opts...)
}

// refresh exchanges the refresh token for a new pair unless another call
// already did so since expired was sent.
func (s *GRPCClient) refresh(ctx context.Context, expired string, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) (string, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	access, refresh := s.tokens()
	if access != expired {
		return access, nil
	}
	if refresh == "" {
		return "", status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	}

	in, err := wire.Encode(wire.RefreshRequest{RefreshToken: refresh})
	if err != nil {
		return "", err
	}
	out := &structpb.Struct{}
	if err := invoker(withAccessToken(ctx, ""), wire.FullMethod(wire.MethodRefreshToken), in, out, cc, opts...); err != nil {
		return "", err
	}

	var t wire.Tokens
	if err := wire.Decode(out, &t); err != nil {
		return "", err
	}
	s.SetTokens(t.AccessToken, t.RefreshToken)

	s.mu.Lock()
	fn := s.onTokens
	s.mu.Unlock()
	if fn != nil {
		fn(ctx, t)
	}

	return t.AccessToken, nil
}

// NewExchangeClient dials the server lazily. Extra options are appended
// after the defaults (insecure transport, token interceptor).
func NewExchangeClient(endpointURL string, timeout time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, timeout: timeout}
	if err := c.InitGRPCClient(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	dial := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, dial...)
	if err != nil {
		return err
	}
	s.conn = conn
	return nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) call(ctx context.Context, method string, in, out any) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req := &structpb.Struct{}
	if in != nil {
		var err error
		if req, err = wire.Encode(in); err != nil {
			return fmt.Errorf("encode %s request: %w", method, err)
		}
	}

	resp := &structpb.Struct{}
	if err := s.conn.Invoke(ctx, wire.FullMethod(method), req, resp); err != nil {
		return mapError(err)
	}
	if out == nil {
		return nil
	}
	if err := wire.Decode(resp, out); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	return nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	var resp wire.Status
	if err := s.call(ctx, wire.MethodPing, nil, &resp); err != nil {
		return err
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) openSession(ctx context.Context, method string, in any) (wire.Tokens, error) {
	var t wire.Tokens
	if err := s.call(ctx, method, in, &t); err != nil {
		return wire.Tokens{}, err
	}
	s.SetTokens(t.AccessToken, t.RefreshToken)
	return t, nil
}

func (s *GRPCClient) SignUp(ctx context.Context, email, password string) (wire.Tokens, error) {
	return s.openSession(ctx, wire.MethodSignUp, wire.Credentials{Email: email, Password: password})
}

func (s *GRPCClient) SignIn(ctx context.Context, email, password string) (wire.Tokens, error) {
	return s.openSession(ctx, wire.MethodSignIn, wire.Credentials{Email: email, Password: password})
}

func (s *GRPCClient) VerifyPin(ctx context.Context, pin string) (wire.Tokens, error) {
	return s.openSession(ctx, wire.MethodVerifyPin, wire.PinRequest{Pin: pin})
}

func (s *GRPCClient) Session(ctx context.Context) (wire.SessionInfo, error) {
	var info wire.SessionInfo
	err := s.call(ctx, wire.MethodSession, nil, &info)
	return info, err
}

// SignOut revokes the session on the server and forgets the local tokens
// even when the call fails.
func (s *GRPCClient) SignOut(ctx context.Context) error {
	err := s.call(ctx, wire.MethodSignOut, nil, nil)
	s.SetTokens("", "")
	return err
}

func (s *GRPCClient) Market(ctx context.Context) (wire.Market, error) {
	var m wire.Market
	err := s.call(ctx, wire.MethodMarket, nil, &m)
	return m, err
}

func (s *GRPCClient) RefreshMarket(ctx context.Context) (wire.Market, error) {
	var m wire.Market
	err := s.call(ctx, wire.MethodRefreshMarket, nil, &m)
	return m, err
}

func (s *GRPCClient) Wallets(ctx context.Context) ([]wire.Wallet, error) {
	var w wire.Wallets
	err := s.call(ctx, wire.MethodWallets, nil, &w)
	return w.Wallets, err
}

func (s *GRPCClient) Portfolio(ctx context.Context) (wire.Portfolio, error) {
	var p wire.Portfolio
	err := s.call(ctx, wire.MethodPortfolio, nil, &p)
	return p, err
}

func (s *GRPCClient) Apply(ctx context.Context, kind ledger.Kind, coin string, amount decimal.Decimal) (wire.ActionResult, error) {
	method, ok := applyMethods[kind]
	if !ok {
		return wire.ActionResult{}, fmt.Errorf("%w: unknown action %q", common.ErrorValidation, kind)
	}
	var res wire.ActionResult
	err := s.call(ctx, method, wire.ActionRequest{Coin: coin, Amount: amount.String()}, &res)
	return res, err
}

func (s *GRPCClient) History(ctx context.Context, limit int) ([]wire.Transaction, error) {
	var h wire.History
	err := s.call(ctx, wire.MethodHistory, wire.HistoryRequest{Limit: limit}, &h)
	return h.Transactions, err
}

func (s *GRPCClient) Profile(ctx context.Context) (wire.Profile, error) {
	var p wire.Profile
	err := s.call(ctx, wire.MethodProfile, nil, &p)
	return p, err
}

func (s *GRPCClient) UpdateDisplayName(ctx context.Context, name string) (wire.Profile, error) {
	var p wire.Profile
	err := s.call(ctx, wire.MethodUpdateDisplayName, wire.DisplayNameRequest{DisplayName: name}, &p)
	return p, err
}

func (s *GRPCClient) ChangePin(ctx context.Context, current, next, confirm string) error {
	return s.call(ctx, wire.MethodChangePin, wire.ChangePinRequest{Current: current, New: next, Confirm: confirm}, nil)
}

func (s *GRPCClient) ExportStatement(ctx context.Context) (wire.Statement, error) {
	var st wire.Statement
	err := s.call(ctx, wire.MethodExportStatement, nil, &st)
	return st, err
}

var _ Client = (*GRPCClient)(nil)
