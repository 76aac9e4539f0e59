package grpc

import (
	"context"

	"github.com/dmitrijs2005/cryptoex/internal/ledger"
	"github.com/dmitrijs2005/cryptoex/internal/session"
	"github.com/dmitrijs2005/cryptoex/internal/wire"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

type access int

const (
	// public methods need no token.
	public access = iota
	// anyToken methods need a valid token in any signed-in stage.
	anyToken
	// gated methods are routed through session.Route for their screen.
	gated
)

type handlerFunc func(s *GRPCServer, ctx context.Context, req *structpb.Struct) (any, error)

type method struct {
	name   string
	access access
	screen session.Screen
	call   handlerFunc
}

var methodTable = []method{
	{name: wire.MethodPing, access: public, call: (*GRPCServer).ping},
	{name: wire.MethodSignUp, access: public, call: (*GRPCServer).signUp},
	{name: wire.MethodSignIn, access: public, call: (*GRPCServer).signIn},
	{name: wire.MethodRefreshToken, access: public, call: (*GRPCServer).refreshToken},
	{name: wire.MethodSession, access: anyToken, call: (*GRPCServer).session},
	{name: wire.MethodSignOut, access: anyToken, call: (*GRPCServer).signOut},
	{name: wire.MethodVerifyPin, access: gated, screen: session.ScreenPin, call: (*GRPCServer).verifyPin},
	{name: wire.MethodMarket, access: gated, screen: session.ScreenMarket, call: (*GRPCServer).market},
	{name: wire.MethodRefreshMarket, access: gated, screen: session.ScreenMarket, call: (*GRPCServer).refreshMarket},
	{name: wire.MethodPortfolio, access: gated, screen: session.ScreenDashboard, call: (*GRPCServer).portfolio},
	{name: wire.MethodWallets, access: gated, screen: session.ScreenWallet, call: (*GRPCServer).wallets},
	{name: wire.MethodHistory, access: gated, screen: session.ScreenWallet, call: (*GRPCServer).history},
	{name: wire.MethodDeposit, access: gated, screen: session.ScreenWallet, call: applyKind(ledger.Deposit)},
	{name: wire.MethodWithdraw, access: gated, screen: session.ScreenWallet, call: applyKind(ledger.Withdraw)},
	{name: wire.MethodBuy, access: gated, screen: session.ScreenMarket, call: applyKind(ledger.Buy)},
	{name: wire.MethodSell, access: gated, screen: session.ScreenMarket, call: applyKind(ledger.Sell)},
	{name: wire.MethodProfile, access: gated, screen: session.ScreenSettings, call: (*GRPCServer).profile},
	{name: wire.MethodUpdateDisplayName, access: gated, screen: session.ScreenSettings, call: (*GRPCServer).updateDisplayName},
	{name: wire.MethodChangePin, access: gated, screen: session.ScreenSettings, call: (*GRPCServer).changePin},
	{name: wire.MethodExportStatement, access: gated, screen: session.ScreenSettings, call: (*GRPCServer).exportStatement},
}

func (s *GRPCServer) serviceDesc() *grpc.ServiceDesc {
	desc := &grpc.ServiceDesc{
		ServiceName: wire.ServiceName,
		HandlerType: (*any)(nil),
		Streams:     []grpc.StreamDesc{},
		Metadata:    "cryptoex/v1/exchange",
	}
	for _, m := range methodTable {
		desc.Methods = append(desc.Methods, grpc.MethodDesc{MethodName: m.name, Handler: s.methodHandler(m)})
	}
	return desc
}

func (s *GRPCServer) methodHandler(m method) grpc.MethodHandler {
	return func(_ any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		h := func(ctx context.Context, req any) (any, error) {
			return s.invoke(ctx, m, req.(*structpb.Struct))
		}
		if interceptor == nil {
			return h(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: s, FullMethod: wire.FullMethod(m.name)}
		return interceptor(ctx, in, info, h)
	}
}

func (s *GRPCServer) invoke(ctx context.Context, m method, req *structpb.Struct) (*structpb.Struct, error) {
	out, err := m.call(s, ctx, req)
	if err != nil {
		return nil, s.toStatus(ctx, m.name, err)
	}
	res, err := wire.Encode(out)
	if err != nil {
		s.logger.Error(ctx, "encode response", "method", m.name, "error", err)
		return nil, s.toStatus(ctx, m.name, err)
	}
	return res, nil
}
