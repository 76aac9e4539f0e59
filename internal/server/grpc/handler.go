package grpc

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/cryptoex/internal/common"
	"github.com/dmitrijs2005/cryptoex/internal/ledger"
	"github.com/dmitrijs2005/cryptoex/internal/server/present"
	"github.com/dmitrijs2005/cryptoex/internal/wire"
	"google.golang.org/protobuf/types/known/structpb"
)

func decode(req *structpb.Struct, v any) error {
	if err := wire.Decode(req, v); err != nil {
		return fmt.Errorf("%w: malformed request: %v", common.ErrorValidation, err)
	}
	return nil
}

func (s *GRPCServer) ping(context.Context, *structpb.Struct) (any, error) {
	return wire.Status{Status: "OK"}, nil
}

func (s *GRPCServer) signUp(ctx context.Context, req *structpb.Struct) (any, error) {
	var in wire.Credentials
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	pair, err := s.svc.Sessions.SignUp(ctx, in.Email, in.Password)
	if err != nil {
		return nil, err
	}
	return present.Tokens(pair), nil
}

func (s *GRPCServer) signIn(ctx context.Context, req *structpb.Struct) (any, error) {
	var in wire.Credentials
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	pair, err := s.svc.Sessions.SignIn(ctx, in.Email, in.Password)
	if err != nil {
		return nil, err
	}
	return present.Tokens(pair), nil
}

func (s *GRPCServer) refreshToken(ctx context.Context, req *structpb.Struct) (any, error) {
	var in wire.RefreshRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	pair, err := s.svc.Sessions.RefreshToken(ctx, in.RefreshToken)
	if err != nil {
		return nil, err
	}
	return present.Tokens(pair), nil
}

func (s *GRPCServer) session(ctx context.Context, _ *structpb.Struct) (any, error) {
	return present.Session(principalFrom(ctx)), nil
}

func (s *GRPCServer) signOut(ctx context.Context, _ *structpb.Struct) (any, error) {
	if err := s.svc.Sessions.SignOut(ctx, principalFrom(ctx).UserID); err != nil {
		return nil, err
	}
	return wire.Status{Status: "OK"}, nil
}

func (s *GRPCServer) verifyPin(ctx context.Context, req *structpb.Struct) (any, error) {
	var in wire.PinRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	pair, err := s.svc.Sessions.VerifyPin(ctx, principalFrom(ctx), in.Pin)
	if err != nil {
		return nil, err
	}
	return present.Tokens(pair), nil
}

func (s *GRPCServer) market(ctx context.Context, _ *structpb.Struct) (any, error) {
	set, err := s.svc.Markets.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return present.Market(set), nil
}

func (s *GRPCServer) refreshMarket(ctx context.Context, _ *structpb.Struct) (any, error) {
	set, err := s.svc.Markets.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return present.Market(set), nil
}

func (s *GRPCServer) portfolio(ctx context.Context, _ *structpb.Struct) (any, error) {
	p, err := s.svc.Ledger.Portfolio(ctx, principalFrom(ctx).UserID)
	if err != nil {
		return nil, err
	}
	return present.Portfolio(p), nil
}

func (s *GRPCServer) wallets(ctx context.Context, _ *structpb.Struct) (any, error) {
	ws, err := s.svc.Ledger.Wallets(ctx, principalFrom(ctx).UserID)
	if err != nil {
		return nil, err
	}
	return present.Wallets(ws), nil
}

func (s *GRPCServer) history(ctx context.Context, req *structpb.Struct) (any, error) {
	var in wire.HistoryRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	txs, err := s.svc.Ledger.History(ctx, principalFrom(ctx).UserID, in.Limit)
	if err != nil {
		return nil, err
	}
	return present.History(txs), nil
}

func applyKind(kind ledger.Kind) handlerFunc {
	return func(s *GRPCServer, ctx context.Context, req *structpb.Struct) (any, error) {
		var in wire.ActionRequest
		if err := decode(req, &in); err != nil {
			return nil, err
		}
		amount, err := ledger.ParseAmount(in.Amount)
		if err != nil {
			return nil, err
		}
		res, err := s.svc.Ledger.Apply(ctx, principalFrom(ctx).UserID, kind, in.Coin, amount)
		if err != nil {
			return nil, err
		}
		return present.Result(res), nil
	}
}

func (s *GRPCServer) profile(ctx context.Context, _ *structpb.Struct) (any, error) {
	p, err := s.svc.Profiles.Get(ctx, principalFrom(ctx).UserID)
	if err != nil {
		return nil, err
	}
	return present.Profile(p), nil
}

func (s *GRPCServer) updateDisplayName(ctx context.Context, req *structpb.Struct) (any, error) {
	var in wire.DisplayNameRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	userID := principalFrom(ctx).UserID
	if err := s.svc.Profiles.UpdateDisplayName(ctx, userID, in.DisplayName); err != nil {
		return nil, err
	}
	p, err := s.svc.Profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return present.Profile(p), nil
}

func (s *GRPCServer) changePin(ctx context.Context, req *structpb.Struct) (any, error) {
	var in wire.ChangePinRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	if err := s.svc.Profiles.ChangePin(ctx, principalFrom(ctx).UserID, in.Current, in.New, in.Confirm); err != nil {
		return nil, err
	}
	return wire.Status{Status: "OK"}, nil
}

func (s *GRPCServer) exportStatement(ctx context.Context, _ *structpb.Struct) (any, error) {
	st, err := s.svc.Statements.Export(ctx, principalFrom(ctx).UserID)
	if err != nil {
		return nil, err
	}
	return present.Statement(st), nil
}
