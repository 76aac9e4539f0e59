package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/cryptoex/internal/common"
	"github.com/dmitrijs2005/cryptoex/internal/server/auth"
	"github.com/dmitrijs2005/cryptoex/internal/session"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const principalKey ctxKey = "principal"

func withPrincipal(ctx context.Context, p auth.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// principalFrom returns the caller set by accessTokenInterceptor, or the
// zero (signed out) principal.
func principalFrom(ctx context.Context) auth.Principal {
	p, _ := ctx.Value(principalKey).(auth.Principal)
	return p
}

func accessTokenFrom(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AccessTokenHeaderName)
		if len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	m, ok := s.methods[info.FullMethod]
	if !ok || m.access == public {
		return handler(ctx, req)
	}

	accessToken := accessTokenFrom(ctx)
	if len(accessToken) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	p, err := auth.ParseToken(accessToken, s.jwtSecret)
	if err != nil {
		return nil, s.toStatus(ctx, m.name, err)
	}
	if err := s.svc.Sessions.Authorize(ctx, p); err != nil {
		return nil, s.toStatus(ctx, m.name, err)
	}

	if m.access == gated {
		switch session.Route(session.Status{State: p.State}, m.screen) {
		case session.Render:
		case session.RedirectPin:
			return nil, s.toStatus(ctx, m.name, common.ErrorPinRequired)
		case session.RedirectDashboard:
			return nil, s.toStatus(ctx, m.name, common.ErrorAlreadyVerified)
		default:
			return nil, s.toStatus(ctx, m.name, common.ErrorUnauthorized)
		}
	}

	return handler(withPrincipal(ctx, p), req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug(ctx, "rpc",
		"request_id", uuid.NewString(),
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration", time.Since(start),
	)
	return resp, err
}
