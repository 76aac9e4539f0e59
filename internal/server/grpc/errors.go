package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/cryptoex/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var errorCodes = []struct {
	err  error
	code codes.Code
}{
	{common.ErrorValidation, codes.InvalidArgument},
	{common.ErrorPinMismatch, codes.InvalidArgument},
	{common.ErrorInsufficientBalance, codes.FailedPrecondition},
	{common.ErrorAlreadyVerified, codes.FailedPrecondition},
	{common.ErrorPinRequired, codes.PermissionDenied},
	{common.ErrorUnauthorized, codes.Unauthenticated},
	{common.ErrorInvalidPin, codes.Unauthenticated},
	{common.ErrInvalidToken, codes.Unauthenticated},
	{common.ErrTokenExpired, codes.Unauthenticated},
	{common.ErrRefreshTokenExpired, codes.Unauthenticated},
	{common.ErrorAlreadyExists, codes.AlreadyExists},
	{common.ErrorNotFound, codes.NotFound},
	{common.ErrorConflict, codes.Aborted},
	{common.ErrorFeedUnavailable, codes.Unavailable},
	{common.ErrorNotConfigured, codes.Unimplemented},
}

// toStatus maps a service error to a gRPC status. Known errors keep their
// message so the client can tell them apart; anything else is logged and
// reported as a bare internal error.
func (s *GRPCServer) toStatus(ctx context.Context, method string, err error) error {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return status.Error(e.code, err.Error())
		}
	}
	s.logger.Error(ctx, "request failed", "method", method, "error", err)
	return status.Error(codes.Internal, "internal error")
}
