package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/cryptoex/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrUnavailable = errors.New("server unavailable")
)

// remoteErrors are the sentinels the server reports by message. Each status
// message starts with the sentinel text, optionally followed by ": detail".
var remoteErrors = []error{
	common.ErrRefreshTokenExpired,
	common.ErrTokenExpired,
	common.ErrInvalidToken,
	common.ErrorUnauthorized,
	common.ErrorInvalidPin,
	common.ErrorPinMismatch,
	common.ErrorPinRequired,
	common.ErrorAlreadyVerified,
	common.ErrorValidation,
	common.ErrorInsufficientBalance,
	common.ErrorAlreadyExists,
	common.ErrorNotFound,
	common.ErrorConflict,
	common.ErrorFeedUnavailable,
	common.ErrorNotConfigured,
}

// mapError turns a gRPC status into an error matching the shared sentinels
// with errors.Is, keeping the server's detail text.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	msg := st.Message()
	for _, known := range remoteErrors {
		text := known.Error()
		if msg == text || strings.HasPrefix(msg, text+":") {
			return fmt.Errorf("%w%s", known, strings.TrimPrefix(msg, text))
		}
	}

	switch st.Code() {
	case codes.Unauthenticated:
		return fmt.Errorf("%w: %s", common.ErrorUnauthorized, msg)
	case codes.PermissionDenied:
		return fmt.Errorf("%w: %s", common.ErrorPinRequired, msg)
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return fmt.Errorf("%w: %s", ErrUnavailable, msg)
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
