// Package services contains the server-side business logic: the session
// gate (sign-up, sign-in, PIN verification, token refresh), the wallet
// ledger, profile settings, market data and statement export.
package services

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cryptoex/internal/common"
)

// passthrough are errors services return unchanged to callers.
var passthrough = []error{
	common.ErrorNotFound,
	common.ErrorAlreadyExists,
	common.ErrorConflict,
	common.ErrorValidation,
	common.ErrorInsufficientBalance,
	common.ErrorUnauthorized,
	common.ErrorInvalidPin,
	common.ErrorPinMismatch,
	common.ErrorAlreadyVerified,
	common.ErrRefreshTokenExpired,
	common.ErrInvalidToken,
	common.ErrorInternal,
	common.ErrorPersistence,
}

// persistErr keeps domain errors and tags everything else as a
// persistence failure.
func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, e := range passthrough {
		if errors.Is(err, e) {
			return err
		}
	}
	return fmt.Errorf("%w: %s: %v", common.ErrorPersistence, op, err)
}
