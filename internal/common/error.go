// Package common defines shared constants and sentinel errors used across
// client and server layers of CryptoEx. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")
	ErrorConflict      = errors.New("concurrent update conflict")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorPersistence  = errors.New("persistence error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation / ledger errors.
	ErrorValidation          = errors.New("validation error")
	ErrorInsufficientBalance = errors.New("insufficient balance")

	// Second factor.
	ErrorInvalidPin      = errors.New("invalid pin")
	ErrorPinMismatch     = errors.New("pins do not match")
	ErrorPinRequired     = errors.New("pin verification required")
	ErrorAlreadyVerified = errors.New("already verified")

	// Market data.
	ErrorFeedUnavailable = errors.New("price feed unavailable")

	// Optional integrations switched off in configuration.
	ErrorNotConfigured = errors.New("feature not configured")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
