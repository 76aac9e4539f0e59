// Package common contains shared constants and sentinel errors used across
// CryptoEx components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// DefaultPin is assigned to freshly provisioned profiles until the user
// rotates it in settings.
const DefaultPin = "123456"

// PinLength is the number of digits of a second-factor PIN.
const PinLength = 6
