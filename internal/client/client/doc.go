// Package client contains the transport side of the CryptoEx terminal
// client.
//
// The Client interface is the remote API; GRPCClient implements it over the
// cryptoex.v1.Exchange service. GRPCClient attaches the access token to
// every call, refreshes an expired token transparently and maps status
// errors back to the sentinels of package common, so callers keep using
// errors.Is. ErrUnavailable marks transport failures.
//
// InitDatabase opens the local SQLite store and applies the embedded goose
// migrations.
package client
