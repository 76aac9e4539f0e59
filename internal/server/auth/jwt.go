// Package auth issues and verifies HS256 access tokens. A token carries the
// user id, the session stage (PIN unverified or verified) and the user's
// token generation at issue time.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/cryptoex/internal/common"
	"github.com/dmitrijs2005/cryptoex/internal/session"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	jwt.RegisteredClaims
	UserID     string        `json:"uid"`
	Stage      session.Stage `json:"stage"`
	Generation int64         `json:"gen"`
}

// Principal is the authenticated caller extracted from a valid token.
// Generation must still match the user's current generation for the
// token to be honoured; sign-out moves the user past it.
type Principal struct {
	UserID     string
	State      session.State
	Generation int64
}

// GenerateToken issues a token of generation 0.
func GenerateToken(userID string, stage session.Stage, secretKey []byte, validityDuration time.Duration) (string, error) {
	return GenerateSessionToken(userID, stage, 0, secretKey, validityDuration)
}

func GenerateSessionToken(userID string, stage session.Stage, generation int64, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID:     userID,
		Stage:      stage,
		Generation: generation,
	})

	return token.SignedString(secretKey)
}

// ParseToken validates the signature and expiry. Expired tokens yield
// common.ErrTokenExpired, everything else common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (Principal, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, common.ErrTokenExpired
		}
		return Principal{}, common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" {
		return Principal{}, common.ErrInvalidToken
	}

	st := session.StateOf(claims.Stage)
	if st == session.SignedOut {
		return Principal{}, common.ErrInvalidToken
	}

	return Principal{UserID: claims.UserID, State: st, Generation: claims.Generation}, nil
}
