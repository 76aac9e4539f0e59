package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/cryptoex/internal/common"
	"github.com/dmitrijs2005/cryptoex/internal/logging"
	"github.com/dmitrijs2005/cryptoex/internal/server/auth"
	"github.com/dmitrijs2005/cryptoex/internal/server/config"
	"github.com/dmitrijs2005/cryptoex/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func newSessionService(t *testing.T, m *memDB) (*SessionService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newSQLMockDB(t)
	cfg := &config.Config{
		SecretKey:                    testSecret,
		AccessTokenValidityDuration:  time.Minute,
		RefreshTokenValidityDuration: time.Hour,
		DefaultPin:                   "123456",
	}
	s := NewSessionService(db, memRepoManager{m}, cfg, logging.Nop{})
	s.hashCost = bcrypt.MinCost
	return s, mock
}

func signUp(t *testing.T, s *SessionService, mock sqlmock.Sqlmock, email, password string) *TokenPair {
	t.Helper()
	mock.ExpectBegin()
	mock.ExpectCommit()
	pair, err := s.SignUp(context.Background(), email, password)
	require.NoError(t, err)
	return pair
}

func principalOf(t *testing.T, access string) auth.Principal {
	t.Helper()
	p, err := auth.ParseToken(access, []byte(testSecret))
	require.NoError(t, err)
	return p
}

func TestSession_SignUp(t *testing.T) {
	m := newMemDB()
	s, mock := newSessionService(t, m)

	pair := signUp(t, s, mock, "  Alice@Example.com ", "secret1")
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, session.Unverified, pair.State)
	p := principalOf(t, pair.AccessToken)
	assert.Equal(t, session.Unverified, p.State)

	u, err := memUsers{m}.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.UserID)
	assert.NoError(t, bcrypt.CompareHashAndPassword(u.PasswordHash, []byte("secret1")))

	prof := m.profiles[u.ID]
	require.NotNil(t, prof)
	assert.Equal(t, "alice", prof.DisplayName)
	assert.NoError(t, bcrypt.CompareHashAndPassword(prof.PinHash, []byte("123456")))

	tok := m.tokens[pair.RefreshToken]
	require.NotNil(t, tok)
	assert.False(t, tok.Verified)
}

func TestSession_SignUpValidation(t *testing.T) {
	tests := []struct {
		name, email, password string
	}{
		{"bad email", "not-an-email", "secret1"},
		{"display name email", "Bob <bob@example.com>", "secret1"},
		{"short password", "bob@example.com", "12345"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newSessionService(t, newMemDB())
			_, err := s.SignUp(context.Background(), tt.email, tt.password)
			require.ErrorIs(t, err, common.ErrorValidation)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSession_SignUpDuplicate(t *testing.T) {
	m := newMemDB()
	s, mock := newSessionService(t, m)
	signUp(t, s, mock, "alice@example.com", "secret1")

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := s.SignUp(context.Background(), "alice@example.com", "other-pass")
	require.ErrorIs(t, err, common.ErrorAlreadyExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSession_SignUpStoreFailure(t *testing.T) {
	m := newMemDB()
	m.profileErr = errBoom
	s, mock := newSessionService(t, m)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := s.SignUp(context.Background(), "alice@example.com", "secret1")
	require.ErrorIs(t, err, common.ErrorPersistence)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSession_SignIn(t *testing.T) {
	m := newMemDB()
	s, mock := newSessionService(t, m)
	signUp(t, s, mock, "alice@example.com", "secret1")

	pair, err := s.SignIn(context.Background(), "ALICE@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, session.Unverified, pair.State)
	assert.Equal(t, session.Unverified, principalOf(t, pair.AccessToken).State)

	_, err = s.SignIn(context.Background(), "alice@example.com", "wrong")
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = s.SignIn(context.Background(), "nobody@example.com", "secret1")
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	m.userGetErr = errBoom
	_, err = s.SignIn(context.Background(), "alice@example.com", "secret1")
	require.ErrorIs(t, err, common.ErrorPersistence)
}

func TestSession_VerifyPin(t *testing.T) {
	m := newMemDB()
	s, mock := newSessionService(t, m)
	pair := signUp(t, s, mock, "alice@example.com", "secret1")
	p := principalOf(t, pair.AccessToken)
	tokensBefore := len(m.tokens)

	_, err := s.VerifyPin(context.Background(), p, "654321")
	require.ErrorIs(t, err, common.ErrorInvalidPin)
	assert.Len(t, m.tokens, tokensBefore)

	_, err = s.VerifyPin(context.Background(), p, "12ab56")
	require.ErrorIs(t, err, common.ErrorValidation)

	verified, err := s.VerifyPin(context.Background(), p, "123456")
	require.NoError(t, err)
	assert.Equal(t, session.Verified, verified.State)
	vp := principalOf(t, verified.AccessToken)
	assert.Equal(t, session.Verified, vp.State)
	assert.True(t, m.tokens[verified.RefreshToken].Verified)

	_, err = s.VerifyPin(context.Background(), vp, "123456")
	require.ErrorIs(t, err, common.ErrorAlreadyVerified)

	_, err = s.VerifyPin(context.Background(), auth.Principal{UserID: p.UserID, State: session.SignedOut}, "123456")
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestSession_RefreshKeepsStage(t *testing.T) {
	for _, verified := range []bool{false, true} {
		m := newMemDB()
		m.addUser("u1")
		s, mock := newSessionService(t, m)
		require.NoError(t, memTokens{m}.Create(context.Background(), "u1", "old", verified, time.Hour))

		mock.ExpectBegin()
		mock.ExpectCommit()
		pair, err := s.RefreshToken(context.Background(), "old")
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())

		want := session.Unverified
		if verified {
			want = session.Verified
		}
		assert.Equal(t, want, pair.State)
		assert.Equal(t, want, principalOf(t, pair.AccessToken).State)
		assert.NotContains(t, m.tokens, "old")
		assert.Equal(t, verified, m.tokens[pair.RefreshToken].Verified)
	}
}

func TestSession_RefreshErrors(t *testing.T) {
	m := newMemDB()
	m.addUser("u1")
	s, mock := newSessionService(t, m)

	_, err := s.RefreshToken(context.Background(), "missing")
	require.ErrorIs(t, err, common.ErrInvalidToken)

	require.NoError(t, memTokens{m}.Create(context.Background(), "u1", "expired", true, -time.Minute))
	_, err = s.RefreshToken(context.Background(), "expired")
	require.ErrorIs(t, err, common.ErrRefreshTokenExpired)

	require.NoError(t, memTokens{m}.Create(context.Background(), "u1", "live", true, time.Hour))
	m.tokenDeleteErr = errBoom
	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = s.RefreshToken(context.Background(), "live")
	require.ErrorIs(t, err, common.ErrorPersistence)
	require.NoError(t, mock.ExpectationsWereMet())

	m.tokenDeleteErr = nil
	m.tokenFindErr = errBoom
	_, err = s.RefreshToken(context.Background(), "live")
	require.ErrorIs(t, err, common.ErrorPersistence)
}

func TestSession_RefreshForDeletedUser(t *testing.T) {
	m := newMemDB()
	s, mock := newSessionService(t, m)
	require.NoError(t, memTokens{m}.Create(context.Background(), "ghost", "old", true, time.Hour))

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := s.RefreshToken(context.Background(), "old")
	require.ErrorIs(t, err, common.ErrInvalidToken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSession_SignOut(t *testing.T) {
	m := newMemDB()
	m.addUser("u1")
	m.addUser("u2")
	s, mock := newSessionService(t, m)
	ctx := context.Background()
	require.NoError(t, memTokens{m}.Create(ctx, "u1", "a", true, time.Hour))
	require.NoError(t, memTokens{m}.Create(ctx, "u1", "b", false, time.Hour))
	require.NoError(t, memTokens{m}.Create(ctx, "u2", "c", false, time.Hour))

	mock.ExpectBegin()
	mock.ExpectCommit()
	require.NoError(t, s.SignOut(ctx, "u1"))
	assert.Len(t, m.tokens, 1)
	assert.Contains(t, m.tokens, "c")
	assert.Equal(t, int64(1), m.gens["u1"])
	assert.Zero(t, m.gens["u2"])

	m.tokenDeleteErr = errBoom
	mock.ExpectBegin()
	mock.ExpectRollback()
	require.ErrorIs(t, s.SignOut(ctx, "u2"), common.ErrorPersistence)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSession_SignOutEndsIssuedAccessTokens(t *testing.T) {
	m := newMemDB()
	s, mock := newSessionService(t, m)
	ctx := context.Background()
	pair := signUp(t, s, mock, "alice@example.com", "secret1")
	before := principalOf(t, pair.AccessToken)
	require.NoError(t, s.Authorize(ctx, before))

	verified, err := s.VerifyPin(ctx, before, "123456")
	require.NoError(t, err)
	vp := principalOf(t, verified.AccessToken)
	require.NoError(t, s.Authorize(ctx, vp))

	mock.ExpectBegin()
	mock.ExpectCommit()
	require.NoError(t, s.SignOut(ctx, before.UserID))

	require.ErrorIs(t, s.Authorize(ctx, before), common.ErrInvalidToken)
	require.ErrorIs(t, s.Authorize(ctx, vp), common.ErrInvalidToken)

	again, err := s.SignIn(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	ap := principalOf(t, again.AccessToken)
	assert.Equal(t, int64(1), ap.Generation)
	require.NoError(t, s.Authorize(ctx, ap))

	require.NoError(t, memTokens{m}.Create(ctx, ap.UserID, "r", true, time.Hour))
	mock.ExpectBegin()
	mock.ExpectCommit()
	refreshed, err := s.RefreshToken(ctx, "r")
	require.NoError(t, err)
	require.NoError(t, s.Authorize(ctx, principalOf(t, refreshed.AccessToken)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSession_AuthorizeErrors(t *testing.T) {
	m := newMemDB()
	s, _ := newSessionService(t, m)
	ctx := context.Background()

	err := s.Authorize(ctx, auth.Principal{UserID: "gone", State: session.Verified})
	require.ErrorIs(t, err, common.ErrInvalidToken)

	m.addUser("u1")
	m.userGetErr = errBoom
	err = s.Authorize(ctx, auth.Principal{UserID: "u1", State: session.Verified})
	require.ErrorIs(t, err, common.ErrorPersistence)
}

func TestDisplayNameFromEmail(t *testing.T) {
	assert.Equal(t, "alice", displayNameFromEmail("alice@example.com"))
	assert.Equal(t, "bob", displayNameFromEmail("bob"))
}
