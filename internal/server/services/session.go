package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dmitrijs2005/cryptoex/internal/common"
	"github.com/dmitrijs2005/cryptoex/internal/dbx"
	"github.com/dmitrijs2005/cryptoex/internal/logging"
	"github.com/dmitrijs2005/cryptoex/internal/server/auth"
	"github.com/dmitrijs2005/cryptoex/internal/server/config"
	"github.com/dmitrijs2005/cryptoex/internal/server/models"
	"github.com/dmitrijs2005/cryptoex/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cryptoex/internal/session"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// TokenPair bundles a short-lived access token, a long-lived refresh token
// and the session state they were issued for.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	State        session.State
}

// SessionService moves a user through the session states:
// SignedOut -> Unverified on sign-in or sign-up, Unverified -> Verified on
// a correct PIN, and back to SignedOut on sign-out.
type SessionService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	log                          logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	defaultPin                   string
	hashCost                     int
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *SessionService {
	return &SessionService{
		db:                           db,
		repomanager:                  m,
		log:                          log.With("module", "session"),
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		defaultPin:                   cfg.DefaultPin,
		hashCost:                     bcrypt.DefaultCost,
	}
}

// SignUp creates the account and its profile (display name taken from the
// e-mail, default PIN) in one transaction and returns an unverified session.
func (s *SessionService) SignUp(ctx context.Context, email, password string) (*TokenPair, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, minPasswordLength)
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", common.ErrorInternal, err)
	}
	pinHash, err := bcrypt.GenerateFromPassword([]byte(s.defaultPin), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("%w: hash pin: %v", common.ErrorInternal, err)
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.repomanager.Users(tx).Create(ctx, &models.User{Email: email, PasswordHash: pwHash})
		if err != nil {
			return persistErr("create user", err)
		}
		profile := &models.Profile{UserID: user.ID, DisplayName: displayNameFromEmail(email), PinHash: pinHash}
		if err := s.repomanager.Profiles(tx).Create(ctx, profile); err != nil {
			return persistErr("create profile", err)
		}
		pair, err = s.generateTokenPair(ctx, user.ID, 0, session.Unverified, tx)
		return err
	})
	if err != nil {
		return nil, persistErr("sign up", err)
	}

	s.log.Info(ctx, "user signed up", "email", email)
	return pair, nil
}

// SignIn checks the credentials. Unknown e-mails and wrong passwords are
// both reported as common.ErrorUnauthorized.
func (s *SessionService) SignIn(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, persistErr("find user", err)
	}
	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, common.ErrorUnauthorized
	}
	gen, err := s.repomanager.Users(s.db).TokenGeneration(ctx, user.ID)
	if err != nil {
		return nil, persistErr("load token generation", err)
	}
	return s.generateTokenPair(ctx, user.ID, gen, session.Unverified, s.db)
}

// VerifyPin upgrades an unverified session. A mismatch returns
// common.ErrorInvalidPin and leaves the session as it was.
func (s *SessionService) VerifyPin(ctx context.Context, p auth.Principal, code string) (*TokenPair, error) {
	switch p.State {
	case session.Verified:
		return nil, common.ErrorAlreadyVerified
	case session.Unverified:
	default:
		return nil, common.ErrorUnauthorized
	}
	if !common.ValidPin(code) {
		return nil, fmt.Errorf("%w: pin must be %d digits", common.ErrorValidation, common.PinLength)
	}

	profile, err := s.repomanager.Profiles(s.db).Get(ctx, p.UserID)
	if err != nil {
		return nil, persistErr("load profile", err)
	}
	if bcrypt.CompareHashAndPassword(profile.PinHash, []byte(code)) != nil {
		s.log.Warn(ctx, "pin mismatch", "user_id", p.UserID)
		return nil, common.ErrorInvalidPin
	}
	return s.generateTokenPair(ctx, p.UserID, p.Generation, session.Verified, s.db)
}

// RefreshToken rotates a refresh token inside a transaction. The new pair
// keeps the stage the old token was issued for.
func (s *SessionService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repomanager.RefreshTokens(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error searching refresh token: %w", persistErr("find token", err))
	}
	if token.Expires.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	state := session.Unverified
	if token.Verified {
		state = session.Verified
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", persistErr("delete token", err))
		}
		gen, err := s.repomanager.Users(tx).TokenGeneration(ctx, token.UserID)
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidToken
		}
		if err != nil {
			return persistErr("load token generation", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, token.UserID, gen, state, tx)
		return genErr
	}); err != nil {
		return nil, persistErr("rotate token", err)
	}
	return pair, nil
}

// SignOut ends every session of the user: refresh tokens are deleted and
// the token generation moves on, so access tokens already handed out stop
// passing Authorize.
func (s *SessionService) SignOut(ctx context.Context, userID string) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).BumpTokenGeneration(ctx, userID); err != nil && !errors.Is(err, common.ErrorNotFound) {
			return persistErr("bump token generation", err)
		}
		if err := s.repomanager.RefreshTokens(tx).DeleteByUser(ctx, userID); err != nil {
			return persistErr("revoke tokens", err)
		}
		return nil
	})
	if err != nil {
		return persistErr("sign out", err)
	}
	s.log.Info(ctx, "user signed out", "user_id", userID)
	return nil
}

// Authorize rejects a parsed access token whose generation is no longer
// current, i.e. one issued before the user's last sign-out.
func (s *SessionService) Authorize(ctx context.Context, p auth.Principal) error {
	gen, err := s.repomanager.Users(s.db).TokenGeneration(ctx, p.UserID)
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrInvalidToken
	}
	if err != nil {
		return persistErr("load token generation", err)
	}
	if gen != p.Generation {
		return fmt.Errorf("%w: session ended", common.ErrInvalidToken)
	}
	return nil
}

func (s *SessionService) generateTokenPair(ctx context.Context, userID string, gen int64, state session.State, tx dbx.DBTX) (*TokenPair, error) {
	access, err := auth.GenerateSessionToken(userID, state.Stage(), gen, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, userID, refresh, state == session.Verified, s.refreshTokenValidityDuration); err != nil {
		return nil, persistErr("store refresh token", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, State: state}, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid e-mail", common.ErrorValidation)
	}
	return email, nil
}

func displayNameFromEmail(email string) string {
	name, _, _ := strings.Cut(email, "@")
	return name
}
