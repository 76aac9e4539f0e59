package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/cryptoex/internal/common"
	"github.com/dmitrijs2005/cryptoex/internal/logging"
	"github.com/dmitrijs2005/cryptoex/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

const maxDisplayNameLength = 64

type Profile struct {
	UserID      string
	Email       string
	DisplayName string
}

// ProfileService manages the settings screen: display name and PIN.
type ProfileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
	hashCost    int
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *ProfileService {
	return &ProfileService{db: db, repomanager: m, log: log.With("module", "profile"), hashCost: bcrypt.DefaultCost}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, persistErr("load user", err)
	}
	p, err := s.repomanager.Profiles(s.db).Get(ctx, userID)
	if err != nil {
		return nil, persistErr("load profile", err)
	}
	return &Profile{UserID: userID, Email: user.Email, DisplayName: p.DisplayName}, nil
}

func (s *ProfileService) UpdateDisplayName(ctx context.Context, userID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxDisplayNameLength {
		return fmt.Errorf("%w: display name must be 1-%d characters", common.ErrorValidation, maxDisplayNameLength)
	}
	if err := s.repomanager.Profiles(s.db).UpdateDisplayName(ctx, userID, name); err != nil {
		return persistErr("update display name", err)
	}
	return nil
}

// ChangePin rotates the PIN. The new PIN must be well-formed and confirmed
// before the current one is checked.
func (s *ProfileService) ChangePin(ctx context.Context, userID, current, next, confirm string) error {
	if !common.ValidPin(next) {
		return fmt.Errorf("%w: pin must be %d digits", common.ErrorValidation, common.PinLength)
	}
	if next != confirm {
		return common.ErrorPinMismatch
	}

	repo := s.repomanager.Profiles(s.db)
	p, err := repo.Get(ctx, userID)
	if err != nil {
		return persistErr("load profile", err)
	}
	if bcrypt.CompareHashAndPassword(p.PinHash, []byte(current)) != nil {
		return common.ErrorInvalidPin
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.hashCost)
	if err != nil {
		return fmt.Errorf("%w: hash pin: %v", common.ErrorInternal, err)
	}
	if err := repo.UpdatePin(ctx, userID, hash); err != nil {
		return persistErr("update pin", err)
	}
	s.log.Info(ctx, "pin changed", "user_id", userID)
	return nil
}
