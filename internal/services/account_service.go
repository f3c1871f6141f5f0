package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"portal/internal/interfaces"
	"portal/internal/models"
	"portal/internal/repository"
)

// AccountService manages student logins outside the reset flow. Any change
// that moves the account key or replaces the password drops the reset tokens
// bound to the previous key.
type AccountService struct {
	users   repository.UserRepository
	tokens  interfaces.ResetTokenStore
	updater *PasswordUpdater
	log     *zap.Logger
}

func NewAccountService(users repository.UserRepository, tokens interfaces.ResetTokenStore, updater *PasswordUpdater, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{users: users, tokens: tokens, updater: updater, log: logger.Named("accounts")}
}

func (s *AccountService) List(ctx context.Context, offset, limit int) ([]models.User, error) {
	return s.users.List(ctx, offset, limit)
}

// Update applies req to the account of studentID. Repository errors such as
// ErrUserNotFound and ErrLoginIDExists are returned unwrapped.
func (s *AccountService) Update(ctx context.Context, studentID string, req models.UpdateUserRequest) (*models.User, error) {
	prev, err := s.users.FindByExternalID(ctx, studentID)
	if err != nil {
		return nil, err
	}

	var upd models.UserUpdate
	if req.LoginID != nil {
		loginID := strings.TrimSpace(*req.LoginID)
		upd.LoginID = &loginID
	}
	if req.Password != nil {
		hash, err := s.updater.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		upd.PasswordHash = &hash
	}
	upd.IsActive = req.IsActive

	u, err := s.users.Update(ctx, studentID, upd)
	if err != nil {
		return nil, err
	}

	if upd.PasswordHash != nil || keyChanged(prev.LoginID, u.LoginID) {
		s.dropResetTokens(ctx, prev)
	}
	return u, nil
}

// ChangeLoginID moves the account to a new login id, which is also the
// address reset links go to.
func (s *AccountService) ChangeLoginID(ctx context.Context, studentID string, loginID string) (*models.User, error) {
	prev, err := s.users.FindByExternalID(ctx, studentID)
	if err != nil {
		return nil, err
	}

	u, err := s.users.SetLoginID(ctx, studentID, strings.TrimSpace(loginID))
	if err != nil {
		return nil, err
	}
	if keyChanged(prev.LoginID, u.LoginID) {
		s.dropResetTokens(ctx, prev)
	}
	return u, nil
}

func keyChanged(before, after string) bool {
	return NormalizeAccountKey(before) != NormalizeAccountKey(after)
}

// dropResetTokens only logs failures; the account change is already committed.
func (s *AccountService) dropResetTokens(ctx context.Context, prev *models.User) {
	key := NormalizeAccountKey(prev.LoginID)
	if err := s.tokens.DeleteAllForAccount(ctx, key); err != nil {
		s.log.Error("drop reset tokens after account change failed",
			zap.String("student_id", prev.StudentID),
			zap.Error(fmt.Errorf("delete tokens for %q: %w", key, err)),
		)
	}
}
