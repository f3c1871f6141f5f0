package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"portal/internal/interfaces"
	"portal/internal/repository"
)

// DefaultBcryptCost lands around 100-250ms per hash on current server CPUs.
const DefaultBcryptCost = 12

type PasswordUpdater struct {
	accounts interfaces.AccountDirectory
	cost     int
}

func NewPasswordUpdater(accounts interfaces.AccountDirectory, cost int) *PasswordUpdater {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordUpdater{accounts: accounts, cost: cost}
}

func (u *PasswordUpdater) HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), u.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// UpdatePassword stores a new bcrypt hash for the account identified by
// accountKey. It returns ErrAccountNotFound if the account vanished.
func (u *PasswordUpdater) UpdatePassword(ctx context.Context, accountKey string, plaintext string) error {
	acct, err := u.accounts.FindByAccountKey(ctx, accountKey)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("find account: %w", err)
	}

	hash, err := u.HashPassword(plaintext)
	if err != nil {
		return err
	}

	if err := u.accounts.SetCredentialHash(ctx, acct.StudentID, hash); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("set credential hash: %w", err)
	}
	return nil
}
