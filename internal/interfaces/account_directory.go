package interfaces

import (
	"context"

	"portal/internal/models"
)

// AccountDirectory is the slice of user management the password reset flow
// depends on. Lookups return ErrUserNotFound from the repository package when
// no account matches.
type AccountDirectory interface {
	FindByExternalID(ctx context.Context, studentID string) (*models.User, error)
	FindByAccountKey(ctx context.Context, accountKey string) (*models.User, error)
	SetCredentialHash(ctx context.Context, studentID string, passwordHash string) error
}
