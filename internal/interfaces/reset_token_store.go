package interfaces

import (
	"context"
	"time"

	"portal/internal/models"
)

// ResetTokenStore is the durable record of outstanding reset tokens.
//
// FindByToken takes the raw token and returns (nil, nil) when no row matches.
// MarkUsed is a no-op when the token is gone or already used. Replace removes
// every token of the account and inserts the new one atomically with respect
// to other Replace calls for the same account. Issuance goes through Replace;
// Put is the bare insert and leaves other tokens of the account in place.
type ResetTokenStore interface {
	Put(ctx context.Context, token *models.PasswordResetToken) error
	Replace(ctx context.Context, token *models.PasswordResetToken) error
	FindByToken(ctx context.Context, rawToken string) (*models.PasswordResetToken, error)
	DeleteAllForAccount(ctx context.Context, accountKey string) error
	MarkUsed(ctx context.Context, rawToken string, usedAt time.Time) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
