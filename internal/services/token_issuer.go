package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"portal/internal/interfaces"
	"portal/internal/models"
	"portal/internal/repository"
)

const (
	DefaultResetTokenTTL = time.Hour
	resetTokenBytes      = 32
)

// NormalizeAccountKey case-folds a login id into the key tokens are bound to.
func NormalizeAccountKey(loginID string) string {
	return strings.ToLower(strings.TrimSpace(loginID))
}

func generateResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// TokenIssuer creates reset tokens. It never delivers them.
type TokenIssuer struct {
	store interfaces.ResetTokenStore
	ttl   time.Duration
	now   func() time.Time
}

func NewTokenIssuer(store interfaces.ResetTokenStore, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultResetTokenTTL
	}
	return &TokenIssuer{store: store, ttl: ttl, now: time.Now}
}

func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue replaces every token of accountKey with a fresh one and returns the
// raw token value.
func (i *TokenIssuer) Issue(ctx context.Context, accountKey string) (string, error) {
	raw, err := generateResetToken()
	if err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}

	now := i.now().UTC()
	rec := &models.PasswordResetToken{
		ID:         uuid.NewString(),
		TokenHash:  repository.HashResetToken(raw),
		AccountKey: NormalizeAccountKey(accountKey),
		IssuedAt:   now,
		ExpiresAt:  now.Add(i.ttl),
	}
	if err := i.store.Replace(ctx, rec); err != nil {
		return "", err
	}
	return raw, nil
}
