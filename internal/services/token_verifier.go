package services

import (
	"context"
	"time"

	"portal/internal/interfaces"
)

// TokenVerifier resolves a raw token to its account key. It is read-only;
// consuming the token is the caller's job once the password is committed.
type TokenVerifier struct {
	store interfaces.ResetTokenStore
	now   func() time.Time
}

func NewTokenVerifier(store interfaces.ResetTokenStore) *TokenVerifier {
	return &TokenVerifier{store: store, now: time.Now}
}

// Verify returns ok=false for unknown, used and expired tokens alike. err is
// only set when the store itself fails.
func (v *TokenVerifier) Verify(ctx context.Context, rawToken string) (string, bool, error) {
	if rawToken == "" {
		return "", false, nil
	}
	rec, err := v.store.FindByToken(ctx, rawToken)
	if err != nil {
		return "", false, err
	}
	if rec == nil || !rec.Usable(v.now().UTC()) {
		return "", false, nil
	}
	return NormalizeAccountKey(rec.AccountKey), true, nil
}
