package models

import "time"

// PasswordResetToken is one outstanding reset credential. Only the SHA-256
// hash of the raw token is stored.
type PasswordResetToken struct {
	ID         string
	TokenHash  string
	AccountKey string
	IssuedAt   time.Time
	ExpiresAt  time.Time
	Used       bool
	UsedAt     *time.Time
}

// Usable reports whether the token may still authorize a password change at now.
func (t *PasswordResetToken) Usable(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}
