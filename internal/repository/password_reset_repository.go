package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"portal/internal/interfaces"
	"portal/internal/models"
)

type passwordResetRepository struct {
	db *sql.DB
}

func NewPasswordResetRepository(db *sql.DB) interfaces.ResetTokenStore {
	return &passwordResetRepository{db: db}
}

// HashResetToken returns the lookup key stored for a raw reset token.
func HashResetToken(rawToken string) string {
	h := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(h[:])
}

const insertResetTokenQuery = `
		INSERT INTO password_reset_tokens (id, token_hash, account_key, issued_at, expires_at, used)
		VALUES ($1, $2, $3, $4, $5, FALSE)
	`

func (r *passwordResetRepository) Put(ctx context.Context, token *models.PasswordResetToken) error {
	_, err := r.db.ExecContext(ctx, insertResetTokenQuery, token.ID, token.TokenHash, token.AccountKey, token.IssuedAt, token.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert reset token: %w", err)
	}
	return nil
}

func (r *passwordResetRepository) Replace(ctx context.Context, token *models.PasswordResetToken) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset token tx: %w", err)
	}
	defer tx.Rollback()

	// Serializes issuance per account until commit; concurrent issuers for the
	// same account wait here and then see the committed row.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, token.AccountKey); err != nil {
		return fmt.Errorf("lock account %q: %w", token.AccountKey, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE account_key = $1`, token.AccountKey); err != nil {
		return fmt.Errorf("delete previous reset tokens: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insertResetTokenQuery, token.ID, token.TokenHash, token.AccountKey, token.IssuedAt, token.ExpiresAt); err != nil {
		return fmt.Errorf("insert reset token: %w", err)
	}

	return tx.Commit()
}

func (r *passwordResetRepository) FindByToken(ctx context.Context, rawToken string) (*models.PasswordResetToken, error) {
	query := `
		SELECT id, token_hash, account_key, issued_at, expires_at, used, used_at
		FROM password_reset_tokens
		WHERE token_hash = $1
	`

	var t models.PasswordResetToken
	var usedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, HashResetToken(rawToken)).Scan(&t.ID, &t.TokenHash, &t.AccountKey, &t.IssuedAt, &t.ExpiresAt, &t.Used, &usedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find reset token: %w", err)
	}
	if usedAt.Valid {
		t.UsedAt = &usedAt.Time
	}
	return &t, nil
}

func (r *passwordResetRepository) DeleteAllForAccount(ctx context.Context, accountKey string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE account_key = $1`, accountKey); err != nil {
		return fmt.Errorf("delete reset tokens: %w", err)
	}
	return nil
}

func (r *passwordResetRepository) MarkUsed(ctx context.Context, rawToken string, usedAt time.Time) error {
	query := `UPDATE password_reset_tokens SET used = TRUE, used_at = $1 WHERE token_hash = $2 AND used = FALSE`
	if _, err := r.db.ExecContext(ctx, query, usedAt, HashResetToken(rawToken)); err != nil {
		return fmt.Errorf("mark reset token used: %w", err)
	}
	return nil
}

func (r *passwordResetRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired reset tokens: %w", err)
	}
	return res.RowsAffected()
}
