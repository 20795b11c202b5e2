// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pbruhn/accountd/internal/models"
)

// CreateResetToken stores a new password reset token. The code is stored
// uppercase so lookups can match case-insensitively.
func (r *Repository) CreateResetToken(ctx context.Context, userID int64, token string, expiresAt time.Time) (*models.PasswordResetToken, error) {
	record := &models.PasswordResetToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     strings.ToUpper(strings.TrimSpace(token)),
		ExpiresAt: expiresAt,
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO password_reset_tokens (id, user_id, token, expires_at, is_used)
		 VALUES (?, ?, ?, ?, 0)`,
		record.ID, record.UserID, record.Token, record.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// GetResetToken retrieves a reset token by its code, matching
// case-insensitively. Expiry and used status are checked by the caller.
func (r *Repository) GetResetToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	var record models.PasswordResetToken
	err := r.db.GetContext(ctx, &record,
		`SELECT * FROM password_reset_tokens WHERE UPPER(token) = ?`,
		strings.ToUpper(strings.TrimSpace(token)))
	if err != nil {
		return nil, wrapError(err)
	}
	return &record, nil
}

// MarkTokenUsed marks a reset token as consumed.
func (r *Repository) MarkTokenUsed(ctx context.Context, tokenID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE password_reset_tokens SET is_used = 1 WHERE id = ?`, tokenID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpiredResetTokens deletes tokens past their expiry. Expiry is
// otherwise evaluated lazily at validation time; this is housekeeping only.
func (r *Repository) DeleteExpiredResetTokens(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM password_reset_tokens WHERE expires_at < ?`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
