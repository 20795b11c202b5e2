// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"github.com/pbruhn/accountd/internal/models"
)

// LogAction records an audit row for an account event. Callers treat
// failures as best effort.
func (r *Repository) LogAction(ctx context.Context, userID *int64, action string, ipAddress *string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO action_logs (user_id, action, ip_address) VALUES (?, ?, ?)`,
		userID, action, ipAddress)
	return err
}

// ListActionsByUser returns the audit rows for a user, newest first.
func (r *Repository) ListActionsByUser(ctx context.Context, userID int64) ([]models.ActionLog, error) {
	var logs []models.ActionLog
	err := r.db.SelectContext(ctx, &logs,
		`SELECT * FROM action_logs WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	return logs, nil
}
