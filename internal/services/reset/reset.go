// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package reset implements the password-reset token lifecycle: short-lived
// single-use codes created here, delivered by mail, validated and consumed
// when the user sets a new password.
package reset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pbruhn/accountd/internal/models"
	"github.com/pbruhn/accountd/internal/repository"
	"github.com/pbruhn/accountd/internal/services/email"
	"github.com/pbruhn/accountd/internal/services/password"
)

// TokenExpiry is how long a reset code stays valid.
const TokenExpiry = 5 * time.Minute

var (
	ErrTokenNotFound    = errors.New("reset token not found")
	ErrTokenExpired     = errors.New("reset token has expired")
	ErrTokenUsed        = errors.New("reset token already used")
	ErrPasswordTooShort = errors.New("password is too short")
)

// Store is the subset of the repository the service needs.
type Store interface {
	GetUserByEmail(ctx context.Context, emailAddr string) (*models.User, error)
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error
	CreateResetToken(ctx context.Context, userID int64, token string, expiresAt time.Time) (*models.PasswordResetToken, error)
	GetResetToken(ctx context.Context, token string) (*models.PasswordResetToken, error)
	MarkTokenUsed(ctx context.Context, tokenID string) error
}

// Service handles reset token operations.
type Service struct {
	store  Store
	hasher *password.Hasher
	mailer email.Sender
	now    func() time.Time
}

// NewService creates a new Service.
func NewService(store Store, hasher *password.Hasher, mailer email.Sender) *Service {
	return &Service{
		store:  store,
		hasher: hasher,
		mailer: mailer,
		now:    time.Now,
	}
}

// CreateToken generates a reset code for the user, stores it with a
// five-minute expiry, and returns the plaintext code.
func (s *Service) CreateToken(ctx context.Context, userID int64) (string, error) {
	code, err := GenerateCode(CodeLength)
	if err != nil {
		return "", err
	}

	expiresAt := s.now().Add(TokenExpiry)
	record, err := s.store.CreateResetToken(ctx, userID, code, expiresAt)
	if err != nil {
		return "", fmt.Errorf("failed to create reset token: %w", err)
	}

	slog.Info("reset_token_created", "token_id", record.ID, "user_id", userID)
	return record.Token, nil
}

// lookupToken fetches a token and checks its usability.
func (s *Service) lookupToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	record, err := s.store.GetResetToken(ctx, strings.ToUpper(strings.TrimSpace(token)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to look up reset token: %w", err)
	}

	if record.IsUsed {
		return nil, ErrTokenUsed
	}
	if record.ExpiresAt.Before(s.now()) {
		return nil, ErrTokenExpired
	}

	return record, nil
}

// ValidateToken reports whether the code matches a fresh, unused, unexpired
// token. Matching is case-insensitive. It fails closed and has no side
// effects; the token is not consumed.
func (s *Service) ValidateToken(ctx context.Context, token string) bool {
	_, err := s.lookupToken(ctx, token)
	if err != nil {
		slog.Info("reset_token_rejected", "reason", err.Error())
		return false
	}
	return true
}

// ConsumeToken marks a token as used. Call only after the password write
// has committed.
func (s *Service) ConsumeToken(ctx context.Context, tokenID string) error {
	if err := s.store.MarkTokenUsed(ctx, tokenID); err != nil {
		return fmt.Errorf("failed to mark token used: %w", err)
	}
	return nil
}

// ResetPassword replaces the user's password hash.
func (s *Service) ResetPassword(ctx context.Context, userID int64, newPlaintext string) error {
	if len(newPlaintext) < 8 {
		return ErrPasswordTooShort
	}

	hash, err := s.hasher.Hash(newPlaintext)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.store.UpdateUserPassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("password_reset", "user_id", userID)
	return nil
}

// CompleteReset runs the tail of the reset protocol: validate the token,
// write the new password, then consume the token. The password write always
// precedes consumption, so a persistence failure leaves the token valid and
// the reset retryable.
func (s *Service) CompleteReset(ctx context.Context, token, newPlaintext string) error {
	record, err := s.lookupToken(ctx, token)
	if err != nil {
		return err
	}

	if err := s.ResetPassword(ctx, record.UserID, newPlaintext); err != nil {
		return err
	}

	if err := s.ConsumeToken(ctx, record.ID); err != nil {
		return err
	}

	return nil
}

// RequestReset creates a token for the account with the given email and
// mails the code. Unknown addresses are reported as success to prevent
// account enumeration.
func (s *Service) RequestReset(ctx context.Context, emailAddr string) error {
	user, err := s.store.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			slog.Info("reset_requested_unknown_email", "email", emailAddr)
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	token, err := s.CreateToken(ctx, user.ID)
	if err != nil {
		return err
	}

	return s.SendResetEmail(ctx, user.Email, user.FirstName, token)
}

// SendResetEmail mails the plaintext reset code to the user.
func (s *Service) SendResetEmail(ctx context.Context, to, firstName, token string) error {
	subject := "Password Reset Request"
	body := fmt.Sprintf(
		"Hello %s,\n\n"+
			"Use the following code to reset your password:\n\n"+
			"%s\n\n"+
			"This code expires in %d minutes.\n\n"+
			"If you did not request this, please ignore this email.",
		firstName, token, int(TokenExpiry.Minutes()))

	if err := s.mailer.Send(ctx, to, subject, body); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}

	slog.Info("reset_email_sent", "email", to)
	return nil
}
