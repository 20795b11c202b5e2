// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth authenticates credentials and registers accounts. It is
// stateless; lockout bookkeeping lives in the lockout package and is driven
// by the caller.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/pbruhn/accountd/internal/models"
	"github.com/pbruhn/accountd/internal/repository"
	"github.com/pbruhn/accountd/internal/services/password"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
)

var (
	emailPattern = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)
	phonePattern = regexp.MustCompile(`^\+?\d{7,15}$`)
)

// UserStore is the subset of the repository the service needs.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UserExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, user *models.User) error
}

// DelayFunc is an optional artificial delay applied before a login attempt
// completes. It exists for UI responsiveness testing only.
type DelayFunc func(ctx context.Context)

// Service provides authentication operations.
type Service struct {
	store  UserStore
	hasher *password.Hasher
	delay  DelayFunc
}

// Option configures a Service.
type Option func(*Service)

// WithDelay installs an artificial login delay. The default is none.
func WithDelay(delay DelayFunc) Option {
	return func(s *Service) {
		s.delay = delay
	}
}

// NewService creates a new Service.
func NewService(store UserStore, hasher *password.Hasher, opts ...Option) *Service {
	s := &Service{
		store:  store,
		hasher: hasher,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateLoginInput checks the shape of login input before any store
// access. Returns ErrInvalidInput with a human-readable message.
func ValidateLoginInput(email, plaintext string) error {
	if email == "" || plaintext == "" {
		return fmt.Errorf("%w: please enter both email and password", ErrInvalidInput)
	}
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return fmt.Errorf("%w: please enter a valid email address", ErrInvalidInput)
	}
	if len(plaintext) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	return nil
}

// Authenticate verifies credentials against the store. Input validation
// happens first and fails without touching the store. The caller is
// responsible for lockout bookkeeping around this call: RecordFailure on
// ErrUserNotFound/ErrInvalidCredentials, RecordSuccess otherwise.
func (s *Service) Authenticate(ctx context.Context, email, plaintext string) (*models.User, error) {
	if err := ValidateLoginInput(email, plaintext); err != nil {
		return nil, err
	}

	if s.delay != nil {
		s.delay(ctx)
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			slog.Warn("login_failed", "email", email, "reason", "user_not_found")
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Verify(user.PasswordHash, plaintext) {
		slog.Warn("login_failed", "email", email, "reason", "invalid_password")
		return nil, ErrInvalidCredentials
	}

	slog.Info("login_success", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// RegisterParams holds the parameters for user registration.
type RegisterParams struct {
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	Password        string
	PasswordConfirm string
}

// ValidateRegisterInput checks signup input shape.
func ValidateRegisterInput(p RegisterParams) error {
	if p.FirstName == "" || p.LastName == "" {
		return fmt.Errorf("%w: please enter your full name", ErrInvalidInput)
	}
	if !emailPattern.MatchString(p.Email) {
		return fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}
	if !phonePattern.MatchString(p.Phone) {
		return fmt.Errorf("%w: invalid phone number", ErrInvalidInput)
	}
	if len(p.Password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	if p.Password != p.PasswordConfirm {
		return fmt.Errorf("%w: passwords do not match", ErrInvalidInput)
	}
	return nil
}

// Register creates a new user account.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	if err := ValidateRegisterInput(params); err != nil {
		return nil, err
	}

	exists, err := s.store.UserExists(ctx, params.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Email:        strings.ToLower(strings.TrimSpace(params.Email)),
		Phone:        params.Phone,
		PasswordHash: passwordHash,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("register_success", "user_id", user.ID, "email", user.Email)

	return user, nil
}
