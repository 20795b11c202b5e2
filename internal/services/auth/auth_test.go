// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth_test

import (
	"context"
	"testing"

	"github.com/pbruhn/accountd/internal/models"
	"github.com/pbruhn/accountd/internal/repository"
	"github.com/pbruhn/accountd/internal/services/auth"
	"github.com/pbruhn/accountd/internal/services/password"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStore counts calls so tests can assert the store was never touched.
type mockStore struct {
	users map[string]*models.User
	calls int
}

func newMockStore() *mockStore {
	return &mockStore{users: make(map[string]*models.User)}
}

func (m *mockStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.calls++
	user, ok := m.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (m *mockStore) UserExists(_ context.Context, email string) (bool, error) {
	m.calls++
	_, ok := m.users[email]
	return ok, nil
}

func (m *mockStore) CreateUser(_ context.Context, user *models.User) error {
	m.calls++
	user.ID = int64(len(m.users) + 1)
	m.users[user.Email] = user
	return nil
}

func newTestService(t *testing.T) (*auth.Service, *mockStore) {
	t.Helper()
	store := newMockStore()
	return auth.NewService(store, password.NewHasher()), store
}

func seedUser(t *testing.T, store *mockStore, email, plaintext string) *models.User {
	t.Helper()
	hash, err := password.NewHasher().Hash(plaintext)
	require.NoError(t, err)
	user := &models.User{ID: 1, Email: email, PasswordHash: hash}
	store.users[email] = user
	return user
}

func TestAuthenticate_Success(t *testing.T) {
	svc, store := newTestService(t)
	seedUser(t, store, "user@example.com", "valid-password")

	user, err := svc.Authenticate(context.Background(), "user@example.com", "valid-password")

	require.NoError(t, err)
	assert.Equal(t, "user@example.com", user.Email)
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	svc, store := newTestService(t)
	seedUser(t, store, "user@example.com", "valid-password")

	_, err := svc.Authenticate(context.Background(), "user@example.com", "wrong-password")

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuthenticate_UnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Authenticate(context.Background(), "nobody@example.com", "whatever-password")

	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestAuthenticate_InvalidInputSkipsStore(t *testing.T) {
	svc, store := newTestService(t)

	_, err := svc.Authenticate(context.Background(), "user@example.com", "short")

	assert.ErrorIs(t, err, auth.ErrInvalidInput)
	assert.Zero(t, store.calls, "validation failures must not touch the store")
}

func TestAuthenticate_DelayIsInvoked(t *testing.T) {
	store := newMockStore()
	seedUser(t, store, "user@example.com", "valid-password")

	delayed := false
	svc := auth.NewService(store, password.NewHasher(), auth.WithDelay(func(context.Context) {
		delayed = true
	}))

	_, err := svc.Authenticate(context.Background(), "user@example.com", "valid-password")

	require.NoError(t, err)
	assert.True(t, delayed)
}

func TestValidateLoginInput(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantErr  bool
	}{
		{"valid", "user@example.com", "longenough", false},
		{"empty email", "", "longenough", true},
		{"empty password", "user@example.com", "", true},
		{"missing at sign", "userexample.com", "longenough", true},
		{"missing dot", "user@examplecom", "longenough", true},
		{"short password", "user@example.com", "seven77", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidateLoginInput(tt.email, tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, auth.ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegister_Success(t *testing.T) {
	svc, store := newTestService(t)

	user, err := svc.Register(context.Background(), auth.RegisterParams{
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Email:           "Ada@Example.com",
		Phone:           "+4915112345678",
		Password:        "valid-password",
		PasswordConfirm: "valid-password",
	})

	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email, "email is lowercased")
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "valid-password", user.PasswordHash)
	assert.Len(t, store.users, 1)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, store := newTestService(t)
	seedUser(t, store, "ada@example.com", "valid-password")

	_, err := svc.Register(context.Background(), auth.RegisterParams{
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Email:           "ada@example.com",
		Phone:           "+4915112345678",
		Password:        "valid-password",
		PasswordConfirm: "valid-password",
	})

	assert.ErrorIs(t, err, auth.ErrUserExists)
}

func TestValidateRegisterInput(t *testing.T) {
	valid := auth.RegisterParams{
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Email:           "ada@example.com",
		Phone:           "+4915112345678",
		Password:        "valid-password",
		PasswordConfirm: "valid-password",
	}

	assert.NoError(t, auth.ValidateRegisterInput(valid))

	tests := []struct {
		name   string
		mutate func(*auth.RegisterParams)
	}{
		{"missing first name", func(p *auth.RegisterParams) { p.FirstName = "" }},
		{"missing last name", func(p *auth.RegisterParams) { p.LastName = "" }},
		{"bad email", func(p *auth.RegisterParams) { p.Email = "not-an-email" }},
		{"bad phone", func(p *auth.RegisterParams) { p.Phone = "call me" }},
		{"phone too short", func(p *auth.RegisterParams) { p.Phone = "123456" }},
		{"short password", func(p *auth.RegisterParams) { p.Password = "short"; p.PasswordConfirm = "short" }},
		{"mismatched confirmation", func(p *auth.RegisterParams) { p.PasswordConfirm = "other-password" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := valid
			tt.mutate(&params)
			assert.ErrorIs(t, auth.ValidateRegisterInput(params), auth.ErrInvalidInput)
		})
	}
}
