// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pbruhn/accountd/internal/database"
	"github.com/pbruhn/accountd/internal/models"
	"github.com/pbruhn/accountd/internal/repository"
	"github.com/pbruhn/accountd/internal/services/password"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
)

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	repo := repository.New(db)
	return db, repo
}

// NewTestUser creates a test user with the given email and plaintext
// password.
func NewTestUser(t *testing.T, repo *repository.Repository, email, plaintext string) *models.User {
	t.Helper()
	ctx := context.Background()

	hash, err := password.NewHasher().Hash(plaintext)
	require.NoError(t, err)

	user := &models.User{
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		Phone:        "+4915112345678",
		PasswordHash: hash,
	}
	require.NoError(t, repo.CreateUser(ctx, user))
	return user
}

// CapturingSender records outgoing mail instead of sending it.
type CapturingSender struct {
	mu       sync.Mutex
	Messages []CapturedMessage
	Err      error
}

// CapturedMessage is one recorded email.
type CapturedMessage struct {
	To      string
	Subject string
	Body    string
}

// Send records the message and returns the configured error, if any.
func (s *CapturingSender) Send(_ context.Context, to, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Messages = append(s.Messages, CapturedMessage{To: to, Subject: subject, Body: body})
	return nil
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// JSONBody wraps a JSON literal for request bodies.
func JSONBody(s string) io.Reader {
	return strings.NewReader(s)
}
