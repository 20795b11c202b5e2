// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package reset_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pbruhn/accountd/internal/repository"
	"github.com/pbruhn/accountd/internal/services/password"
	"github.com/pbruhn/accountd/internal/services/reset"
	"github.com/pbruhn/accountd/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*reset.Service, *repository.Repository, *testutil.CapturingSender) {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	mailer := &testutil.CapturingSender{}
	svc := reset.NewService(repo, password.NewHasher(), mailer)
	return svc, repo, mailer
}

func TestCreateToken(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, repo, "user@example.com", "old-password")

	token, err := svc.CreateToken(ctx, user.ID)

	require.NoError(t, err)
	assert.Len(t, token, reset.CodeLength)
	assert.Equal(t, strings.ToUpper(token), token)
}

func TestValidateToken_CaseInsensitive(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, repo, "user@example.com", "old-password")

	token, err := svc.CreateToken(ctx, user.ID)
	require.NoError(t, err)

	assert.True(t, svc.ValidateToken(ctx, token))
	assert.True(t, svc.ValidateToken(ctx, strings.ToLower(token)))
	assert.True(t, svc.ValidateToken(ctx, "  "+token+"  "))
}

func TestValidateToken_Unknown(t *testing.T) {
	svc, _, _ := newTestService(t)

	assert.False(t, svc.ValidateToken(context.Background(), "NOSUCH"))
	assert.False(t, svc.ValidateToken(context.Background(), ""))
}

func TestValidateToken_Expired(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, repo, "user@example.com", "old-password")

	record, err := repo.CreateResetToken(ctx, user.ID, "ABC123", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	assert.False(t, svc.ValidateToken(ctx, record.Token))
}

func TestValidateToken_Used(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, repo, "user@example.com", "old-password")

	token, err := svc.CreateToken(ctx, user.ID)
	require.NoError(t, err)

	record, err := repo.GetResetToken(ctx, token)
	require.NoError(t, err)
	require.NoError(t, svc.ConsumeToken(ctx, record.ID))

	assert.False(t, svc.ValidateToken(ctx, token))
}

func TestValidateToken_HasNoSideEffects(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, repo, "user@example.com", "old-password")

	token, err := svc.CreateToken(ctx, user.ID)
	require.NoError(t, err)

	for range 3 {
		assert.True(t, svc.ValidateToken(ctx, token))
	}

	record, err := repo.GetResetToken(ctx, token)
	require.NoError(t, err)
	assert.False(t, record.IsUsed)
}

func TestResetPassword(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	hasher := password.NewHasher()
	user := testutil.NewTestUser(t, repo, "user@example.com", "old-password")

	err := svc.ResetPassword(ctx, user.ID, "new-password")

	require.NoError(t, err)
	updated, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, hasher.Verify(updated.PasswordHash, "new-password"))
	assert.False(t, hasher.Verify(updated.PasswordHash, "old-password"))
}

func TestResetPassword_TooShort(t *testing.T) {
	svc, repo, _ := newTestService(t)
	user := testutil.NewTestUser(t, repo, "user@example.com", "old-password")

	err := svc.ResetPassword(context.Background(), user.ID, "short")

	assert.ErrorIs(t, err, reset.ErrPasswordTooShort)
}

func TestCompleteReset_EndToEnd(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	hasher := password.NewHasher()
	user := testutil.NewTestUser(t, repo, "user@example.com", "old-password")

	token, err := svc.CreateToken(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, svc.ValidateToken(ctx, strings.ToLower(token)))

	err = svc.CompleteReset(ctx, strings.ToLower(token), "brand-new-password")
	require.NoError(t, err)

	updated, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, hasher.Verify(updated.PasswordHash, "brand-new-password"))

	// The token is single-use
	assert.False(t, svc.ValidateToken(ctx, token))
	assert.ErrorIs(t, svc.CompleteReset(ctx, token, "another-password"), reset.ErrTokenUsed)
}

func TestCompleteReset_FailedPasswordWriteLeavesTokenUsable(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, repo, "user@example.com", "old-password")

	token, err := svc.CreateToken(ctx, user.ID)
	require.NoError(t, err)

	// A rejected password must not consume the token
	err = svc.CompleteReset(ctx, token, "short")
	assert.ErrorIs(t, err, reset.ErrPasswordTooShort)

	assert.True(t, svc.ValidateToken(ctx, token), "token stays valid for retry")
}

func TestRequestReset_SendsMail(t *testing.T) {
	svc, repo, mailer := newTestService(t)
	ctx := context.Background()
	testutil.NewTestUser(t, repo, "user@example.com", "old-password")

	err := svc.RequestReset(ctx, "User@Example.com")

	require.NoError(t, err)
	require.Len(t, mailer.Messages, 1)
	msg := mailer.Messages[0]
	assert.Equal(t, "user@example.com", msg.To)
	assert.Equal(t, "Password Reset Request", msg.Subject)
	assert.Contains(t, msg.Body, "expires in 5 minutes")

	assert.Contains(t, msg.Body, lastToken(t, ctx, repo))
}

func TestRequestReset_UnknownEmailIsSilent(t *testing.T) {
	svc, _, mailer := newTestService(t)

	err := svc.RequestReset(context.Background(), "nobody@example.com")

	require.NoError(t, err)
	assert.Empty(t, mailer.Messages)
}

func lastToken(t *testing.T, ctx context.Context, repo *repository.Repository) string {
	t.Helper()
	var token string
	err := repo.DB().GetContext(ctx, &token,
		`SELECT token FROM password_reset_tokens ORDER BY rowid DESC LIMIT 1`)
	require.NoError(t, err)
	return token
}
