// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"

	"github.com/pbruhn/accountd/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogAction(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, repo, "user@example.com", "valid-password")

	ip := "127.0.0.1"
	require.NoError(t, repo.LogAction(ctx, &user.ID, "login_success", &ip))
	require.NoError(t, repo.LogAction(ctx, &user.ID, "password_reset", nil))
	require.NoError(t, repo.LogAction(ctx, nil, "login_failed", &ip))

	logs, err := repo.ListActionsByUser(ctx, user.ID)

	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "password_reset", logs[0].Action)
	assert.Equal(t, "login_success", logs[1].Action)
}
