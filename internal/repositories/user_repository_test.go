package repositories_test

import (
	"context"
	"testing"

	"catalog/internal/database"
	"catalog/internal/models"
	"catalog/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGORMUserRepository(t *testing.T) {
	db, err := database.OpenTest()
	require.NoError(t, err)
	repo := repositories.NewGORMUserRepository(db)
	ctx := context.Background()

	user := &models.User{Username: "alice", Email: "alice@example.com", Password: "hash", Role: models.RoleAdmin}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotEmpty(t, user.ID)

	byName, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)
	assert.True(t, byName.IsAdmin())

	byEmail, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repositories.ErrUserNotFound)

	dup := &models.User{Username: "alice", Email: "other@example.com", Password: "hash"}
	assert.ErrorIs(t, repo.Create(ctx, dup), repositories.ErrDuplicateUser)
}
