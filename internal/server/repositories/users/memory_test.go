package users

import (
	"context"
	"testing"

	"github.com/celar-labs/celar/internal/common"
	"github.com/celar-labs/celar/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	a, err := r.Create(ctx, &models.User{Email: "a@b.c", PasswordHash: "h1", Role: models.RolePSP})
	require.NoError(t, err)
	b, err := r.Create(ctx, &models.User{Email: "d@e.f", PasswordHash: "h2", Role: models.RoleDeveloper})
	require.NoError(t, err)
	assert.Less(t, a.ID, b.ID)

	_, err = r.Create(ctx, &models.User{Email: "a@b.c", PasswordHash: "h3", Role: models.RoleDeveloper})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	got, err := r.GetByEmail(ctx, "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, "h1", got.PasswordHash)

	got, err = r.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "d@e.f", got.Email)

	// Emails are matched exactly.
	_, err = r.GetByEmail(ctx, "A@B.C")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = r.GetByID(ctx, 999)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	_, err := r.Create(ctx, &models.User{Email: "a@b.c", PasswordHash: "h1"})
	require.NoError(t, err)

	got, err := r.GetByEmail(ctx, "a@b.c")
	require.NoError(t, err)
	got.PasswordHash = "changed"

	again, err := r.GetByEmail(ctx, "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, "h1", again.PasswordHash)
}
