package transactions

import (
	"context"
	"testing"

	"github.com/celar-labs/celar/internal/common"
	"github.com/celar-labs/celar/internal/server/models"
	"github.com/celar-labs/celar/internal/server/repositories/users"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_OrderAndIsolation(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository(nil)

	for i, rcpt := range []string{"a", "b", "c"} {
		_, err := r.Create(ctx, &models.Transaction{UserID: 1, Recipient: rcpt, Amount: decimal.NewFromInt(int64(i + 1)), Currency: "USD"})
		require.NoError(t, err)
	}
	other, err := r.Create(ctx, &models.Transaction{UserID: 2, Recipient: "z", Amount: decimal.NewFromInt(9), Currency: "EUR"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), other.ID)

	got, err := r.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, rcpt := range []string{"a", "b", "c"} {
		assert.Equal(t, rcpt, got[i].Recipient)
	}

	none, err := r.ListByUser(ctx, 42)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestMemoryRepository_UnknownOwner(t *testing.T) {
	ctx := context.Background()
	u := users.NewMemoryRepository()
	r := NewMemoryRepository(u)

	_, err := r.Create(ctx, &models.Transaction{UserID: 7, Recipient: "a", Amount: decimal.NewFromInt(1), Currency: "USD"})
	require.ErrorIs(t, err, common.ErrorNotFound)

	owner, err := u.Create(ctx, &models.User{Email: "a@b.c", PasswordHash: "h", Role: models.RolePSP})
	require.NoError(t, err)
	_, err = r.Create(ctx, &models.Transaction{UserID: owner.ID, Recipient: "a", Amount: decimal.NewFromInt(1), Currency: "USD"})
	require.NoError(t, err)

	got, err := r.ListByUser(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, got)
}
