package repository

import (
	"context"
	"testing"
	"time"

	"github.com/sarafbook/ledger/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferRepository_CRUD(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTransferRepository(db)
	ctx := context.Background()

	customerID := int64(10)
	created, err := repo.Create(ctx, &model.Transfer{
		OrgID:          1,
		No:             1,
		TransferAmount: mustDec(t, "1000"),
		ChargesAmount:  mustDec(t, "20"),
		BranchCharges:  mustDec(t, "5"),
		ToWhere:        7,
		CustomerID:     &customerID,
		CurrencyID:     1,
		Date:           time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	t.Run("get round trip", func(t *testing.T) {
		got, err := repo.Get(ctx, 1, created.ID)
		require.NoError(t, err)
		assert.True(t, got.TransferAmount.Equal(mustDec(t, "1000")))
		require.NotNil(t, got.CustomerID)
		assert.Equal(t, int64(10), *got.CustomerID)
		assert.Equal(t, model.LifecycleActive, got.Lifecycle())
	})

	t.Run("save replaces mutable fields", func(t *testing.T) {
		got, err := repo.Get(ctx, 1, created.ID)
		require.NoError(t, err)

		got.TransferAmount = mustDec(t, "1500")
		got.ToWhere = 8
		got.CustomerID = nil
		require.NoError(t, repo.Save(ctx, got))

		again, err := repo.Get(ctx, 1, created.ID)
		require.NoError(t, err)
		assert.True(t, again.TransferAmount.Equal(mustDec(t, "1500")))
		assert.Equal(t, int64(8), again.ToWhere)
		assert.Nil(t, again.CustomerID, "walk-in conversion must clear customer link")
	})

	t.Run("reject without reversal", func(t *testing.T) {
		require.NoError(t, repo.MarkRejected(ctx, 1, created.ID, false))

		got, err := repo.Get(ctx, 1, created.ID)
		require.NoError(t, err)
		assert.True(t, got.Rejected)
		assert.False(t, got.Reversed)
		assert.Equal(t, model.LifecycleRejected, got.Lifecycle())
	})

	t.Run("missing record", func(t *testing.T) {
		_, err := repo.Get(ctx, 1, 9999)
		assert.ErrorIs(t, err, ErrRecordNotFound)
		assert.ErrorIs(t, repo.MarkDeleted(ctx, 1, 9999), ErrRecordNotFound)
	})
}

func TestTransferRepository_SumOutForDay(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTransferRepository(db)
	ctx := context.Background()

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	mk := func(no int64, amount string, hour int) *model.Transfer {
		created, err := repo.Create(ctx, &model.Transfer{
			OrgID:          1,
			No:             no,
			TransferAmount: mustDec(t, amount),
			ToWhere:        7,
			CurrencyID:     1,
			Date:           day.Add(time.Duration(hour) * time.Hour),
		})
		require.NoError(t, err)
		return created
	}

	mk(1, "200", 9)
	rejected := mk(2, "300", 10)
	reversed := mk(3, "400", 11)
	deleted := mk(4, "500", 12)

	// Rejected without reversal still counts: the cash left the till.
	require.NoError(t, repo.MarkRejected(ctx, 1, rejected.ID, false))
	require.NoError(t, repo.MarkRejected(ctx, 1, reversed.ID, true))
	require.NoError(t, repo.MarkDeleted(ctx, 1, deleted.ID))

	total, err := repo.SumOutForDay(ctx, 1, 1, day)
	require.NoError(t, err)
	assert.True(t, total.Equal(mustDec(t, "500")), "got %s", total)
}
