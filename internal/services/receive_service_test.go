package services

import (
	"context"
	"testing"

	"github.com/sarafbook/ledger/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type receiveFixture struct {
	svc       *ReceiveService
	repo      *memReceives
	transfers *memTransfers
	accounts  *memAccounts
	events    *captureEvents
}

func newReceiveFixture() *receiveFixture {
	owners := newMemOwners(
		&model.Customer{ID: 10, OrgID: 1, Name: "Ahmad Karimi"},
		&model.Customer{ID: 7, OrgID: 1, Name: "Herat Branch", IsBranch: true},
		&model.Customer{ID: 9, OrgID: 1, Name: "Mazar Branch", IsBranch: true},
	)
	repo := newMemReceives()
	transfers := newMemTransfers()
	accounts := newMemAccounts()
	events := &captureEvents{}
	svc := NewReceiveService(passTx{}, repo, transfers, accounts, newMemSeq(), newMemIdentities(), owners, events)
	return &receiveFixture{svc: svc, repo: repo, transfers: transfers, accounts: accounts, events: events}
}

var (
	originKey   = model.AccountKey{OwnerID: 7, CurrencyID: 1}
	relayKey    = model.AccountKey{OwnerID: 9, CurrencyID: 1}
	customerKey = model.AccountKey{OwnerID: 10, CurrencyID: 1}
)

func TestReceiveService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("direct payout debits the origin branch only", func(t *testing.T) {
		f := newReceiveFixture()

		rec, err := f.svc.Create(ctx, model.ReceiveCreateRequest{
			OrgID:         1,
			ReceiveAmount: dec(t, "500"),
			ChargesAmount: dec(t, "10"),
			FromWhere:     7,
			CurrencyID:    1,
		})
		require.NoError(t, err)
		assert.Equal(t, model.ShapeDirectPayout, rec.Shape())
		assert.Equal(t, int64(1), rec.ReceiveNo)
		assert.Nil(t, rec.PassNo)

		assert.True(t, f.accounts.balance(originKey).Equal(dec(t, "-510")))
		assert.Len(t, f.accounts.balances, 1)
	})

	t.Run("branch relay mirrors a linked transfer", func(t *testing.T) {
		f := newReceiveFixture()
		passTo := int64(9)

		rec, err := f.svc.Create(ctx, model.ReceiveCreateRequest{
			OrgID:         1,
			ReceiveAmount: dec(t, "500"),
			ChargesAmount: dec(t, "10"),
			BranchCharges: dec(t, "4"),
			FromWhere:     7,
			PassTo:        &passTo,
			CurrencyID:    1,
		})
		require.NoError(t, err)
		assert.Equal(t, model.ShapeBranchRelay, rec.Shape())
		require.NotNil(t, rec.PassNo)

		linked, err := f.transfers.GetByNo(ctx, 1, *rec.PassNo)
		require.NoError(t, err)
		assert.True(t, linked.TransferAmount.Equal(dec(t, "500")))
		assert.True(t, linked.BranchCharges.Equal(dec(t, "4")))
		assert.Equal(t, int64(9), linked.ToWhere)
		assert.Nil(t, linked.CustomerID)

		assert.True(t, f.accounts.balance(originKey).Equal(dec(t, "-514")))
		assert.True(t, f.accounts.balance(relayKey).Equal(dec(t, "504")))

		// The two legs net to the origin charges withheld along the way.
		net := f.accounts.balance(originKey).Add(f.accounts.balance(relayKey))
		assert.True(t, net.Equal(dec(t, "-10")), "net %s", net)
	})

	t.Run("customer payout credits the customer account", func(t *testing.T) {
		f := newReceiveFixture()
		customerID := int64(10)

		rec, err := f.svc.Create(ctx, model.ReceiveCreateRequest{
			OrgID:         1,
			ReceiveAmount: dec(t, "500"),
			ChargesAmount: dec(t, "10"),
			FromWhere:     7,
			CustomerID:    &customerID,
			CurrencyID:    1,
		})
		require.NoError(t, err)
		assert.Equal(t, model.ShapeCustomerPayout, rec.Shape())

		assert.True(t, f.accounts.balance(originKey).Equal(dec(t, "-510")))
		assert.True(t, f.accounts.balance(customerKey).Equal(dec(t, "500")))

		require.Len(t, f.events.events, 1)
		assert.Equal(t, "receive", f.events.events[0].Kind)
	})

	t.Run("both destinations rejected", func(t *testing.T) {
		f := newReceiveFixture()
		passTo, customerID := int64(9), int64(10)

		_, err := f.svc.Create(ctx, model.ReceiveCreateRequest{
			OrgID:         1,
			ReceiveAmount: dec(t, "500"),
			FromWhere:     7,
			PassTo:        &passTo,
			CustomerID:    &customerID,
			CurrencyID:    1,
		})
		assert.ErrorIs(t, err, model.ErrConflictingDestination)
	})

	t.Run("receive numbers restart per origin branch", func(t *testing.T) {
		f := newReceiveFixture()

		first, err := f.svc.Create(ctx, model.ReceiveCreateRequest{
			OrgID: 1, ReceiveAmount: dec(t, "100"), FromWhere: 7, CurrencyID: 1,
		})
		require.NoError(t, err)
		other, err := f.svc.Create(ctx, model.ReceiveCreateRequest{
			OrgID: 1, ReceiveAmount: dec(t, "100"), FromWhere: 9, CurrencyID: 1,
		})
		require.NoError(t, err)
		second, err := f.svc.Create(ctx, model.ReceiveCreateRequest{
			OrgID: 1, ReceiveAmount: dec(t, "100"), FromWhere: 7, CurrencyID: 1,
		})
		require.NoError(t, err)

		assert.Equal(t, int64(1), first.ReceiveNo)
		assert.Equal(t, int64(1), other.ReceiveNo)
		assert.Equal(t, int64(2), second.ReceiveNo)
	})
}

func TestReceiveService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("relay to customer payout drops the linked transfer", func(t *testing.T) {
		f := newReceiveFixture()
		passTo := int64(9)

		rec, err := f.svc.Create(ctx, model.ReceiveCreateRequest{
			OrgID:         1,
			ReceiveAmount: dec(t, "500"),
			ChargesAmount: dec(t, "10"),
			BranchCharges: dec(t, "4"),
			FromWhere:     7,
			PassTo:        &passTo,
			CurrencyID:    1,
		})
		require.NoError(t, err)
		oldPassNo := *rec.PassNo

		customerID := int64(10)
		updated, err := f.svc.Update(ctx, 1, rec.ID, model.ReceiveCreateRequest{
			OrgID:         1,
			ReceiveAmount: dec(t, "500"),
			ChargesAmount: dec(t, "10"),
			FromWhere:     7,
			CustomerID:    &customerID,
			CurrencyID:    1,
		})
		require.NoError(t, err)
		assert.Equal(t, model.ShapeCustomerPayout, updated.Shape())
		assert.Nil(t, updated.PassNo)

		linked, err := f.transfers.GetByNo(ctx, 1, oldPassNo)
		require.NoError(t, err)
		assert.True(t, linked.Deleted, "stale relay transfer must be dropped")

		assert.True(t, f.accounts.balance(originKey).Equal(dec(t, "-510")))
		assert.True(t, f.accounts.balance(relayKey).IsZero())
		assert.True(t, f.accounts.balance(customerKey).Equal(dec(t, "500")))
	})

	t.Run("direct payout to relay creates a linked transfer", func(t *testing.T) {
		f := newReceiveFixture()

		rec, err := f.svc.Create(ctx, model.ReceiveCreateRequest{
			OrgID: 1, ReceiveAmount: dec(t, "500"), ChargesAmount: dec(t, "10"),
			FromWhere: 7, CurrencyID: 1,
		})
		require.NoError(t, err)

		passTo := int64(9)
		updated, err := f.svc.Update(ctx, 1, rec.ID, model.ReceiveCreateRequest{
			OrgID: 1, ReceiveAmount: dec(t, "500"), ChargesAmount: dec(t, "10"),
			BranchCharges: dec(t, "4"), FromWhere: 7, PassTo: &passTo, CurrencyID: 1,
		})
		require.NoError(t, err)
		require.NotNil(t, updated.PassNo)

		linked, err := f.transfers.GetByNo(ctx, 1, *updated.PassNo)
		require.NoError(t, err)
		assert.False(t, linked.Deleted)

		assert.True(t, f.accounts.balance(originKey).Equal(dec(t, "-514")))
		assert.True(t, f.accounts.balance(relayKey).Equal(dec(t, "504")))
	})
}

func TestReceiveService_Delete(t *testing.T) {
	ctx := context.Background()
	f := newReceiveFixture()
	passTo := int64(9)

	rec, err := f.svc.Create(ctx, model.ReceiveCreateRequest{
		OrgID:         1,
		ReceiveAmount: dec(t, "500"),
		ChargesAmount: dec(t, "10"),
		BranchCharges: dec(t, "4"),
		FromWhere:     7,
		PassTo:        &passTo,
		CurrencyID:    1,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, 1, rec.ID))

	assert.True(t, f.accounts.balance(originKey).IsZero())
	assert.True(t, f.accounts.balance(relayKey).IsZero())

	linked, err := f.transfers.GetByNo(ctx, 1, *rec.PassNo)
	require.NoError(t, err)
	assert.True(t, linked.Deleted, "cascade soft-delete to the relay transfer")

	assert.ErrorIs(t, f.svc.Delete(ctx, 1, rec.ID), ErrAlreadyDeleted)
}

func TestReceiveService_Reject(t *testing.T) {
	ctx := context.Background()

	t.Run("reject with reversal undoes both legs and cascades", func(t *testing.T) {
		f := newReceiveFixture()
		passTo := int64(9)

		rec, err := f.svc.Create(ctx, model.ReceiveCreateRequest{
			OrgID: 1, ReceiveAmount: dec(t, "500"), ChargesAmount: dec(t, "10"),
			BranchCharges: dec(t, "4"), FromWhere: 7, PassTo: &passTo, CurrencyID: 1,
		})
		require.NoError(t, err)

		require.NoError(t, f.svc.Reject(ctx, 1, rec.ID, true))

		assert.True(t, f.accounts.balance(originKey).IsZero())
		assert.True(t, f.accounts.balance(relayKey).IsZero())

		got, err := f.svc.Get(ctx, 1, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, model.LifecycleRejectedReversed, got.Lifecycle())

		linked, err := f.transfers.GetByNo(ctx, 1, *rec.PassNo)
		require.NoError(t, err)
		assert.True(t, linked.Rejected)
	})

	t.Run("reject without reversal keeps the money", func(t *testing.T) {
		f := newReceiveFixture()

		rec, err := f.svc.Create(ctx, model.ReceiveCreateRequest{
			OrgID: 1, ReceiveAmount: dec(t, "500"), ChargesAmount: dec(t, "10"),
			FromWhere: 7, CurrencyID: 1,
		})
		require.NoError(t, err)

		require.NoError(t, f.svc.Reject(ctx, 1, rec.ID, false))
		assert.True(t, f.accounts.balance(originKey).Equal(dec(t, "-510")))

		assert.ErrorIs(t, f.svc.Reject(ctx, 1, rec.ID, true), ErrAlreadyRejected)
	})
}

func TestReceiveService_UpdateIdentity(t *testing.T) {
	ctx := context.Background()
	f := newReceiveFixture()

	rec, err := f.svc.Create(ctx, model.ReceiveCreateRequest{
		OrgID: 1, ReceiveAmount: dec(t, "500"), FromWhere: 7, CurrencyID: 1,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.UpdateIdentity(ctx, 1, rec.ID, "Zahra Noori", "0700333444", "", ""))

	got, err := f.svc.Get(ctx, 1, rec.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.SenderID)
	assert.Nil(t, got.ReceiverID)
	assert.True(t, f.accounts.balance(originKey).Equal(dec(t, "-500")), "identity updates move no money")
}
