package services

import (
	"context"
	"testing"

	"github.com/sarafbook/ledger/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExchangeFixture() (*ExchangeService, *memExchanges, *memAccounts) {
	repo := newMemExchanges()
	accounts := newMemAccounts()
	svc := NewExchangeService(passTx{}, repo, accounts, newMemSeq())
	return svc, repo, accounts
}

func TestExchangeService_Create(t *testing.T) {
	ctx := context.Background()

	saleKey := model.AccountKey{OwnerID: 10, CurrencyID: 1}
	purchaseKey := model.AccountKey{OwnerID: 10, CurrencyID: 2}

	t.Run("calculate derives the purchase side from the rate", func(t *testing.T) {
		svc, repo, accounts := newExchangeFixture()

		x, err := svc.Create(ctx, model.ExchangeCreateRequest{
			OrgID:              1,
			CustomerID:         10,
			SaleCurrencyID:     1,
			PurchaseCurrencyID: 2,
			SaleAmount:         dec(t, "100"),
			Rate:               dec(t, "70"),
			Calculate:          true,
			EmployeeID:         3,
		})
		require.NoError(t, err)
		assert.True(t, x.PurchaseAmount.Equal(dec(t, "7000")), "got %s", x.PurchaseAmount)

		assert.True(t, accounts.balance(saleKey).Equal(dec(t, "-100")))
		assert.True(t, accounts.balance(purchaseKey).Equal(dec(t, "7000")))

		require.Len(t, repo.remaining, 1)
		assert.Equal(t, int64(2), repo.remaining[0].CurrencyID)
		assert.True(t, repo.remaining[0].Remaining.Equal(dec(t, "7000")))
		assert.True(t, repo.remaining[0].CostRate.Equal(dec(t, "70")))
	})

	t.Run("calculate derives the sale side when purchase is given", func(t *testing.T) {
		svc, _, accounts := newExchangeFixture()

		x, err := svc.Create(ctx, model.ExchangeCreateRequest{
			OrgID:              1,
			CustomerID:         10,
			SaleCurrencyID:     1,
			PurchaseCurrencyID: 2,
			PurchaseAmount:     dec(t, "7000"),
			Rate:               dec(t, "70"),
			Calculate:          true,
			EmployeeID:         3,
		})
		require.NoError(t, err)
		assert.True(t, x.SaleAmount.Equal(dec(t, "100")), "got %s", x.SaleAmount)
		assert.True(t, accounts.balance(saleKey).Equal(dec(t, "-100")))
	})

	t.Run("swap inverts the debit and credit roles", func(t *testing.T) {
		svc, repo, accounts := newExchangeFixture()

		_, err := svc.Create(ctx, model.ExchangeCreateRequest{
			OrgID:              1,
			CustomerID:         10,
			SaleCurrencyID:     1,
			PurchaseCurrencyID: 2,
			SaleAmount:         dec(t, "100"),
			PurchaseAmount:     dec(t, "7000"),
			Rate:               dec(t, "70"),
			Swap:               true,
			EmployeeID:         3,
		})
		require.NoError(t, err)

		assert.True(t, accounts.balance(saleKey).Equal(dec(t, "100")))
		assert.True(t, accounts.balance(purchaseKey).Equal(dec(t, "-7000")))

		// Swapped records acquire the sale-side currency.
		require.Len(t, repo.remaining, 1)
		assert.Equal(t, int64(1), repo.remaining[0].CurrencyID)
		assert.True(t, repo.remaining[0].Remaining.Equal(dec(t, "100")))
	})

	t.Run("both amounts given are used as-is without rate cross-check", func(t *testing.T) {
		svc, _, accounts := newExchangeFixture()

		x, err := svc.Create(ctx, model.ExchangeCreateRequest{
			OrgID:              1,
			CustomerID:         10,
			SaleCurrencyID:     1,
			PurchaseCurrencyID: 2,
			SaleAmount:         dec(t, "100"),
			PurchaseAmount:     dec(t, "6990"),
			Rate:               dec(t, "70"),
			EmployeeID:         3,
		})
		require.NoError(t, err)
		assert.True(t, x.PurchaseAmount.Equal(dec(t, "6990")))
		assert.True(t, accounts.balance(purchaseKey).Equal(dec(t, "6990")))
	})

	t.Run("rate must be positive", func(t *testing.T) {
		svc, _, _ := newExchangeFixture()

		_, err := svc.Create(ctx, model.ExchangeCreateRequest{
			OrgID:              1,
			CustomerID:         10,
			SaleCurrencyID:     1,
			PurchaseCurrencyID: 2,
			SaleAmount:         dec(t, "100"),
			Rate:               dec(t, "0"),
			EmployeeID:         3,
		})
		assert.Error(t, err)
	})

	t.Run("single amount without calculate is rejected", func(t *testing.T) {
		svc, _, _ := newExchangeFixture()

		_, err := svc.Create(ctx, model.ExchangeCreateRequest{
			OrgID:              1,
			CustomerID:         10,
			SaleCurrencyID:     1,
			PurchaseCurrencyID: 2,
			SaleAmount:         dec(t, "100"),
			Rate:               dec(t, "70"),
			EmployeeID:         3,
		})
		assert.Error(t, err)
	})
}

func TestExchangeService_Delete(t *testing.T) {
	ctx := context.Background()
	saleKey := model.AccountKey{OwnerID: 10, CurrencyID: 1}
	purchaseKey := model.AccountKey{OwnerID: 10, CurrencyID: 2}

	t.Run("delete reverses per the stored direction", func(t *testing.T) {
		svc, repo, accounts := newExchangeFixture()

		x, err := svc.Create(ctx, model.ExchangeCreateRequest{
			OrgID:              1,
			CustomerID:         10,
			SaleCurrencyID:     1,
			PurchaseCurrencyID: 2,
			SaleAmount:         dec(t, "100"),
			Rate:               dec(t, "70"),
			Calculate:          true,
			EmployeeID:         3,
		})
		require.NoError(t, err)

		require.NoError(t, svc.Delete(ctx, 1, x.ID))
		assert.True(t, accounts.balance(saleKey).IsZero())
		assert.True(t, accounts.balance(purchaseKey).IsZero())

		// Inventory lot survives the reversal.
		assert.Len(t, repo.remaining, 1)

		assert.ErrorIs(t, svc.Delete(ctx, 1, x.ID), ErrAlreadyDeleted)
	})

	t.Run("swapped delete restores the swapped direction", func(t *testing.T) {
		svc, _, accounts := newExchangeFixture()

		x, err := svc.Create(ctx, model.ExchangeCreateRequest{
			OrgID:              1,
			CustomerID:         10,
			SaleCurrencyID:     1,
			PurchaseCurrencyID: 2,
			SaleAmount:         dec(t, "100"),
			PurchaseAmount:     dec(t, "7000"),
			Rate:               dec(t, "70"),
			Swap:               true,
			EmployeeID:         3,
		})
		require.NoError(t, err)

		require.NoError(t, svc.Delete(ctx, 1, x.ID))
		assert.True(t, accounts.balance(saleKey).IsZero())
		assert.True(t, accounts.balance(purchaseKey).IsZero())
	})
}
