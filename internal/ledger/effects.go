// Package ledger builds the balance effects of each monetary operation as
// plain values. Services apply an Effects list inside a transaction and apply
// its inverse to reverse an operation, so create/update/delete/reject all
// share one source of truth for the debit/credit math.
package ledger

import (
	"sort"

	"github.com/sarafbook/ledger/internal/model"
	"github.com/shopspring/decimal"
)

// Effect is one signed balance delta against an account. Positive credits,
// negative debits.
type Effect struct {
	Key   model.AccountKey
	Delta decimal.Decimal
}

type Effects []Effect

// Inverted returns the exact additive inverse of every effect, used to undo
// an operation.
func (e Effects) Inverted() Effects {
	out := make(Effects, len(e))
	for i, eff := range e {
		out[i] = Effect{Key: eff.Key, Delta: eff.Delta.Neg()}
	}
	return out
}

// Normalized merges effects hitting the same account, drops zero deltas, and
// orders the result by (owner, currency). Applying effects in this order
// keeps lock acquisition deterministic across concurrent operations touching
// the same pair of accounts.
func (e Effects) Normalized() Effects {
	merged := make(map[model.AccountKey]decimal.Decimal, len(e))
	for _, eff := range e {
		merged[eff.Key] = merged[eff.Key].Add(eff.Delta)
	}
	out := make(Effects, 0, len(merged))
	for key, delta := range merged {
		if delta.IsZero() {
			continue
		}
		out = append(out, Effect{Key: key, Delta: delta})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.OwnerID != out[j].Key.OwnerID {
			return out[i].Key.OwnerID < out[j].Key.OwnerID
		}
		return out[i].Key.CurrencyID < out[j].Key.CurrencyID
	})
	return out
}

// ForDepositWithdraw credits the account by the deposit or debits it by the
// withdrawal.
func ForDepositWithdraw(d *model.DepositWithdraw) Effects {
	key := model.AccountKey{OwnerID: d.CustomerID, CurrencyID: d.CurrencyID}
	if d.IsDeposit() {
		return Effects{{Key: key, Delta: d.Deposit}}
	}
	return Effects{{Key: key, Delta: d.Withdraw.Neg()}}
}

// ForTransfer debits the sending customer (if any) by principal plus origin
// charges and credits the destination branch by principal plus branch
// charges. The two charge amounts are independent cash effects.
func ForTransfer(t *model.Transfer) Effects {
	var out Effects
	if t.CustomerID != nil {
		out = append(out, Effect{
			Key:   model.AccountKey{OwnerID: *t.CustomerID, CurrencyID: t.CurrencyID},
			Delta: t.TransferAmount.Add(t.ChargesAmount).Neg(),
		})
	}
	out = append(out, Effect{
		Key:   model.AccountKey{OwnerID: t.ToWhere, CurrencyID: t.CurrencyID},
		Delta: t.TransferAmount.Add(t.BranchCharges),
	})
	return out
}

// ForReceive computes the deltas for the stored shape:
//
//	DirectPayout:   origin -(amount+charges)
//	BranchRelay:    origin -(amount+charges+branchCharges), passTo +(amount+branchCharges)
//	CustomerPayout: origin -(amount+charges), customer +amount
//
// The relay leg itself is carried by the linked Transfer record; its effects
// are NOT included here.
func ForReceive(r *model.Receive) Effects {
	origin := model.AccountKey{OwnerID: r.FromWhere, CurrencyID: r.CurrencyID}
	switch r.Shape() {
	case model.ShapeBranchRelay:
		return Effects{
			{Key: origin, Delta: r.ReceiveAmount.Add(r.ChargesAmount).Add(r.BranchCharges).Neg()},
			{Key: model.AccountKey{OwnerID: *r.PassTo, CurrencyID: r.CurrencyID}, Delta: r.ReceiveAmount.Add(r.BranchCharges)},
		}
	case model.ShapeCustomerPayout:
		return Effects{
			{Key: origin, Delta: r.ReceiveAmount.Add(r.ChargesAmount).Neg()},
			{Key: model.AccountKey{OwnerID: *r.CustomerID, CurrencyID: r.CurrencyID}, Delta: r.ReceiveAmount},
		}
	default:
		return Effects{
			{Key: origin, Delta: r.ReceiveAmount.Add(r.ChargesAmount).Neg()},
		}
	}
}

// RelayTransfer builds the mirrored Transfer for a branch-relay receive. The
// caller allocates its number and persists it in the same transaction.
func RelayTransfer(r *model.Receive) *model.Transfer {
	return &model.Transfer{
		OrgID:          r.OrgID,
		TransferAmount: r.ReceiveAmount,
		BranchCharges:  r.BranchCharges,
		ToWhere:        *r.PassTo,
		CurrencyID:     r.CurrencyID,
		SenderID:       r.SenderID,
		ReceiverID:     r.ReceiverID,
		Date:           r.Date,
		EmployeeID:     r.EmployeeID,
	}
}

// ForExchange debits the sale-currency account and credits the
// purchase-currency account, or the inverse when Swap is set.
func ForExchange(x *model.Exchange) Effects {
	sale := Effect{
		Key:   model.AccountKey{OwnerID: x.CustomerID, CurrencyID: x.SaleCurrencyID},
		Delta: x.SaleAmount.Neg(),
	}
	purchase := Effect{
		Key:   model.AccountKey{OwnerID: x.CustomerID, CurrencyID: x.PurchaseCurrencyID},
		Delta: x.PurchaseAmount,
	}
	if x.Swap {
		sale.Delta = x.SaleAmount
		purchase.Delta = x.PurchaseAmount.Neg()
	}
	return Effects{sale, purchase}
}
