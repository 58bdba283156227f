// Package services holds the ledger engines. Every monetary operation runs
// inside one database transaction: sequence allocation, record write, and
// balance deltas commit or roll back together. Reversal reapplies the inverse
// of the stored record's effects, so the math lives in internal/ledger only.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sarafbook/ledger/internal/ledger"
	"github.com/sarafbook/ledger/internal/model"
	"github.com/sarafbook/ledger/internal/repository"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrAccountNotFound = errors.New("no account for owner and currency")
	ErrDuplicateNumber = errors.New("manual number already issued")
	ErrAlreadyDeleted  = errors.New("record already deleted")
	ErrAlreadyRejected = errors.New("record already rejected")
	ErrNotBranch       = errors.New("destination is not a branch")
	ErrTillClosed      = errors.New("till already closed")
)

// TxRunner starts a transaction and runs fn with the transactional handle in
// the context, the way pg.DB does.
type TxRunner interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// AccountWriter moves balances. Both calls lock the row and must run inside
// the caller's transaction.
type AccountWriter interface {
	Credit(ctx context.Context, orgID int64, key model.AccountKey, amount decimal.Decimal) error
	Debit(ctx context.Context, orgID int64, key model.AccountKey, amount decimal.Decimal) error
}

// SequenceAllocator hands out per-scope record numbers inside the caller's
// transaction. branchID is zero for organization-wide scopes.
type SequenceAllocator interface {
	Next(ctx context.Context, orgID int64, name string, branchID int64) (int64, error)
	Claim(ctx context.Context, orgID int64, name string, branchID, manual int64) (int64, error)
}

// IdentityRepository resolves sender/receiver identity records by name and
// phone, creating them on first sight.
type IdentityRepository interface {
	FindOrCreate(ctx context.Context, orgID int64, name, phone string, isSender bool) (*model.SenderReceiver, error)
}

// OwnerRegistry looks up customers and branches.
type OwnerRegistry interface {
	Get(ctx context.Context, orgID, id int64) (*model.Customer, error)
	GetBranch(ctx context.Context, orgID, id int64) (*model.Customer, error)
}

// TransactionPublisher emits a post-commit event for customer-facing
// operations. Implementations must never block the ledger path on failure.
type TransactionPublisher interface {
	TransactionCreated(ctx context.Context, event model.TransactionEvent)
}

// applyEffects pushes a normalized effect list through the account writer.
// Normalization orders the deltas by (owner, currency) so concurrent
// operations acquire row locks in the same order.
func applyEffects(ctx context.Context, accounts AccountWriter, orgID int64, effects ledger.Effects) error {
	for _, eff := range effects.Normalized() {
		if eff.Delta.IsPositive() {
			if err := accounts.Credit(ctx, orgID, eff.Key, eff.Delta); err != nil {
				return err
			}
			continue
		}
		if err := accounts.Debit(ctx, orgID, eff.Key, eff.Delta.Neg()); err != nil {
			return err
		}
	}
	return nil
}

func newTransactionEvent(orgID, customerID, recordID int64, kind string, amount decimal.Decimal, currencyID int64) model.TransactionEvent {
	return model.TransactionEvent{
		EventID:    uuid.NewString(),
		OrgID:      orgID,
		CustomerID: customerID,
		Kind:       kind,
		RecordID:   recordID,
		Amount:     amount,
		CurrencyID: currencyID,
		CreatedAt:  time.Now(),
	}
}

// allocateNumber draws the next automatic number for the scope, or claims the
// caller-supplied manual one.
func allocateNumber(ctx context.Context, seq SequenceAllocator, orgID int64, scope string, branchID int64, manual *int64) (int64, error) {
	if manual != nil {
		no, err := seq.Claim(ctx, orgID, scope, branchID, *manual)
		if err != nil {
			if errors.Is(err, repository.ErrDuplicateSequence) {
				return 0, ErrDuplicateNumber
			}
			return 0, fmt.Errorf("claim number: %w", err)
		}
		return no, nil
	}
	no, err := seq.Next(ctx, orgID, scope, branchID)
	if err != nil {
		return 0, fmt.Errorf("allocate number: %w", err)
	}
	return no, nil
}

func applyMapped(ctx context.Context, accounts AccountWriter, orgID int64, effects ledger.Effects) error {
	if err := applyEffects(ctx, accounts, orgID, effects); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("apply balance deltas: %w", err)
	}
	return nil
}

func defaultDate(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
