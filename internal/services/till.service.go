package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sarafbook/ledger/internal/model"
	"github.com/sarafbook/ledger/internal/repository"
	"github.com/shopspring/decimal"
)

type TillRepository interface {
	GetForUpdate(ctx context.Context, orgID, currencyID int64, day time.Time) (*model.Till, error)
	Create(ctx context.Context, t *model.Till) (*model.Till, error)
	PreviousClosing(ctx context.Context, orgID, currencyID int64, day time.Time) (decimal.Decimal, error)
	SetTotals(ctx context.Context, id int64, in, out, closing decimal.Decimal) error
	SetClosed(ctx context.Context, id int64, actualCash, difference decimal.Decimal, closedBy int64, closedAt time.Time) error
	History(ctx context.Context, orgID, currencyID int64, limit, offset int) ([]*model.Till, int64, error)
}

type DepositWithdrawSums interface {
	SumForDay(ctx context.Context, orgID, currencyID int64, day time.Time) (deposits, withdrawals decimal.Decimal, err error)
}

type TransferSums interface {
	SumOutForDay(ctx context.Context, orgID, currencyID int64, day time.Time) (decimal.Decimal, error)
}

type ReceiveSums interface {
	SumInForDay(ctx context.Context, orgID, currencyID int64, day time.Time) (decimal.Decimal, error)
}

type ExchangeSums interface {
	SumForDay(ctx context.Context, orgID, currencyID int64, day time.Time) (in, out decimal.Decimal, err error)
}

// TillService reconciles one (org, currency, day) cash drawer. Totals are
// always recomputed from the day's records rather than nudged incrementally,
// so deletes and reversals need no till bookkeeping of their own.
type TillService struct {
	tx        TxRunner
	tills     TillRepository
	deposits  DepositWithdrawSums
	transfers TransferSums
	receives  ReceiveSums
	exchanges ExchangeSums
}

func NewTillService(tx TxRunner, tills TillRepository, deposits DepositWithdrawSums, transfers TransferSums, receives ReceiveSums, exchanges ExchangeSums) *TillService {
	return &TillService{
		tx:        tx,
		tills:     tills,
		deposits:  deposits,
		transfers: transfers,
		receives:  receives,
		exchanges: exchanges,
	}
}

// Recompute refreshes the day's totals from the ledger. Opens the day's row
// first if this is the first touch, seeding the opening balance from the
// previous day's closing.
func (s *TillService) Recompute(ctx context.Context, orgID, currencyID int64, day time.Time) (*model.Till, error) {
	var out *model.Till
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		till, err := s.lockOrCreate(ctx, orgID, currencyID, day)
		if err != nil {
			return err
		}
		if till.Status == model.TillClosed {
			return ErrTillClosed
		}
		out, err = s.recomputeLocked(ctx, till, day)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close recomputes the day, stores the counted cash and its variance against
// the computed closing balance, and seals the row. Terminal: a closed till
// only rejects further recomputes and closes.
func (s *TillService) Close(ctx context.Context, orgID, currencyID int64, day time.Time, actualCash decimal.Decimal, closedBy int64) (*model.Till, error) {
	var out *model.Till
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		till, err := s.lockOrCreate(ctx, orgID, currencyID, day)
		if err != nil {
			return err
		}
		if till.Status == model.TillClosed {
			return ErrTillClosed
		}

		till, err = s.recomputeLocked(ctx, till, day)
		if err != nil {
			return err
		}

		difference := actualCash.Sub(till.ClosingBalance)
		closedAt := time.Now()
		if err := s.tills.SetClosed(ctx, till.ID, actualCash, difference, closedBy, closedAt); err != nil {
			if errors.Is(err, repository.ErrTillNotFound) {
				return ErrTillClosed
			}
			return fmt.Errorf("close till: %w", err)
		}

		till.ActualCash = actualCash
		till.Difference = difference
		till.Status = model.TillClosed
		till.ClosedBy = &closedBy
		till.ClosedAt = &closedAt
		out = till
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *TillService) Get(ctx context.Context, orgID, currencyID int64, day time.Time) (*model.Till, error) {
	till, err := s.tills.GetForUpdate(ctx, orgID, currencyID, day)
	if err != nil {
		if errors.Is(err, repository.ErrTillNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return till, nil
}

func (s *TillService) History(ctx context.Context, orgID, currencyID int64, limit, offset int) ([]*model.Till, int64, error) {
	return s.tills.History(ctx, orgID, currencyID, limit, offset)
}

func (s *TillService) lockOrCreate(ctx context.Context, orgID, currencyID int64, day time.Time) (*model.Till, error) {
	till, err := s.tills.GetForUpdate(ctx, orgID, currencyID, day)
	if err == nil {
		return till, nil
	}
	if !errors.Is(err, repository.ErrTillNotFound) {
		return nil, fmt.Errorf("load till: %w", err)
	}

	opening, err := s.tills.PreviousClosing(ctx, orgID, currencyID, day)
	if err != nil {
		return nil, fmt.Errorf("previous closing: %w", err)
	}
	till, err = s.tills.Create(ctx, &model.Till{
		OrgID:          orgID,
		CurrencyID:     currencyID,
		Date:           day,
		OpeningBalance: opening,
		ClosingBalance: opening,
	})
	if err != nil {
		return nil, fmt.Errorf("open till: %w", err)
	}
	return till, nil
}

func (s *TillService) recomputeLocked(ctx context.Context, till *model.Till, day time.Time) (*model.Till, error) {
	deposits, withdrawals, err := s.deposits.SumForDay(ctx, till.OrgID, till.CurrencyID, day)
	if err != nil {
		return nil, fmt.Errorf("sum deposits: %w", err)
	}
	transfersOut, err := s.transfers.SumOutForDay(ctx, till.OrgID, till.CurrencyID, day)
	if err != nil {
		return nil, fmt.Errorf("sum transfers: %w", err)
	}
	receivesIn, err := s.receives.SumInForDay(ctx, till.OrgID, till.CurrencyID, day)
	if err != nil {
		return nil, fmt.Errorf("sum receives: %w", err)
	}
	exchangeIn, exchangeOut, err := s.exchanges.SumForDay(ctx, till.OrgID, till.CurrencyID, day)
	if err != nil {
		return nil, fmt.Errorf("sum exchanges: %w", err)
	}

	in := deposits.Add(receivesIn).Add(exchangeIn)
	out := withdrawals.Add(transfersOut).Add(exchangeOut)
	closing := till.OpeningBalance.Add(in).Sub(out)

	if err := s.tills.SetTotals(ctx, till.ID, in, out, closing); err != nil {
		return nil, fmt.Errorf("store totals: %w", err)
	}

	till.TotalIn = in
	till.TotalOut = out
	till.ClosingBalance = closing
	return till, nil
}
