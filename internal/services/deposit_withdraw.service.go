package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sarafbook/ledger/internal/ledger"
	"github.com/sarafbook/ledger/internal/model"
	"github.com/sarafbook/ledger/internal/repository"
)

type DepositWithdrawRepository interface {
	Create(ctx context.Context, d *model.DepositWithdraw) (*model.DepositWithdraw, error)
	Get(ctx context.Context, orgID, id int64) (*model.DepositWithdraw, error)
	UpdateMeta(ctx context.Context, orgID, id int64, patch model.DepositWithdrawPatch) error
	MarkDeleted(ctx context.Context, orgID, id int64) error
	List(ctx context.Context, f model.DepositWithdrawFilter) ([]*model.DepositWithdraw, int64, error)
}

type DepositWithdrawService struct {
	tx       TxRunner
	repo     DepositWithdrawRepository
	accounts AccountWriter
	seq      SequenceAllocator
	events   TransactionPublisher
}

func NewDepositWithdrawService(tx TxRunner, repo DepositWithdrawRepository, accounts AccountWriter, seq SequenceAllocator, events TransactionPublisher) *DepositWithdrawService {
	return &DepositWithdrawService{
		tx:       tx,
		repo:     repo,
		accounts: accounts,
		seq:      seq,
		events:   events,
	}
}

func (s *DepositWithdrawService) Create(ctx context.Context, p model.DepositWithdrawCreateRequest) (*model.DepositWithdraw, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var created *model.DepositWithdraw
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		no, err := allocateNumber(ctx, s.seq, p.OrgID, repository.SeqDepositWithdraw, 0, p.ManualNo)
		if err != nil {
			return err
		}

		d := &model.DepositWithdraw{
			OrgID:       p.OrgID,
			No:          no,
			CustomerID:  p.CustomerID,
			CurrencyID:  p.CurrencyID,
			Deposit:     p.Deposit,
			Withdraw:    p.Withdraw,
			Date:        defaultDate(p.Date),
			EmployeeID:  p.EmployeeID,
			Description: p.Description,
		}

		created, err = s.repo.Create(ctx, d)
		if err != nil {
			return fmt.Errorf("create record: %w", err)
		}
		return applyMapped(ctx, s.accounts, p.OrgID, ledger.ForDepositWithdraw(created))
	})
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		kind := "deposit"
		amount := created.Deposit
		if !created.IsDeposit() {
			kind = "withdraw"
			amount = created.Withdraw
		}
		s.events.TransactionCreated(ctx, newTransactionEvent(
			created.OrgID, created.CustomerID, created.ID, kind, amount, created.CurrencyID))
	}
	return created, nil
}

func (s *DepositWithdrawService) Get(ctx context.Context, orgID, id int64) (*model.DepositWithdraw, error) {
	d, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (s *DepositWithdrawService) List(ctx context.Context, f model.DepositWithdrawFilter) ([]*model.DepositWithdraw, int64, error) {
	return s.repo.List(ctx, f)
}

// Update patches metadata only. Amounts are immutable; a wrong amount is
// fixed by deleting the record and creating a new one.
func (s *DepositWithdrawService) Update(ctx context.Context, orgID, id int64, patch model.DepositWithdrawPatch) error {
	if err := s.repo.UpdateMeta(ctx, orgID, id, patch); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Delete soft-flags the record and applies the inverse balance delta in the
// same transaction.
func (s *DepositWithdrawService) Delete(ctx context.Context, orgID, id int64) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		d, err := s.repo.Get(ctx, orgID, id)
		if err != nil {
			if errors.Is(err, repository.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if d.Deleted {
			return ErrAlreadyDeleted
		}

		if err := s.repo.MarkDeleted(ctx, orgID, id); err != nil {
			return fmt.Errorf("mark deleted: %w", err)
		}
		return applyMapped(ctx, s.accounts, orgID, ledger.ForDepositWithdraw(d).Inverted())
	})
}
