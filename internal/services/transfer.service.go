package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sarafbook/ledger/internal/ledger"
	"github.com/sarafbook/ledger/internal/model"
	"github.com/sarafbook/ledger/internal/repository"
)

type TransferRepository interface {
	Create(ctx context.Context, t *model.Transfer) (*model.Transfer, error)
	Get(ctx context.Context, orgID, id int64) (*model.Transfer, error)
	GetByNo(ctx context.Context, orgID, no int64) (*model.Transfer, error)
	Save(ctx context.Context, t *model.Transfer) error
	MarkDeleted(ctx context.Context, orgID, id int64) error
	MarkRejected(ctx context.Context, orgID, id int64, reversed bool) error
	List(ctx context.Context, f model.TransferFilter) ([]*model.Transfer, int64, error)
}

// TransferService moves value to a destination branch. A customer-backed
// transfer debits the sender's account by principal plus charges; a walk-in
// transfer takes cash over the counter and touches no customer account. The
// destination branch is credited principal plus branch charges either way.
type TransferService struct {
	tx         TxRunner
	repo       TransferRepository
	accounts   AccountWriter
	seq        SequenceAllocator
	identities IdentityRepository
	owners     OwnerRegistry
	events     TransactionPublisher
}

func NewTransferService(tx TxRunner, repo TransferRepository, accounts AccountWriter, seq SequenceAllocator, identities IdentityRepository, owners OwnerRegistry, events TransactionPublisher) *TransferService {
	return &TransferService{
		tx:         tx,
		repo:       repo,
		accounts:   accounts,
		seq:        seq,
		identities: identities,
		owners:     owners,
		events:     events,
	}
}

func (s *TransferService) Create(ctx context.Context, p model.TransferCreateRequest) (*model.Transfer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var created *model.Transfer
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkParties(ctx, p.OrgID, p.ToWhere, p.CustomerID); err != nil {
			return err
		}

		senderID, receiverID, err := resolveIdentities(ctx, s.identities, p.OrgID, p.SenderName, p.SenderPhone, p.ReceiverName, p.ReceiverPhone)
		if err != nil {
			return err
		}

		no, err := allocateNumber(ctx, s.seq, p.OrgID, repository.SeqTransfer, 0, p.ManualNo)
		if err != nil {
			return err
		}

		t := &model.Transfer{
			OrgID:          p.OrgID,
			No:             no,
			TransferAmount: p.TransferAmount,
			ChargesAmount:  p.ChargesAmount,
			BranchCharges:  p.BranchCharges,
			ToWhere:        p.ToWhere,
			CustomerID:     p.CustomerID,
			SenderID:       senderID,
			ReceiverID:     receiverID,
			CurrencyID:     p.CurrencyID,
			Date:           defaultDate(p.Date),
			EmployeeID:     p.EmployeeID,
		}

		created, err = s.repo.Create(ctx, t)
		if err != nil {
			return fmt.Errorf("create record: %w", err)
		}
		return applyMapped(ctx, s.accounts, p.OrgID, ledger.ForTransfer(created))
	})
	if err != nil {
		return nil, err
	}

	if s.events != nil && created.CustomerID != nil {
		s.events.TransactionCreated(ctx, newTransactionEvent(
			created.OrgID, *created.CustomerID, created.ID, "transfer",
			created.TransferAmount.Add(created.ChargesAmount), created.CurrencyID))
	}
	return created, nil
}

func (s *TransferService) Get(ctx context.Context, orgID, id int64) (*model.Transfer, error) {
	t, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *TransferService) List(ctx context.Context, f model.TransferFilter) ([]*model.Transfer, int64, error) {
	return s.repo.List(ctx, f)
}

// Update reverses the stored record's balance effects and applies the new
// payload's, then persists the new values. Sequence number is kept.
func (s *TransferService) Update(ctx context.Context, orgID, id int64, p model.TransferCreateRequest) (*model.Transfer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var updated *model.Transfer
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		old, err := s.mutable(ctx, orgID, id)
		if err != nil {
			return err
		}
		if err := s.checkParties(ctx, orgID, p.ToWhere, p.CustomerID); err != nil {
			return err
		}

		if err := applyMapped(ctx, s.accounts, orgID, ledger.ForTransfer(old).Inverted()); err != nil {
			return err
		}

		senderID, receiverID, err := resolveIdentities(ctx, s.identities, orgID, p.SenderName, p.SenderPhone, p.ReceiverName, p.ReceiverPhone)
		if err != nil {
			return err
		}

		next := *old
		next.TransferAmount = p.TransferAmount
		next.ChargesAmount = p.ChargesAmount
		next.BranchCharges = p.BranchCharges
		next.ToWhere = p.ToWhere
		next.CustomerID = p.CustomerID
		next.SenderID = senderID
		next.ReceiverID = receiverID
		next.CurrencyID = p.CurrencyID
		next.Date = defaultDate(p.Date)

		if err := s.repo.Save(ctx, &next); err != nil {
			return fmt.Errorf("save record: %w", err)
		}
		updated = &next
		return applyMapped(ctx, s.accounts, orgID, ledger.ForTransfer(&next))
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete soft-flags the record. The inverse deltas are applied unless a
// rejection already reversed the funds.
func (s *TransferService) Delete(ctx context.Context, orgID, id int64) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		old, err := s.repo.Get(ctx, orgID, id)
		if err != nil {
			if errors.Is(err, repository.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if old.Deleted {
			return ErrAlreadyDeleted
		}

		if err := s.repo.MarkDeleted(ctx, orgID, id); err != nil {
			return fmt.Errorf("mark deleted: %w", err)
		}
		if old.Reversed {
			return nil
		}
		return applyMapped(ctx, s.accounts, orgID, ledger.ForTransfer(old).Inverted())
	})
}

// Reject flags the record rejected. With reverseFunds the balance effects are
// undone; without it the record stays rejected but the money stands.
func (s *TransferService) Reject(ctx context.Context, orgID, id int64, reverseFunds bool) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		old, err := s.mutable(ctx, orgID, id)
		if err != nil {
			return err
		}

		if err := s.repo.MarkRejected(ctx, orgID, id, reverseFunds); err != nil {
			return fmt.Errorf("mark rejected: %w", err)
		}
		if !reverseFunds {
			return nil
		}
		return applyMapped(ctx, s.accounts, orgID, ledger.ForTransfer(old).Inverted())
	})
}

// mutable loads a record and refuses the mutation when it is already deleted
// or rejected.
func (s *TransferService) mutable(ctx context.Context, orgID, id int64) (*model.Transfer, error) {
	old, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if old.Deleted {
		return nil, ErrAlreadyDeleted
	}
	if old.Rejected {
		return nil, ErrAlreadyRejected
	}
	return old, nil
}

func (s *TransferService) checkParties(ctx context.Context, orgID, toWhere int64, customerID *int64) error {
	if _, err := s.owners.GetBranch(ctx, orgID, toWhere); err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return ErrNotBranch
		}
		return fmt.Errorf("resolve destination branch: %w", err)
	}
	if customerID != nil {
		if _, err := s.owners.Get(ctx, orgID, *customerID); err != nil {
			if errors.Is(err, repository.ErrCustomerNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("resolve customer: %w", err)
		}
	}
	return nil
}

func resolveIdentities(ctx context.Context, identities IdentityRepository, orgID int64, senderName, senderPhone, receiverName, receiverPhone string) (senderID, receiverID *int64, err error) {
	sender, err := identities.FindOrCreate(ctx, orgID, senderName, senderPhone, true)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve sender: %w", err)
	}
	receiver, err := identities.FindOrCreate(ctx, orgID, receiverName, receiverPhone, false)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve receiver: %w", err)
	}
	if sender != nil {
		senderID = &sender.ID
	}
	if receiver != nil {
		receiverID = &receiver.ID
	}
	return senderID, receiverID, nil
}
