package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sarafbook/ledger/internal/ledger"
	"github.com/sarafbook/ledger/internal/model"
	"github.com/sarafbook/ledger/internal/repository"
)

type ReceiveRepository interface {
	Create(ctx context.Context, rec *model.Receive) (*model.Receive, error)
	Get(ctx context.Context, orgID, id int64) (*model.Receive, error)
	Save(ctx context.Context, rec *model.Receive) error
	UpdateIdentity(ctx context.Context, orgID, id int64, senderID, receiverID *int64) error
	MarkDeleted(ctx context.Context, orgID, id int64) error
	MarkRejected(ctx context.Context, orgID, id int64, reversed bool) error
	List(ctx context.Context, f model.ReceiveFilter) ([]*model.Receive, int64, error)
}

// ReceiveService books inbound remittances arriving at an origin branch. A
// branch-relay receive is mirrored by a linked Transfer so the destination
// branch sees the onward leg in its own day book; the linked record is pure
// bookkeeping and its balance effects are already part of the receive's, so
// the relay transfer is never pushed through the account writer itself.
type ReceiveService struct {
	tx        TxRunner
	repo      ReceiveRepository
	transfers TransferRepository
	accounts  AccountWriter
	seq       SequenceAllocator
	ids       IdentityRepository
	owners    OwnerRegistry
	events    TransactionPublisher
}

func NewReceiveService(tx TxRunner, repo ReceiveRepository, transfers TransferRepository, accounts AccountWriter, seq SequenceAllocator, ids IdentityRepository, owners OwnerRegistry, events TransactionPublisher) *ReceiveService {
	return &ReceiveService{
		tx:        tx,
		repo:      repo,
		transfers: transfers,
		accounts:  accounts,
		seq:       seq,
		ids:       ids,
		owners:    owners,
		events:    events,
	}
}

func (s *ReceiveService) Create(ctx context.Context, p model.ReceiveCreateRequest) (*model.Receive, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var created *model.Receive
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkParties(ctx, p.OrgID, p.FromWhere, p.PassTo, p.CustomerID); err != nil {
			return err
		}

		senderID, receiverID, err := resolveIdentities(ctx, s.ids, p.OrgID, p.SenderName, p.SenderPhone, p.ReceiverName, p.ReceiverPhone)
		if err != nil {
			return err
		}

		// Receive numbers restart per origin branch.
		no, err := allocateNumber(ctx, s.seq, p.OrgID, repository.SeqReceive, p.FromWhere, p.ManualNo)
		if err != nil {
			return err
		}

		rec := &model.Receive{
			OrgID:             p.OrgID,
			ReceiveNo:         no,
			ReceiveAmount:     p.ReceiveAmount,
			ChargesAmount:     p.ChargesAmount,
			ChargesType:       p.ChargesType,
			BranchCharges:     p.BranchCharges,
			BranchChargesType: p.BranchChargesType,
			FromWhere:         p.FromWhere,
			PassTo:            p.PassTo,
			CustomerID:        p.CustomerID,
			CurrencyID:        p.CurrencyID,
			SenderID:          senderID,
			ReceiverID:        receiverID,
			Date:              defaultDate(p.Date),
			EmployeeID:        p.EmployeeID,
		}

		if rec.Shape() == model.ShapeBranchRelay {
			if err := s.createRelay(ctx, rec); err != nil {
				return err
			}
		}

		created, err = s.repo.Create(ctx, rec)
		if err != nil {
			return fmt.Errorf("create record: %w", err)
		}
		return applyMapped(ctx, s.accounts, p.OrgID, ledger.ForReceive(created))
	})
	if err != nil {
		return nil, err
	}

	if s.events != nil && created.CustomerID != nil {
		s.events.TransactionCreated(ctx, newTransactionEvent(
			created.OrgID, *created.CustomerID, created.ID, "receive",
			created.ReceiveAmount, created.CurrencyID))
	}
	return created, nil
}

func (s *ReceiveService) Get(ctx context.Context, orgID, id int64) (*model.Receive, error) {
	rec, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (s *ReceiveService) List(ctx context.Context, f model.ReceiveFilter) ([]*model.Receive, int64, error) {
	return s.repo.List(ctx, f)
}

// Update reverses the stored shape's effects, rebuilds the record from the new
// payload, and applies the new shape's effects. The linked relay transfer is
// reconciled: dropped when the new shape is not a relay, created when it newly
// is, replaced when the relay destination or amounts changed.
func (s *ReceiveService) Update(ctx context.Context, orgID, id int64, p model.ReceiveCreateRequest) (*model.Receive, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var updated *model.Receive
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		old, err := s.mutable(ctx, orgID, id)
		if err != nil {
			return err
		}
		if err := s.checkParties(ctx, orgID, p.FromWhere, p.PassTo, p.CustomerID); err != nil {
			return err
		}

		if err := applyMapped(ctx, s.accounts, orgID, ledger.ForReceive(old).Inverted()); err != nil {
			return err
		}
		if err := s.dropRelay(ctx, old); err != nil {
			return err
		}

		senderID, receiverID, err := resolveIdentities(ctx, s.ids, orgID, p.SenderName, p.SenderPhone, p.ReceiverName, p.ReceiverPhone)
		if err != nil {
			return err
		}

		next := *old
		next.ReceiveAmount = p.ReceiveAmount
		next.ChargesAmount = p.ChargesAmount
		next.ChargesType = p.ChargesType
		next.BranchCharges = p.BranchCharges
		next.BranchChargesType = p.BranchChargesType
		next.FromWhere = p.FromWhere
		next.PassTo = p.PassTo
		next.PassNo = nil
		next.CustomerID = p.CustomerID
		next.CurrencyID = p.CurrencyID
		next.SenderID = senderID
		next.ReceiverID = receiverID
		next.Date = defaultDate(p.Date)

		if next.Shape() == model.ShapeBranchRelay {
			if err := s.createRelay(ctx, &next); err != nil {
				return err
			}
		}

		if err := s.repo.Save(ctx, &next); err != nil {
			return fmt.Errorf("save record: %w", err)
		}
		updated = &next
		return applyMapped(ctx, s.accounts, orgID, ledger.ForReceive(&next))
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateIdentity re-links the sender/receiver names without touching money.
func (s *ReceiveService) UpdateIdentity(ctx context.Context, orgID, id int64, senderName, senderPhone, receiverName, receiverPhone string) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		senderID, receiverID, err := resolveIdentities(ctx, s.ids, orgID, senderName, senderPhone, receiverName, receiverPhone)
		if err != nil {
			return err
		}
		if err := s.repo.UpdateIdentity(ctx, orgID, id, senderID, receiverID); err != nil {
			if errors.Is(err, repository.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		return nil
	})
}

// Delete soft-flags the record and its linked relay transfer, applying the
// inverse deltas unless a rejection already reversed them.
func (s *ReceiveService) Delete(ctx context.Context, orgID, id int64) error {
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
		if err := s.dropRelay(ctx, old); err != nil {
			return err
		}
		if old.Reversed {
			return nil
		}
		return applyMapped(ctx, s.accounts, orgID, ledger.ForReceive(old).Inverted())
	})
}

// Reject flags the record, cascading the flag to the linked relay transfer.
// With reverseFunds the stored shape's effects are undone.
func (s *ReceiveService) Reject(ctx context.Context, orgID, id int64, reverseFunds bool) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		old, err := s.mutable(ctx, orgID, id)
		if err != nil {
			return err
		}

		if err := s.repo.MarkRejected(ctx, orgID, id, reverseFunds); err != nil {
			return fmt.Errorf("mark rejected: %w", err)
		}
		if old.PassNo != nil {
			linked, err := s.transfers.GetByNo(ctx, orgID, *old.PassNo)
			if err != nil && !errors.Is(err, repository.ErrRecordNotFound) {
				return fmt.Errorf("load relay transfer: %w", err)
			}
			if linked != nil && !linked.Rejected {
				if err := s.transfers.MarkRejected(ctx, orgID, linked.ID, reverseFunds); err != nil {
					return fmt.Errorf("reject relay transfer: %w", err)
				}
			}
		}
		if !reverseFunds {
			return nil
		}
		return applyMapped(ctx, s.accounts, orgID, ledger.ForReceive(old).Inverted())
	})
}

func (s *ReceiveService) mutable(ctx context.Context, orgID, id int64) (*model.Receive, error) {
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

// createRelay allocates an org-wide transfer number, writes the mirrored
// transfer, and records its number on the receive.
func (s *ReceiveService) createRelay(ctx context.Context, rec *model.Receive) error {
	passNo, err := s.seq.Next(ctx, rec.OrgID, repository.SeqTransfer, 0)
	if err != nil {
		return fmt.Errorf("allocate relay number: %w", err)
	}

	relay := ledger.RelayTransfer(rec)
	relay.No = passNo
	if _, err := s.transfers.Create(ctx, relay); err != nil {
		return fmt.Errorf("create relay transfer: %w", err)
	}
	rec.PassNo = &passNo
	return nil
}

// dropRelay soft-deletes the linked relay transfer record. No balance deltas:
// the relay's money is accounted through the receive's own effects.
func (s *ReceiveService) dropRelay(ctx context.Context, rec *model.Receive) error {
	if rec.PassNo == nil {
		return nil
	}
	linked, err := s.transfers.GetByNo(ctx, rec.OrgID, *rec.PassNo)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("load relay transfer: %w", err)
	}
	if linked.Deleted {
		return nil
	}
	if err := s.transfers.MarkDeleted(ctx, rec.OrgID, linked.ID); err != nil {
		return fmt.Errorf("delete relay transfer: %w", err)
	}
	return nil
}

func (s *ReceiveService) checkParties(ctx context.Context, orgID, fromWhere int64, passTo, customerID *int64) error {
	if _, err := s.owners.GetBranch(ctx, orgID, fromWhere); err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return ErrNotBranch
		}
		return fmt.Errorf("resolve origin branch: %w", err)
	}
	if passTo != nil {
		if _, err := s.owners.GetBranch(ctx, orgID, *passTo); err != nil {
			if errors.Is(err, repository.ErrCustomerNotFound) {
				return ErrNotBranch
			}
			return fmt.Errorf("resolve relay branch: %w", err)
		}
	}
	if customerID != nil {
		if _, err := s.owners.Get(ctx, orgID, *customerID); err != nil {
			if errors.Is(err, repository.ErrCustomerNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("resolve payout customer: %w", err)
		}
	}
	return nil
}
