package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sarafbook/ledger/internal/ledger"
	"github.com/sarafbook/ledger/internal/model"
	"github.com/sarafbook/ledger/internal/repository"
)

type ExchangeRepository interface {
	Create(ctx context.Context, x *model.Exchange) (*model.Exchange, error)
	Get(ctx context.Context, orgID, id int64) (*model.Exchange, error)
	MarkDeleted(ctx context.Context, orgID, id int64) error
	CreateRemaining(ctx context.Context, rem *model.ExchangeRemaining) (*model.ExchangeRemaining, error)
	List(ctx context.Context, f model.ExchangeFilter) ([]*model.Exchange, int64, error)
}

// ExchangeService converts value between two of a customer's currency
// accounts. Both amounts are stored as given; when calculate is set the
// missing side is derived from the rate first. Swap flips which side is
// debited, and a delete reverses whatever direction the record stored.
type ExchangeService struct {
	tx       TxRunner
	repo     ExchangeRepository
	accounts AccountWriter
	seq      SequenceAllocator
}

func NewExchangeService(tx TxRunner, repo ExchangeRepository, accounts AccountWriter, seq SequenceAllocator) *ExchangeService {
	return &ExchangeService{
		tx:       tx,
		repo:     repo,
		accounts: accounts,
		seq:      seq,
	}
}

func (s *ExchangeService) Create(ctx context.Context, p model.ExchangeCreateRequest) (*model.Exchange, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.Derive()
	if p.SaleAmount.IsZero() || p.PurchaseAmount.IsZero() {
		return nil, errors.New("both amounts are required unless calculate is set")
	}

	var created *model.Exchange
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		no, err := allocateNumber(ctx, s.seq, p.OrgID, repository.SeqExchange, 0, nil)
		if err != nil {
			return err
		}

		x := &model.Exchange{
			OrgID:              p.OrgID,
			No:                 no,
			CustomerID:         p.CustomerID,
			SaleCurrencyID:     p.SaleCurrencyID,
			PurchaseCurrencyID: p.PurchaseCurrencyID,
			SaleAmount:         p.SaleAmount,
			PurchaseAmount:     p.PurchaseAmount,
			Rate:               p.Rate,
			Swap:               p.Swap,
			Calculate:          p.Calculate,
			Date:               defaultDate(p.Date),
			EmployeeID:         p.EmployeeID,
		}

		created, err = s.repo.Create(ctx, x)
		if err != nil {
			return fmt.Errorf("create record: %w", err)
		}
		if err := applyMapped(ctx, s.accounts, p.OrgID, ledger.ForExchange(created)); err != nil {
			return err
		}

		// Track the acquired side as an inventory lot with its cost basis.
		acquiredCurrency := created.PurchaseCurrencyID
		acquiredAmount := created.PurchaseAmount
		if created.Swap {
			acquiredCurrency = created.SaleCurrencyID
			acquiredAmount = created.SaleAmount
		}
		_, err = s.repo.CreateRemaining(ctx, &model.ExchangeRemaining{
			OrgID:      created.OrgID,
			ExchangeID: created.ID,
			CurrencyID: acquiredCurrency,
			Remaining:  acquiredAmount,
			CostRate:   created.Rate,
		})
		if err != nil {
			return fmt.Errorf("create remaining lot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *ExchangeService) Get(ctx context.Context, orgID, id int64) (*model.Exchange, error) {
	x, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return x, nil
}

func (s *ExchangeService) List(ctx context.Context, f model.ExchangeFilter) ([]*model.Exchange, int64, error) {
	return s.repo.List(ctx, f)
}

// Delete soft-flags the record and reverses the conversion per the stored
// swap direction. The remaining lot stays: consumed inventory is history.
func (s *ExchangeService) Delete(ctx context.Context, orgID, id int64) error {
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
		return applyMapped(ctx, s.accounts, orgID, ledger.ForExchange(old).Inverted())
	})
}
