package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sarafbook/ledger/internal/model"
	"github.com/sarafbook/ledger/internal/repository"
)

var ErrAccountExists = errors.New("account already exists for owner and currency")

type AccountRepository interface {
	Open(ctx context.Context, acc *model.Account) (*model.Account, error)
	Get(ctx context.Context, orgID int64, key model.AccountKey) (*model.Account, error)
	List(ctx context.Context, f model.AccountFilter) ([]*model.Account, int64, error)
	Close(ctx context.Context, orgID int64, key model.AccountKey) error
}

type AccountService struct {
	accounts AccountRepository
	owners   OwnerRegistry
}

func NewAccountService(accounts AccountRepository, owners OwnerRegistry) *AccountService {
	return &AccountService{
		accounts: accounts,
		owners:   owners,
	}
}

func (s *AccountService) Open(ctx context.Context, p model.AccountOpenRequest) (*model.Account, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.owners.Get(ctx, p.OrgID, p.CustomerID); err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("resolve owner: %w", err)
	}

	acc, err := s.accounts.Open(ctx, &model.Account{
		OrgID:           p.OrgID,
		CustomerID:      p.CustomerID,
		CurrencyID:      p.CurrencyID,
		SMSEnabled:      p.SMSEnabled,
		WhatsappEnabled: p.WhatsappEnabled,
		TelegramEnabled: p.TelegramEnabled,
	})
	if err != nil {
		if errors.Is(err, repository.ErrAccountExists) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("open account: %w", err)
	}
	return acc, nil
}

func (s *AccountService) Get(ctx context.Context, orgID int64, key model.AccountKey) (*model.Account, error) {
	acc, err := s.accounts.Get(ctx, orgID, key)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return acc, nil
}

func (s *AccountService) List(ctx context.Context, f model.AccountFilter) ([]*model.Account, int64, error) {
	return s.accounts.List(ctx, f)
}

func (s *AccountService) Close(ctx context.Context, orgID int64, key model.AccountKey) error {
	if err := s.accounts.Close(ctx, orgID, key); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return err
	}
	return nil
}
