package repository

import (
	"context"
	"errors"

	"github.com/sarafbook/ledger/internal/model"
	"github.com/sarafbook/ledger/pkg/pg"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountExists     = errors.New("account already exists for owner and currency")
	ErrNonPositiveAmount = errors.New("amount must be positive")
)

type AccountRepository struct {
	*pg.DB
}

func NewAccountRepository(db *pg.DB) *AccountRepository {
	return &AccountRepository{
		db,
	}
}

// Open creates the balance row for an (owner, currency) pair. At most one
// live account may exist per pair.
func (r *AccountRepository) Open(ctx context.Context, acc *model.Account) (*model.Account, error) {
	var count int64
	err := r.Write(ctx).WithContext(ctx).
		Model(&AccountEntity{}).
		Where("org_id = ? AND customer_id = ? AND currency_id = ? AND deleted = ?",
			acc.OrgID, acc.CustomerID, acc.CurrencyID, false).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrAccountExists
	}

	entity := toAccountEntity(acc)
	entity.Active = true
	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toAccountModel(entity), nil
}

func (r *AccountRepository) Get(ctx context.Context, orgID int64, key model.AccountKey) (*model.Account, error) {
	var entity AccountEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("org_id = ? AND customer_id = ? AND currency_id = ? AND active = ? AND deleted = ?",
			orgID, key.OwnerID, key.CurrencyID, true, false).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return toAccountModel(&entity), nil
}

// Credit adds amount to the balance. Must run inside the caller's
// transaction; the row is locked FOR UPDATE and the balance is moved with a
// relative delta so concurrent operations cannot overwrite each other.
func (r *AccountRepository) Credit(ctx context.Context, orgID int64, key model.AccountKey, amount decimal.Decimal) error {
	return r.applyDelta(ctx, orgID, key, amount)
}

// Debit subtracts amount from the balance. There is deliberately no
// overdraft guard: balances may go negative, shortfalls surface through the
// till variance instead.
func (r *AccountRepository) Debit(ctx context.Context, orgID int64, key model.AccountKey, amount decimal.Decimal) error {
	return r.applyDelta(ctx, orgID, key, amount.Neg())
}

func (r *AccountRepository) applyDelta(ctx context.Context, orgID int64, key model.AccountKey, delta decimal.Decimal) error {
	if delta.IsZero() {
		return ErrNonPositiveAmount
	}

	var entity AccountEntity
	err := r.Write(ctx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("org_id = ? AND customer_id = ? AND currency_id = ? AND active = ? AND deleted = ?",
			orgID, key.OwnerID, key.CurrencyID, true, false).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountNotFound
		}
		return err
	}

	result := r.Write(ctx).WithContext(ctx).
		Model(&AccountEntity{}).
		Where("id = ?", entity.ID).
		Update("credit", gorm.Expr("credit + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) List(ctx context.Context, f model.AccountFilter) ([]*model.Account, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&AccountEntity{}).
		Where("org_id = ? AND deleted = ?", f.OrgID, false)

	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.CurrencyID != nil {
		q = q.Where("currency_id = ?", *f.CurrencyID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*AccountEntity
	if err := q.Order("created_at ASC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}
	return toAccountModels(entities), total, nil
}

// Close soft-flags the account. Balances are never hard-deleted.
func (r *AccountRepository) Close(ctx context.Context, orgID int64, key model.AccountKey) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&AccountEntity{}).
		Where("org_id = ? AND customer_id = ? AND currency_id = ? AND deleted = ?",
			orgID, key.OwnerID, key.CurrencyID, false).
		Updates(map[string]interface{}{"active": false, "deleted": true})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}
