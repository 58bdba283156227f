package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sarafbook/ledger/internal/model"
	"github.com/sarafbook/ledger/pkg/pg"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrRecordNotFound = errors.New("record not found")

type DepositWithdrawRepository struct {
	*pg.DB
}

func NewDepositWithdrawRepository(db *pg.DB) *DepositWithdrawRepository {
	return &DepositWithdrawRepository{
		db,
	}
}

func (r *DepositWithdrawRepository) Create(ctx context.Context, d *model.DepositWithdraw) (*model.DepositWithdraw, error) {
	entity := toDepositWithdrawEntity(d)
	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toDepositWithdrawModel(entity), nil
}

func (r *DepositWithdrawRepository) Get(ctx context.Context, orgID, id int64) (*model.DepositWithdraw, error) {
	var entity DepositWithdrawEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return toDepositWithdrawModel(&entity), nil
}

// UpdateMeta patches the non-monetary fields only. Amounts are immutable once
// written; monetary corrections go through delete and re-create.
func (r *DepositWithdrawRepository) UpdateMeta(ctx context.Context, orgID, id int64, patch model.DepositWithdrawPatch) error {
	updates := map[string]interface{}{}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.WithdrawReturnDate != nil {
		updates["withdraw_return_date"] = *patch.WithdrawReturnDate
	}
	if len(updates) == 0 {
		return nil
	}

	result := r.Write(ctx).WithContext(ctx).
		Model(&DepositWithdrawEntity{}).
		Where("org_id = ? AND id = ? AND deleted = ?", orgID, id, false).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *DepositWithdrawRepository) MarkDeleted(ctx context.Context, orgID, id int64) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&DepositWithdrawEntity{}).
		Where("org_id = ? AND id = ? AND deleted = ?", orgID, id, false).
		Update("deleted", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *DepositWithdrawRepository) List(ctx context.Context, f model.DepositWithdrawFilter) ([]*model.DepositWithdraw, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&DepositWithdrawEntity{}).
		Where("org_id = ? AND deleted = ?", f.OrgID, false)

	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.CurrencyID != nil {
		q = q.Where("currency_id = ?", *f.CurrencyID)
	}
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "date"
	if f.Desc {
		order += " DESC"
	} else {
		order += " ASC"
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*DepositWithdrawEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}
	return toDepositWithdrawModels(entities), total, nil
}

// SumForDay returns the day's deposit and withdrawal totals for one currency,
// excluding soft-deleted rows. Feeds the till recompute.
func (r *DepositWithdrawRepository) SumForDay(ctx context.Context, orgID, currencyID int64, day time.Time) (deposits, withdrawals decimal.Decimal, err error) {
	start, end := model.DayBounds(day)

	var row struct {
		Deposits    decimal.Decimal
		Withdrawals decimal.Decimal
	}
	err = r.Read(ctx).WithContext(ctx).
		Model(&DepositWithdrawEntity{}).
		Select("COALESCE(SUM(deposit), 0) AS deposits, COALESCE(SUM(withdraw), 0) AS withdrawals").
		Where("org_id = ? AND currency_id = ? AND deleted = ? AND date >= ? AND date < ?",
			orgID, currencyID, false, start, end).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return row.Deposits, row.Withdrawals, nil
}
