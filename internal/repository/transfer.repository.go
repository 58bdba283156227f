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

type TransferRepository struct {
	*pg.DB
}

func NewTransferRepository(db *pg.DB) *TransferRepository {
	return &TransferRepository{
		db,
	}
}

func (r *TransferRepository) Create(ctx context.Context, t *model.Transfer) (*model.Transfer, error) {
	entity := toTransferEntity(t)
	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toTransferModel(entity), nil
}

func (r *TransferRepository) Get(ctx context.Context, orgID, id int64) (*model.Transfer, error) {
	var entity TransferEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return toTransferModel(&entity), nil
}

// GetByNo resolves a transfer by its sequence number. Relay receives record
// the linked transfer's number, not its id.
func (r *TransferRepository) GetByNo(ctx context.Context, orgID, no int64) (*model.Transfer, error) {
	var entity TransferEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("org_id = ? AND no = ?", orgID, no).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return toTransferModel(&entity), nil
}

// Save persists the full set of mutable fields. Used by update, which has
// already re-derived the balance effects from the new values.
func (r *TransferRepository) Save(ctx context.Context, t *model.Transfer) error {
	entity := toTransferEntity(t)
	result := r.Write(ctx).WithContext(ctx).
		Model(&TransferEntity{}).
		Where("org_id = ? AND id = ?", t.OrgID, t.ID).
		Updates(map[string]interface{}{
			"transfer_amount": entity.TransferAmount,
			"charges_amount":  entity.ChargesAmount,
			"branch_charges":  entity.BranchCharges,
			"to_where":        entity.ToWhere,
			"customer_id":     entity.CustomerID,
			"sender_id":       entity.SenderID,
			"receiver_id":     entity.ReceiverID,
			"currency_id":     entity.CurrencyID,
			"date":            entity.Date,
			"deleted":         entity.Deleted,
			"rejected":        entity.Rejected,
			"reversed":        entity.Reversed,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *TransferRepository) MarkDeleted(ctx context.Context, orgID, id int64) error {
	return r.setFlags(ctx, orgID, id, map[string]interface{}{"deleted": true})
}

func (r *TransferRepository) MarkRejected(ctx context.Context, orgID, id int64, reversed bool) error {
	return r.setFlags(ctx, orgID, id, map[string]interface{}{"rejected": true, "reversed": reversed})
}

func (r *TransferRepository) setFlags(ctx context.Context, orgID, id int64, updates map[string]interface{}) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&TransferEntity{}).
		Where("org_id = ? AND id = ?", orgID, id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *TransferRepository) List(ctx context.Context, f model.TransferFilter) ([]*model.Transfer, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&TransferEntity{}).
		Where("org_id = ? AND deleted = ?", f.OrgID, false)

	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.ToWhere != nil {
		q = q.Where("to_where = ?", *f.ToWhere)
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

	var entities []*TransferEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}
	return toTransferModels(entities), total, nil
}

// SumOutForDay returns the day's outbound transfer principal for one
// currency. Rejected-but-not-reversed rows still count: the cash left.
func (r *TransferRepository) SumOutForDay(ctx context.Context, orgID, currencyID int64, day time.Time) (decimal.Decimal, error) {
	start, end := model.DayBounds(day)

	var row struct {
		Total decimal.Decimal
	}
	err := r.Read(ctx).WithContext(ctx).
		Model(&TransferEntity{}).
		Select("COALESCE(SUM(transfer_amount), 0) AS total").
		Where("org_id = ? AND currency_id = ? AND deleted = ? AND reversed = ? AND date >= ? AND date < ?",
			orgID, currencyID, false, false, start, end).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}
