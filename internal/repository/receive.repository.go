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

type ReceiveRepository struct {
	*pg.DB
}

func NewReceiveRepository(db *pg.DB) *ReceiveRepository {
	return &ReceiveRepository{
		db,
	}
}

func (r *ReceiveRepository) Create(ctx context.Context, rec *model.Receive) (*model.Receive, error) {
	entity := toReceiveEntity(rec)
	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toReceiveModel(entity), nil
}

func (r *ReceiveRepository) Get(ctx context.Context, orgID, id int64) (*model.Receive, error) {
	var entity ReceiveEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return toReceiveModel(&entity), nil
}

func (r *ReceiveRepository) Save(ctx context.Context, rec *model.Receive) error {
	entity := toReceiveEntity(rec)
	result := r.Write(ctx).WithContext(ctx).
		Model(&ReceiveEntity{}).
		Where("org_id = ? AND id = ?", rec.OrgID, rec.ID).
		Updates(map[string]interface{}{
			"receive_amount":      entity.ReceiveAmount,
			"charges_amount":      entity.ChargesAmount,
			"charges_type":        entity.ChargesType,
			"branch_charges":      entity.BranchCharges,
			"branch_charges_type": entity.BranchChargesType,
			"from_where":          entity.FromWhere,
			"pass_to":             entity.PassTo,
			"pass_no":             entity.PassNo,
			"customer_id":         entity.CustomerID,
			"currency_id":         entity.CurrencyID,
			"sender_id":           entity.SenderID,
			"receiver_id":         entity.ReceiverID,
			"date":                entity.Date,
			"deleted":             entity.Deleted,
			"rejected":            entity.Rejected,
			"reversed":            entity.Reversed,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// UpdateIdentity patches the sender/receiver identity links only; it never
// touches amounts or destination fields.
func (r *ReceiveRepository) UpdateIdentity(ctx context.Context, orgID, id int64, senderID, receiverID *int64) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&ReceiveEntity{}).
		Where("org_id = ? AND id = ? AND deleted = ?", orgID, id, false).
		Updates(map[string]interface{}{"sender_id": senderID, "receiver_id": receiverID})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *ReceiveRepository) MarkDeleted(ctx context.Context, orgID, id int64) error {
	return r.setFlags(ctx, orgID, id, map[string]interface{}{"deleted": true})
}

func (r *ReceiveRepository) MarkRejected(ctx context.Context, orgID, id int64, reversed bool) error {
	return r.setFlags(ctx, orgID, id, map[string]interface{}{"rejected": true, "reversed": reversed})
}

func (r *ReceiveRepository) setFlags(ctx context.Context, orgID, id int64, updates map[string]interface{}) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&ReceiveEntity{}).
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

func (r *ReceiveRepository) List(ctx context.Context, f model.ReceiveFilter) ([]*model.Receive, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&ReceiveEntity{}).
		Where("org_id = ? AND deleted = ?", f.OrgID, false)

	if f.FromWhere != nil {
		q = q.Where("from_where = ?", *f.FromWhere)
	}
	if f.PassTo != nil {
		q = q.Where("pass_to = ?", *f.PassTo)
	}
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

	var entities []*ReceiveEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}
	return toReceiveModels(entities), total, nil
}

// SumInForDay returns the day's inbound remittance principal for one
// currency, excluding deleted and reversed rows.
func (r *ReceiveRepository) SumInForDay(ctx context.Context, orgID, currencyID int64, day time.Time) (decimal.Decimal, error) {
	start, end := model.DayBounds(day)

	var row struct {
		Total decimal.Decimal
	}
	err := r.Read(ctx).WithContext(ctx).
		Model(&ReceiveEntity{}).
		Select("COALESCE(SUM(receive_amount), 0) AS total").
		Where("org_id = ? AND currency_id = ? AND deleted = ? AND reversed = ? AND date >= ? AND date < ?",
			orgID, currencyID, false, false, start, end).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}
