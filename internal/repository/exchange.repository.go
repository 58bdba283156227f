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

type ExchangeRepository struct {
	*pg.DB
}

func NewExchangeRepository(db *pg.DB) *ExchangeRepository {
	return &ExchangeRepository{
		db,
	}
}

func (r *ExchangeRepository) Create(ctx context.Context, x *model.Exchange) (*model.Exchange, error) {
	entity := toExchangeEntity(x)
	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toExchangeModel(entity), nil
}

func (r *ExchangeRepository) Get(ctx context.Context, orgID, id int64) (*model.Exchange, error) {
	var entity ExchangeEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return toExchangeModel(&entity), nil
}

func (r *ExchangeRepository) MarkDeleted(ctx context.Context, orgID, id int64) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&ExchangeEntity{}).
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

// CreateRemaining writes the lot record tracking acquired value and its cost
// basis. Informational only; never reversed with the parent exchange.
func (r *ExchangeRepository) CreateRemaining(ctx context.Context, rem *model.ExchangeRemaining) (*model.ExchangeRemaining, error) {
	entity := &ExchangeRemainingEntity{
		OrgID:      rem.OrgID,
		ExchangeID: rem.ExchangeID,
		CurrencyID: rem.CurrencyID,
		Remaining:  rem.Remaining,
		CostRate:   rem.CostRate,
	}
	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toExchangeRemainingModel(entity), nil
}

func (r *ExchangeRepository) List(ctx context.Context, f model.ExchangeFilter) ([]*model.Exchange, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&ExchangeEntity{}).
		Where("org_id = ? AND deleted = ?", f.OrgID, false)

	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.CurrencyID != nil {
		q = q.Where("sale_currency_id = ? OR purchase_currency_id = ?", *f.CurrencyID, *f.CurrencyID)
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

	var entities []*ExchangeEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}
	return toExchangeModels(entities), total, nil
}

// SumForDay returns the day's exchange flow for one currency from the till's
// perspective. The swap flag decides which side of each record is inbound:
// a normal record takes sale currency in and pays purchase currency out, a
// swapped record does the opposite.
func (r *ExchangeRepository) SumForDay(ctx context.Context, orgID, currencyID int64, day time.Time) (in, out decimal.Decimal, err error) {
	start, end := model.DayBounds(day)

	var entities []*ExchangeEntity
	err = r.Read(ctx).WithContext(ctx).
		Where("org_id = ? AND deleted = ? AND date >= ? AND date < ? AND (sale_currency_id = ? OR purchase_currency_id = ?)",
			orgID, false, start, end, currencyID, currencyID).
		Find(&entities).Error
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	in, out = decimal.Zero, decimal.Zero
	for _, e := range entities {
		saleInbound := !e.Swap
		if e.SaleCurrencyID == currencyID {
			if saleInbound {
				in = in.Add(e.SaleAmount)
			} else {
				out = out.Add(e.SaleAmount)
			}
		}
		if e.PurchaseCurrencyID == currencyID {
			if saleInbound {
				out = out.Add(e.PurchaseAmount)
			} else {
				in = in.Add(e.PurchaseAmount)
			}
		}
	}
	return in, out, nil
}
