package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sarafbook/ledger/internal/model"
	"github.com/sarafbook/ledger/pkg/pg"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrTillNotFound = errors.New("till not found")

type TillEntity struct {
	ID             int64           `db:"id"              gorm:"primaryKey;autoIncrement;column:id"`
	OrgID          int64           `db:"org_id"          gorm:"column:org_id;not null;uniqueIndex:idx_till_day"`
	CurrencyID     int64           `db:"currency_id"     gorm:"column:currency_id;not null;uniqueIndex:idx_till_day"`
	Date           time.Time       `db:"date"            gorm:"column:date;not null;uniqueIndex:idx_till_day"`
	OpeningBalance decimal.Decimal `db:"opening_balance" gorm:"column:opening_balance;type:decimal(20,4);not null;default:0"`
	TotalIn        decimal.Decimal `db:"total_in"        gorm:"column:total_in;type:decimal(20,4);not null;default:0"`
	TotalOut       decimal.Decimal `db:"total_out"       gorm:"column:total_out;type:decimal(20,4);not null;default:0"`
	ClosingBalance decimal.Decimal `db:"closing_balance" gorm:"column:closing_balance;type:decimal(20,4);not null;default:0"`
	ActualCash     decimal.Decimal `db:"actual_cash"     gorm:"column:actual_cash;type:decimal(20,4);not null;default:0"`
	Difference     decimal.Decimal `db:"difference"      gorm:"column:difference;type:decimal(20,4);not null;default:0"`
	Status         string          `db:"status"          gorm:"column:status;not null;default:open"`
	ClosedBy       *int64          `db:"closed_by"       gorm:"column:closed_by"`
	ClosedAt       *time.Time      `db:"closed_at"       gorm:"column:closed_at"`
	CreatedAt      time.Time       `db:"created_at"      gorm:"column:created_at;autoCreateTime"`
}

func (TillEntity) TableName() string {
	return "tills"
}

func toTillModel(e *TillEntity) *model.Till {
	if e == nil {
		return nil
	}
	return &model.Till{
		ID:             e.ID,
		OrgID:          e.OrgID,
		CurrencyID:     e.CurrencyID,
		Date:           e.Date,
		OpeningBalance: e.OpeningBalance,
		TotalIn:        e.TotalIn,
		TotalOut:       e.TotalOut,
		ClosingBalance: e.ClosingBalance,
		ActualCash:     e.ActualCash,
		Difference:     e.Difference,
		Status:         model.TillStatus(e.Status),
		ClosedBy:       e.ClosedBy,
		ClosedAt:       e.ClosedAt,
		CreatedAt:      e.CreatedAt,
	}
}

type TillRepository struct {
	*pg.DB
}

func NewTillRepository(db *pg.DB) *TillRepository {
	return &TillRepository{
		db,
	}
}

// GetForUpdate loads the day's row under a FOR UPDATE lock so a recompute
// and a close cannot interleave.
func (r *TillRepository) GetForUpdate(ctx context.Context, orgID, currencyID int64, day time.Time) (*model.Till, error) {
	start, _ := model.DayBounds(day)

	var entity TillEntity
	err := r.Write(ctx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("org_id = ? AND currency_id = ? AND date = ?", orgID, currencyID, start).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTillNotFound
		}
		return nil, err
	}
	return toTillModel(&entity), nil
}

func (r *TillRepository) Create(ctx context.Context, t *model.Till) (*model.Till, error) {
	start, _ := model.DayBounds(t.Date)
	entity := &TillEntity{
		OrgID:          t.OrgID,
		CurrencyID:     t.CurrencyID,
		Date:           start,
		OpeningBalance: t.OpeningBalance,
		TotalIn:        t.TotalIn,
		TotalOut:       t.TotalOut,
		ClosingBalance: t.ClosingBalance,
		Status:         string(model.TillOpen),
	}
	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toTillModel(entity), nil
}

// PreviousClosing returns the closing balance of the most recent till row
// strictly before the given day, zero on the first-ever day.
func (r *TillRepository) PreviousClosing(ctx context.Context, orgID, currencyID int64, day time.Time) (decimal.Decimal, error) {
	start, _ := model.DayBounds(day)

	var entity TillEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("org_id = ? AND currency_id = ? AND date < ?", orgID, currencyID, start).
		Order("date DESC").
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return entity.ClosingBalance, nil
}

func (r *TillRepository) SetTotals(ctx context.Context, id int64, in, out, closing decimal.Decimal) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&TillEntity{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_in":        in,
			"total_out":       out,
			"closing_balance": closing,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTillNotFound
	}
	return nil
}

func (r *TillRepository) SetClosed(ctx context.Context, id int64, actualCash, difference decimal.Decimal, closedBy int64, closedAt time.Time) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&TillEntity{}).
		Where("id = ? AND status = ?", id, string(model.TillOpen)).
		Updates(map[string]interface{}{
			"actual_cash": actualCash,
			"difference":  difference,
			"status":      string(model.TillClosed),
			"closed_by":   closedBy,
			"closed_at":   closedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTillNotFound
	}
	return nil
}

func (r *TillRepository) History(ctx context.Context, orgID, currencyID int64, limit, offset int) ([]*model.Till, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&TillEntity{}).
		Where("org_id = ? AND currency_id = ?", orgID, currencyID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var entities []*TillEntity
	if err := q.Order("date DESC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	models := make([]*model.Till, len(entities))
	for i, e := range entities {
		models[i] = toTillModel(e)
	}
	return models, total, nil
}
