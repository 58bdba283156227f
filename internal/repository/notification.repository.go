package repository

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/sarafbook/ledger/internal/model"
	"github.com/sarafbook/ledger/pkg/pg"
	"github.com/shopspring/decimal"
)

type NotificationEntity struct {
	ID         int64           `db:"id"          gorm:"primaryKey;autoIncrement;column:id"`
	OrgID      int64           `db:"org_id"      gorm:"column:org_id;not null;index"`
	CustomerID int64           `db:"customer_id" gorm:"column:customer_id;not null;index"`
	EventID    string          `db:"event_id"    gorm:"column:event_id;not null;uniqueIndex"`
	Kind       string          `db:"kind"        gorm:"column:kind;not null"`
	Amount     decimal.Decimal `db:"amount"      gorm:"column:amount;type:decimal(20,4);not null"`
	CurrencyID int64           `db:"currency_id" gorm:"column:currency_id;not null"`
	Channels   pq.StringArray  `db:"channels"    gorm:"column:channels;type:text[]"`
	Status     string          `db:"status"      gorm:"column:status;not null;default:pending"`
	CreatedAt  time.Time       `db:"created_at"  gorm:"column:created_at;autoCreateTime"`
}

func (NotificationEntity) TableName() string {
	return "notifications"
}

func toNotificationModel(e *NotificationEntity) *model.Notification {
	if e == nil {
		return nil
	}
	return &model.Notification{
		ID:         e.ID,
		OrgID:      e.OrgID,
		CustomerID: e.CustomerID,
		EventID:    e.EventID,
		Kind:       e.Kind,
		Amount:     e.Amount,
		CurrencyID: e.CurrencyID,
		Channels:   e.Channels,
		Status:     model.NotificationStatus(e.Status),
		CreatedAt:  e.CreatedAt,
	}
}

type NotificationRepository struct {
	*pg.DB
}

func NewNotificationRepository(db *pg.DB) *NotificationRepository {
	return &NotificationRepository{
		db,
	}
}

func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	entity := &NotificationEntity{
		OrgID:      n.OrgID,
		CustomerID: n.CustomerID,
		EventID:    n.EventID,
		Kind:       n.Kind,
		Amount:     n.Amount,
		CurrencyID: n.CurrencyID,
		Channels:   n.Channels,
		Status:     string(n.Status),
	}
	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toNotificationModel(entity), nil
}

func (r *NotificationRepository) SetStatus(ctx context.Context, eventID string, status model.NotificationStatus) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&NotificationEntity{}).
		Where("event_id = ?", eventID).
		Update("status", string(status))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
