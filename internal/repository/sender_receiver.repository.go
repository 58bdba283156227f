package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sarafbook/ledger/internal/model"
	"github.com/sarafbook/ledger/pkg/pg"
	"gorm.io/gorm"
)

type SenderReceiverEntity struct {
	ID        int64     `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	OrgID     int64     `db:"org_id"     gorm:"column:org_id;not null;index:idx_sender_receiver_identity"`
	Name      string    `db:"name"       gorm:"column:name;not null;index:idx_sender_receiver_identity"`
	Phone     string    `db:"phone"      gorm:"column:phone;not null;index:idx_sender_receiver_identity"`
	IsSender  bool      `db:"is_sender"  gorm:"column:is_sender;not null;default:false"`
	CreatedAt time.Time `db:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (SenderReceiverEntity) TableName() string {
	return "sender_receivers"
}

func toSenderReceiverModel(e *SenderReceiverEntity) *model.SenderReceiver {
	if e == nil {
		return nil
	}
	return &model.SenderReceiver{
		ID:        e.ID,
		OrgID:     e.OrgID,
		Name:      e.Name,
		Phone:     e.Phone,
		IsSender:  e.IsSender,
		CreatedAt: e.CreatedAt,
	}
}

type SenderReceiverRepository struct {
	*pg.DB
}

func NewSenderReceiverRepository(db *pg.DB) *SenderReceiverRepository {
	return &SenderReceiverRepository{
		db,
	}
}

// FindOrCreate resolves an identity record by (org, name, phone, role),
// creating it on first sight. Idempotent within a transaction.
func (r *SenderReceiverRepository) FindOrCreate(ctx context.Context, orgID int64, name, phone string, isSender bool) (*model.SenderReceiver, error) {
	if name == "" {
		return nil, nil
	}

	var entity SenderReceiverEntity
	err := r.Write(ctx).WithContext(ctx).
		Where("org_id = ? AND name = ? AND phone = ? AND is_sender = ?", orgID, name, phone, isSender).
		First(&entity).Error
	if err == nil {
		return toSenderReceiverModel(&entity), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	entity = SenderReceiverEntity{OrgID: orgID, Name: name, Phone: phone, IsSender: isSender}
	if err := r.Write(ctx).WithContext(ctx).Create(&entity).Error; err != nil {
		return nil, err
	}
	return toSenderReceiverModel(&entity), nil
}

func (r *SenderReceiverRepository) Get(ctx context.Context, orgID, id int64) (*model.SenderReceiver, error) {
	var entity SenderReceiverEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return toSenderReceiverModel(&entity), nil
}
