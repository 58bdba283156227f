package repository

import (
	"time"

	"github.com/sarafbook/ledger/internal/model"
	"github.com/shopspring/decimal"
)

type AccountEntity struct {
	ID              int64           `db:"id"               gorm:"primaryKey;autoIncrement;column:id"`
	OrgID           int64           `db:"org_id"           gorm:"column:org_id;not null;index"`
	CustomerID      int64           `db:"customer_id"      gorm:"column:customer_id;not null;index:idx_account_owner_currency"`
	CurrencyID      int64           `db:"currency_id"      gorm:"column:currency_id;not null;index:idx_account_owner_currency"`
	Credit          decimal.Decimal `db:"credit"           gorm:"column:credit;type:decimal(20,4);not null;default:0"`
	Active          bool            `db:"active"           gorm:"column:active;not null;default:true"`
	Deleted         bool            `db:"deleted"          gorm:"column:deleted;not null;default:false"`
	SMSEnabled      bool            `db:"sms_enabled"      gorm:"column:sms_enabled;not null;default:false"`
	WhatsappEnabled bool            `db:"whatsapp_enabled" gorm:"column:whatsapp_enabled;not null;default:false"`
	TelegramEnabled bool            `db:"telegram_enabled" gorm:"column:telegram_enabled;not null;default:false"`
	CreatedAt       time.Time       `db:"created_at"       gorm:"column:created_at;autoCreateTime"`
}

func (AccountEntity) TableName() string {
	return "accounts"
}

func toAccountEntity(m *model.Account) *AccountEntity {
	if m == nil {
		return nil
	}
	return &AccountEntity{
		ID:              m.ID,
		OrgID:           m.OrgID,
		CustomerID:      m.CustomerID,
		CurrencyID:      m.CurrencyID,
		Credit:          m.Credit,
		Active:          m.Active,
		Deleted:         m.Deleted,
		SMSEnabled:      m.SMSEnabled,
		WhatsappEnabled: m.WhatsappEnabled,
		TelegramEnabled: m.TelegramEnabled,
		CreatedAt:       m.CreatedAt,
	}
}

func toAccountModel(e *AccountEntity) *model.Account {
	if e == nil {
		return nil
	}
	return &model.Account{
		ID:              e.ID,
		OrgID:           e.OrgID,
		CustomerID:      e.CustomerID,
		CurrencyID:      e.CurrencyID,
		Credit:          e.Credit,
		Active:          e.Active,
		Deleted:         e.Deleted,
		SMSEnabled:      e.SMSEnabled,
		WhatsappEnabled: e.WhatsappEnabled,
		TelegramEnabled: e.TelegramEnabled,
		CreatedAt:       e.CreatedAt,
	}
}

func toAccountModels(entities []*AccountEntity) []*model.Account {
	if entities == nil {
		return nil
	}
	models := make([]*model.Account, len(entities))
	for i, e := range entities {
		models[i] = toAccountModel(e)
	}
	return models
}
