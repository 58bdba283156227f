package repository

import (
	"time"

	"github.com/sarafbook/ledger/internal/model"
	"github.com/shopspring/decimal"
)

type ExchangeEntity struct {
	ID                 int64           `db:"id"                   gorm:"primaryKey;autoIncrement;column:id"`
	OrgID              int64           `db:"org_id"               gorm:"column:org_id;not null;index"`
	No                 int64           `db:"no"                   gorm:"column:no;not null"`
	CustomerID         int64           `db:"customer_id"          gorm:"column:customer_id;not null;index"`
	SaleCurrencyID     int64           `db:"sale_currency_id"     gorm:"column:sale_currency_id;not null"`
	PurchaseCurrencyID int64           `db:"purchase_currency_id" gorm:"column:purchase_currency_id;not null"`
	SaleAmount         decimal.Decimal `db:"sale_amount"          gorm:"column:sale_amount;type:decimal(20,4);not null"`
	PurchaseAmount     decimal.Decimal `db:"purchase_amount"      gorm:"column:purchase_amount;type:decimal(20,4);not null"`
	Rate               decimal.Decimal `db:"rate"                 gorm:"column:rate;type:decimal(20,6);not null"`
	Swap               bool            `db:"swap"                 gorm:"column:swap;not null;default:false"`
	Calculate          bool            `db:"calculate"            gorm:"column:calculate;not null;default:false"`
	Date               time.Time       `db:"date"                 gorm:"column:date;not null;index"`
	EmployeeID         int64           `db:"employee_id"          gorm:"column:employee_id;not null"`
	Deleted            bool            `db:"deleted"              gorm:"column:deleted;not null;default:false"`
	CreatedAt          time.Time       `db:"created_at"           gorm:"column:created_at;autoCreateTime"`
}

func (ExchangeEntity) TableName() string {
	return "exchanges"
}

type ExchangeRemainingEntity struct {
	ID         int64           `db:"id"          gorm:"primaryKey;autoIncrement;column:id"`
	OrgID      int64           `db:"org_id"      gorm:"column:org_id;not null;index"`
	ExchangeID int64           `db:"exchange_id" gorm:"column:exchange_id;not null;index"`
	CurrencyID int64           `db:"currency_id" gorm:"column:currency_id;not null"`
	Remaining  decimal.Decimal `db:"remaining"   gorm:"column:remaining;type:decimal(20,4);not null"`
	CostRate   decimal.Decimal `db:"cost_rate"   gorm:"column:cost_rate;type:decimal(20,6);not null"`
	CreatedAt  time.Time       `db:"created_at"  gorm:"column:created_at;autoCreateTime"`
}

func (ExchangeRemainingEntity) TableName() string {
	return "exchange_remainings"
}

func toExchangeEntity(m *model.Exchange) *ExchangeEntity {
	if m == nil {
		return nil
	}
	return &ExchangeEntity{
		ID:                 m.ID,
		OrgID:              m.OrgID,
		No:                 m.No,
		CustomerID:         m.CustomerID,
		SaleCurrencyID:     m.SaleCurrencyID,
		PurchaseCurrencyID: m.PurchaseCurrencyID,
		SaleAmount:         m.SaleAmount,
		PurchaseAmount:     m.PurchaseAmount,
		Rate:               m.Rate,
		Swap:               m.Swap,
		Calculate:          m.Calculate,
		Date:               m.Date,
		EmployeeID:         m.EmployeeID,
		Deleted:            m.Deleted,
		CreatedAt:          m.CreatedAt,
	}
}

func toExchangeModel(e *ExchangeEntity) *model.Exchange {
	if e == nil {
		return nil
	}
	return &model.Exchange{
		ID:                 e.ID,
		OrgID:              e.OrgID,
		No:                 e.No,
		CustomerID:         e.CustomerID,
		SaleCurrencyID:     e.SaleCurrencyID,
		PurchaseCurrencyID: e.PurchaseCurrencyID,
		SaleAmount:         e.SaleAmount,
		PurchaseAmount:     e.PurchaseAmount,
		Rate:               e.Rate,
		Swap:               e.Swap,
		Calculate:          e.Calculate,
		Date:               e.Date,
		EmployeeID:         e.EmployeeID,
		Deleted:            e.Deleted,
		CreatedAt:          e.CreatedAt,
	}
}

func toExchangeModels(entities []*ExchangeEntity) []*model.Exchange {
	if entities == nil {
		return nil
	}
	models := make([]*model.Exchange, len(entities))
	for i, e := range entities {
		models[i] = toExchangeModel(e)
	}
	return models
}

func toExchangeRemainingModel(e *ExchangeRemainingEntity) *model.ExchangeRemaining {
	if e == nil {
		return nil
	}
	return &model.ExchangeRemaining{
		ID:         e.ID,
		OrgID:      e.OrgID,
		ExchangeID: e.ExchangeID,
		CurrencyID: e.CurrencyID,
		Remaining:  e.Remaining,
		CostRate:   e.CostRate,
		CreatedAt:  e.CreatedAt,
	}
}
