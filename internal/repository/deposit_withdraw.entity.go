package repository

import (
	"time"

	"github.com/sarafbook/ledger/internal/model"
	"github.com/shopspring/decimal"
)

type DepositWithdrawEntity struct {
	ID                 int64           `db:"id"                   gorm:"primaryKey;autoIncrement;column:id"`
	OrgID              int64           `db:"org_id"               gorm:"column:org_id;not null;index"`
	No                 int64           `db:"no"                   gorm:"column:no;not null"`
	CustomerID         int64           `db:"customer_id"          gorm:"column:customer_id;not null;index"`
	CurrencyID         int64           `db:"currency_id"          gorm:"column:currency_id;not null"`
	Deposit            decimal.Decimal `db:"deposit"              gorm:"column:deposit;type:decimal(20,4);not null;default:0"`
	Withdraw           decimal.Decimal `db:"withdraw"             gorm:"column:withdraw;type:decimal(20,4);not null;default:0"`
	Date               time.Time       `db:"date"                 gorm:"column:date;not null;index"`
	EmployeeID         int64           `db:"employee_id"          gorm:"column:employee_id;not null"`
	Description        string          `db:"description"          gorm:"column:description"`
	WithdrawReturnDate *time.Time      `db:"withdraw_return_date" gorm:"column:withdraw_return_date"`
	Deleted            bool            `db:"deleted"              gorm:"column:deleted;not null;default:false"`
	CreatedAt          time.Time       `db:"created_at"           gorm:"column:created_at;autoCreateTime"`
}

func (DepositWithdrawEntity) TableName() string {
	return "deposit_withdraws"
}

func toDepositWithdrawEntity(m *model.DepositWithdraw) *DepositWithdrawEntity {
	if m == nil {
		return nil
	}
	return &DepositWithdrawEntity{
		ID:                 m.ID,
		OrgID:              m.OrgID,
		No:                 m.No,
		CustomerID:         m.CustomerID,
		CurrencyID:         m.CurrencyID,
		Deposit:            m.Deposit,
		Withdraw:           m.Withdraw,
		Date:               m.Date,
		EmployeeID:         m.EmployeeID,
		Description:        m.Description,
		WithdrawReturnDate: m.WithdrawReturnDate,
		Deleted:            m.Deleted,
		CreatedAt:          m.CreatedAt,
	}
}

func toDepositWithdrawModel(e *DepositWithdrawEntity) *model.DepositWithdraw {
	if e == nil {
		return nil
	}
	return &model.DepositWithdraw{
		ID:                 e.ID,
		OrgID:              e.OrgID,
		No:                 e.No,
		CustomerID:         e.CustomerID,
		CurrencyID:         e.CurrencyID,
		Deposit:            e.Deposit,
		Withdraw:           e.Withdraw,
		Date:               e.Date,
		EmployeeID:         e.EmployeeID,
		Description:        e.Description,
		WithdrawReturnDate: e.WithdrawReturnDate,
		Deleted:            e.Deleted,
		CreatedAt:          e.CreatedAt,
	}
}

func toDepositWithdrawModels(entities []*DepositWithdrawEntity) []*model.DepositWithdraw {
	if entities == nil {
		return nil
	}
	models := make([]*model.DepositWithdraw, len(entities))
	for i, e := range entities {
		models[i] = toDepositWithdrawModel(e)
	}
	return models
}
