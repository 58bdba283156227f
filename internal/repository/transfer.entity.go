package repository

import (
	"time"

	"github.com/sarafbook/ledger/internal/model"
	"github.com/shopspring/decimal"
)

type TransferEntity struct {
	ID             int64           `db:"id"              gorm:"primaryKey;autoIncrement;column:id"`
	OrgID          int64           `db:"org_id"          gorm:"column:org_id;not null;index"`
	No             int64           `db:"no"              gorm:"column:no;not null"`
	TransferAmount decimal.Decimal `db:"transfer_amount" gorm:"column:transfer_amount;type:decimal(20,4);not null"`
	ChargesAmount  decimal.Decimal `db:"charges_amount"  gorm:"column:charges_amount;type:decimal(20,4);not null;default:0"`
	BranchCharges  decimal.Decimal `db:"branch_charges"  gorm:"column:branch_charges;type:decimal(20,4);not null;default:0"`
	ToWhere        int64           `db:"to_where"        gorm:"column:to_where;not null;index"`
	CustomerID     *int64          `db:"customer_id"     gorm:"column:customer_id;index"`
	SenderID       *int64          `db:"sender_id"       gorm:"column:sender_id"`
	ReceiverID     *int64          `db:"receiver_id"     gorm:"column:receiver_id"`
	CurrencyID     int64           `db:"currency_id"     gorm:"column:currency_id;not null"`
	Date           time.Time       `db:"date"            gorm:"column:date;not null;index"`
	EmployeeID     int64           `db:"employee_id"     gorm:"column:employee_id;not null"`
	Deleted        bool            `db:"deleted"         gorm:"column:deleted;not null;default:false"`
	Rejected       bool            `db:"rejected"        gorm:"column:rejected;not null;default:false"`
	Reversed       bool            `db:"reversed"        gorm:"column:reversed;not null;default:false"`
	CreatedAt      time.Time       `db:"created_at"      gorm:"column:created_at;autoCreateTime"`
}

func (TransferEntity) TableName() string {
	return "transfers"
}

func toTransferEntity(m *model.Transfer) *TransferEntity {
	if m == nil {
		return nil
	}
	return &TransferEntity{
		ID:             m.ID,
		OrgID:          m.OrgID,
		No:             m.No,
		TransferAmount: m.TransferAmount,
		ChargesAmount:  m.ChargesAmount,
		BranchCharges:  m.BranchCharges,
		ToWhere:        m.ToWhere,
		CustomerID:     m.CustomerID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		CurrencyID:     m.CurrencyID,
		Date:           m.Date,
		EmployeeID:     m.EmployeeID,
		Deleted:        m.Deleted,
		Rejected:       m.Rejected,
		Reversed:       m.Reversed,
		CreatedAt:      m.CreatedAt,
	}
}

func toTransferModel(e *TransferEntity) *model.Transfer {
	if e == nil {
		return nil
	}
	return &model.Transfer{
		ID:             e.ID,
		OrgID:          e.OrgID,
		No:             e.No,
		TransferAmount: e.TransferAmount,
		ChargesAmount:  e.ChargesAmount,
		BranchCharges:  e.BranchCharges,
		ToWhere:        e.ToWhere,
		CustomerID:     e.CustomerID,
		SenderID:       e.SenderID,
		ReceiverID:     e.ReceiverID,
		CurrencyID:     e.CurrencyID,
		Date:           e.Date,
		EmployeeID:     e.EmployeeID,
		Deleted:        e.Deleted,
		Rejected:       e.Rejected,
		Reversed:       e.Reversed,
		CreatedAt:      e.CreatedAt,
	}
}

func toTransferModels(entities []*TransferEntity) []*model.Transfer {
	if entities == nil {
		return nil
	}
	models := make([]*model.Transfer, len(entities))
	for i, e := range entities {
		models[i] = toTransferModel(e)
	}
	return models
}
