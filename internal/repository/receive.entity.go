package repository

import (
	"time"

	"github.com/sarafbook/ledger/internal/model"
	"github.com/shopspring/decimal"
)

type ReceiveEntity struct {
	ID                int64           `db:"id"                  gorm:"primaryKey;autoIncrement;column:id"`
	OrgID             int64           `db:"org_id"              gorm:"column:org_id;not null;index"`
	ReceiveNo         int64           `db:"receive_no"          gorm:"column:receive_no;not null"`
	ReceiveAmount     decimal.Decimal `db:"receive_amount"      gorm:"column:receive_amount;type:decimal(20,4);not null"`
	ChargesAmount     decimal.Decimal `db:"charges_amount"      gorm:"column:charges_amount;type:decimal(20,4);not null;default:0"`
	ChargesType       string          `db:"charges_type"        gorm:"column:charges_type"`
	BranchCharges     decimal.Decimal `db:"branch_charges"      gorm:"column:branch_charges;type:decimal(20,4);not null;default:0"`
	BranchChargesType string          `db:"branch_charges_type" gorm:"column:branch_charges_type"`
	FromWhere         int64           `db:"from_where"          gorm:"column:from_where;not null;index"`
	PassTo            *int64          `db:"pass_to"             gorm:"column:pass_to"`
	PassNo            *int64          `db:"pass_no"             gorm:"column:pass_no"`
	CustomerID        *int64          `db:"customer_id"         gorm:"column:customer_id;index"`
	CurrencyID        int64           `db:"currency_id"         gorm:"column:currency_id;not null"`
	SenderID          *int64          `db:"sender_id"           gorm:"column:sender_id"`
	ReceiverID        *int64          `db:"receiver_id"         gorm:"column:receiver_id"`
	Date              time.Time       `db:"date"                gorm:"column:date;not null;index"`
	EmployeeID        int64           `db:"employee_id"         gorm:"column:employee_id;not null"`
	Deleted           bool            `db:"deleted"             gorm:"column:deleted;not null;default:false"`
	Rejected          bool            `db:"rejected"            gorm:"column:rejected;not null;default:false"`
	Reversed          bool            `db:"reversed"            gorm:"column:reversed;not null;default:false"`
	CreatedAt         time.Time       `db:"created_at"          gorm:"column:created_at;autoCreateTime"`
}

func (ReceiveEntity) TableName() string {
	return "receives"
}

func toReceiveEntity(m *model.Receive) *ReceiveEntity {
	if m == nil {
		return nil
	}
	return &ReceiveEntity{
		ID:                m.ID,
		OrgID:             m.OrgID,
		ReceiveNo:         m.ReceiveNo,
		ReceiveAmount:     m.ReceiveAmount,
		ChargesAmount:     m.ChargesAmount,
		ChargesType:       m.ChargesType,
		BranchCharges:     m.BranchCharges,
		BranchChargesType: m.BranchChargesType,
		FromWhere:         m.FromWhere,
		PassTo:            m.PassTo,
		PassNo:            m.PassNo,
		CustomerID:        m.CustomerID,
		CurrencyID:        m.CurrencyID,
		SenderID:          m.SenderID,
		ReceiverID:        m.ReceiverID,
		Date:              m.Date,
		EmployeeID:        m.EmployeeID,
		Deleted:           m.Deleted,
		Rejected:          m.Rejected,
		Reversed:          m.Reversed,
		CreatedAt:         m.CreatedAt,
	}
}

func toReceiveModel(e *ReceiveEntity) *model.Receive {
	if e == nil {
		return nil
	}
	return &model.Receive{
		ID:                e.ID,
		OrgID:             e.OrgID,
		ReceiveNo:         e.ReceiveNo,
		ReceiveAmount:     e.ReceiveAmount,
		ChargesAmount:     e.ChargesAmount,
		ChargesType:       e.ChargesType,
		BranchCharges:     e.BranchCharges,
		BranchChargesType: e.BranchChargesType,
		FromWhere:         e.FromWhere,
		PassTo:            e.PassTo,
		PassNo:            e.PassNo,
		CustomerID:        e.CustomerID,
		CurrencyID:        e.CurrencyID,
		SenderID:          e.SenderID,
		ReceiverID:        e.ReceiverID,
		Date:              e.Date,
		EmployeeID:        e.EmployeeID,
		Deleted:           e.Deleted,
		Rejected:          e.Rejected,
		Reversed:          e.Reversed,
		CreatedAt:         e.CreatedAt,
	}
}

func toReceiveModels(entities []*ReceiveEntity) []*model.Receive {
	if entities == nil {
		return nil
	}
	models := make([]*model.Receive, len(entities))
	for i, e := range entities {
		models[i] = toReceiveModel(e)
	}
	return models
}
