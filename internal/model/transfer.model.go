package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Transfer is a directed value movement to a destination branch. ChargesAmount
// is the fee taken from the sender, BranchCharges the fee added at the
// destination branch; the two are distinct ledger effects and are never netted
// against the moved principal.
type Transfer struct {
	ID             int64           `json:"id"`
	OrgID          int64           `json:"org_id"`
	No             int64           `json:"no"`
	TransferAmount decimal.Decimal `json:"transfer_amount"`
	ChargesAmount  decimal.Decimal `json:"charges_amount"`
	BranchCharges  decimal.Decimal `json:"branch_charges"`
	ToWhere        int64           `json:"to_where"`
	CustomerID     *int64          `json:"customer_id,omitempty"`
	SenderID       *int64          `json:"sender_id,omitempty"`
	ReceiverID     *int64          `json:"receiver_id,omitempty"`
	CurrencyID     int64           `json:"currency_id"`
	Date           time.Time       `json:"date"`
	EmployeeID     int64           `json:"employee_id"`
	Deleted        bool            `json:"deleted"`
	Rejected       bool            `json:"rejected"`
	Reversed       bool            `json:"reversed"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (t *Transfer) Lifecycle() Lifecycle {
	return lifecycleOf(t.Deleted, t.Rejected, t.Reversed)
}

type TransferCreateRequest struct {
	OrgID          int64
	TransferAmount decimal.Decimal
	ChargesAmount  decimal.Decimal
	BranchCharges  decimal.Decimal
	ToWhere        int64
	CustomerID     *int64
	CurrencyID     int64
	Date           time.Time
	EmployeeID     int64
	SenderName     string
	SenderPhone    string
	ReceiverName   string
	ReceiverPhone  string
	ManualNo       *int64
}

func (p TransferCreateRequest) Validate() error {
	if p.OrgID == 0 {
		return errors.New("org_id is required")
	}
	if !p.TransferAmount.IsPositive() {
		return errors.New("transfer_amount must be positive")
	}
	if p.ChargesAmount.IsNegative() || p.BranchCharges.IsNegative() {
		return ErrNegativeAmount
	}
	if p.ToWhere == 0 {
		return errors.New("to_where is required")
	}
	if p.CurrencyID == 0 {
		return errors.New("currency_id is required")
	}
	return nil
}

type TransferFilter struct {
	OrgID      int64
	CustomerID *int64
	ToWhere    *int64
	CurrencyID *int64
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
	Desc       bool
}
