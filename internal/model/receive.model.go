package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrConflictingDestination = errors.New("receive cannot have both pass_to and customer_id")

// ReceiveShape classifies where an inbound remittance goes. The shape is
// fixed at creation by which optional destination field is populated.
type ReceiveShape string

const (
	// ShapeDirectPayout absorbs the funds at the origin branch.
	ShapeDirectPayout ReceiveShape = "direct_payout"
	// ShapeBranchRelay forwards the funds to another branch and is mirrored
	// by a linked Transfer.
	ShapeBranchRelay ReceiveShape = "branch_relay"
	// ShapeCustomerPayout pays the funds into a customer account.
	ShapeCustomerPayout ReceiveShape = "customer_payout"
)

func ResolveShape(passTo, customerID *int64) (ReceiveShape, error) {
	switch {
	case passTo != nil && customerID != nil:
		return "", ErrConflictingDestination
	case passTo != nil:
		return ShapeBranchRelay, nil
	case customerID != nil:
		return ShapeCustomerPayout, nil
	default:
		return ShapeDirectPayout, nil
	}
}

// Receive models an inbound remittance arriving at FromWhere. ReceiveNo is
// scoped per organization and per origin branch, unlike Transfer numbering.
type Receive struct {
	ID                int64           `json:"id"`
	OrgID             int64           `json:"org_id"`
	ReceiveNo         int64           `json:"receive_no"`
	ReceiveAmount     decimal.Decimal `json:"receive_amount"`
	ChargesAmount     decimal.Decimal `json:"charges_amount"`
	ChargesType       string          `json:"charges_type"`
	BranchCharges     decimal.Decimal `json:"branch_charges"`
	BranchChargesType string          `json:"branch_charges_type"`
	FromWhere         int64           `json:"from_where"`
	PassTo            *int64          `json:"pass_to,omitempty"`
	PassNo            *int64          `json:"pass_no,omitempty"`
	CustomerID        *int64          `json:"customer_id,omitempty"`
	CurrencyID        int64           `json:"currency_id"`
	SenderID          *int64          `json:"sender_id,omitempty"`
	ReceiverID        *int64          `json:"receiver_id,omitempty"`
	Date              time.Time       `json:"date"`
	EmployeeID        int64           `json:"employee_id"`
	Deleted           bool            `json:"deleted"`
	Rejected          bool            `json:"rejected"`
	Reversed          bool            `json:"reversed"`
	CreatedAt         time.Time       `json:"created_at"`
}

// Shape is derived from the stored destination fields, never persisted.
func (r *Receive) Shape() ReceiveShape {
	shape, _ := ResolveShape(r.PassTo, r.CustomerID)
	return shape
}

func (r *Receive) Lifecycle() Lifecycle {
	return lifecycleOf(r.Deleted, r.Rejected, r.Reversed)
}

type ReceiveCreateRequest struct {
	OrgID             int64
	ReceiveAmount     decimal.Decimal
	ChargesAmount     decimal.Decimal
	ChargesType       string
	BranchCharges     decimal.Decimal
	BranchChargesType string
	FromWhere         int64
	PassTo            *int64
	CustomerID        *int64
	CurrencyID        int64
	Date              time.Time
	EmployeeID        int64
	SenderName        string
	SenderPhone       string
	ReceiverName      string
	ReceiverPhone     string
	ManualNo          *int64
}

func (p ReceiveCreateRequest) Validate() error {
	if p.OrgID == 0 {
		return errors.New("org_id is required")
	}
	if !p.ReceiveAmount.IsPositive() {
		return errors.New("receive_amount must be positive")
	}
	if p.ChargesAmount.IsNegative() || p.BranchCharges.IsNegative() {
		return ErrNegativeAmount
	}
	if p.FromWhere == 0 {
		return errors.New("from_where is required")
	}
	if p.CurrencyID == 0 {
		return errors.New("currency_id is required")
	}
	if _, err := ResolveShape(p.PassTo, p.CustomerID); err != nil {
		return err
	}
	return nil
}

type ReceiveFilter struct {
	OrgID      int64
	FromWhere  *int64
	PassTo     *int64
	CustomerID *int64
	CurrencyID *int64
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
	Desc       bool
}
