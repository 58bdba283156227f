package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrBothAmounts    = errors.New("exactly one of deposit and withdraw must be set")
	ErrNeitherAmount  = errors.New("either deposit or withdraw is required")
	ErrNegativeAmount = errors.New("amount must be positive")
)

// DepositWithdraw is a single-leg cash movement against one account.
// Exactly one of Deposit and Withdraw is positive.
type DepositWithdraw struct {
	ID                 int64           `json:"id"`
	OrgID              int64           `json:"org_id"`
	No                 int64           `json:"no"`
	CustomerID         int64           `json:"customer_id"`
	CurrencyID         int64           `json:"currency_id"`
	Deposit            decimal.Decimal `json:"deposit"`
	Withdraw           decimal.Decimal `json:"withdraw"`
	Date               time.Time       `json:"date"`
	EmployeeID         int64           `json:"employee_id"`
	Description        string          `json:"description"`
	WithdrawReturnDate *time.Time      `json:"withdraw_return_date,omitempty"`
	Deleted            bool            `json:"deleted"`
	CreatedAt          time.Time       `json:"created_at"`
}

func (d *DepositWithdraw) IsDeposit() bool {
	return d.Deposit.IsPositive()
}

func (d *DepositWithdraw) Lifecycle() Lifecycle {
	return lifecycleOf(d.Deleted, false, false)
}

type DepositWithdrawCreateRequest struct {
	OrgID       int64
	CustomerID  int64
	CurrencyID  int64
	Deposit     decimal.Decimal
	Withdraw    decimal.Decimal
	Date        time.Time
	EmployeeID  int64
	Description string
	ManualNo    *int64
}

func (p DepositWithdrawCreateRequest) Validate() error {
	if p.OrgID == 0 {
		return errors.New("org_id is required")
	}
	if p.CustomerID == 0 {
		return errors.New("customer_id is required")
	}
	if p.CurrencyID == 0 {
		return errors.New("currency_id is required")
	}
	hasDeposit := !p.Deposit.IsZero()
	hasWithdraw := !p.Withdraw.IsZero()
	if hasDeposit && hasWithdraw {
		return ErrBothAmounts
	}
	if !hasDeposit && !hasWithdraw {
		return ErrNeitherAmount
	}
	if p.Deposit.IsNegative() || p.Withdraw.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// DepositWithdrawPatch carries the only fields update may touch. Monetary
// amendment is not supported; reverse and re-create instead.
type DepositWithdrawPatch struct {
	Description        *string
	WithdrawReturnDate *time.Time
}

type DepositWithdrawFilter struct {
	OrgID      int64
	CustomerID *int64
	CurrencyID *int64
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
	Desc       bool
}
