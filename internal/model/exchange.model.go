package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Exchange converts SaleAmount of SaleCurrency into PurchaseAmount of
// PurchaseCurrency for one customer. Swap inverts which side is debited so a
// single record can model either direction of a buy/sell pair. When Calculate
// is set and one amount is missing it is derived from the rate; when both
// amounts are supplied they are used as-is without cross-checking the rate.
type Exchange struct {
	ID                 int64           `json:"id"`
	OrgID              int64           `json:"org_id"`
	No                 int64           `json:"no"`
	CustomerID         int64           `json:"customer_id"`
	SaleCurrencyID     int64           `json:"sale_currency_id"`
	PurchaseCurrencyID int64           `json:"purchase_currency_id"`
	SaleAmount         decimal.Decimal `json:"sale_amount"`
	PurchaseAmount     decimal.Decimal `json:"purchase_amount"`
	Rate               decimal.Decimal `json:"rate"`
	Swap               bool            `json:"swap"`
	Calculate          bool            `json:"calculate"`
	Date               time.Time       `json:"date"`
	EmployeeID         int64           `json:"employee_id"`
	Deleted            bool            `json:"deleted"`
	CreatedAt          time.Time       `json:"created_at"`
}

func (x *Exchange) Lifecycle() Lifecycle {
	return lifecycleOf(x.Deleted, false, false)
}

// ExchangeRemaining is a lot record tracking unconsumed purchased value and
// its cost basis. Informational inventory data; not reversed with the parent.
type ExchangeRemaining struct {
	ID         int64           `json:"id"`
	OrgID      int64           `json:"org_id"`
	ExchangeID int64           `json:"exchange_id"`
	CurrencyID int64           `json:"currency_id"`
	Remaining  decimal.Decimal `json:"remaining"`
	CostRate   decimal.Decimal `json:"cost_rate"`
	CreatedAt  time.Time       `json:"created_at"`
}

type ExchangeCreateRequest struct {
	OrgID              int64
	CustomerID         int64
	SaleCurrencyID     int64
	PurchaseCurrencyID int64
	SaleAmount         decimal.Decimal
	PurchaseAmount     decimal.Decimal
	Rate               decimal.Decimal
	Swap               bool
	Calculate          bool
	Date               time.Time
	EmployeeID         int64
}

func (p ExchangeCreateRequest) Validate() error {
	if p.OrgID == 0 {
		return errors.New("org_id is required")
	}
	if p.CustomerID == 0 {
		return errors.New("customer_id is required")
	}
	if p.EmployeeID == 0 {
		return errors.New("employee_id is required")
	}
	if p.SaleCurrencyID == 0 || p.PurchaseCurrencyID == 0 {
		return errors.New("both currency ids are required")
	}
	if !p.Rate.IsPositive() {
		return errors.New("rate must be positive")
	}
	if p.SaleAmount.IsNegative() || p.PurchaseAmount.IsNegative() {
		return ErrNegativeAmount
	}
	if p.SaleAmount.IsZero() && p.PurchaseAmount.IsZero() {
		return errors.New("at least one of sale_amount and purchase_amount is required")
	}
	return nil
}

// Derive fills the missing amount from the rate when Calculate is set:
// purchase = sale * rate, or sale = purchase / rate.
func (p *ExchangeCreateRequest) Derive() {
	if !p.Calculate {
		return
	}
	switch {
	case p.SaleAmount.IsPositive() && p.PurchaseAmount.IsZero():
		p.PurchaseAmount = p.SaleAmount.Mul(p.Rate)
	case p.PurchaseAmount.IsPositive() && p.SaleAmount.IsZero():
		p.SaleAmount = p.PurchaseAmount.DivRound(p.Rate, 4)
	}
}

type ExchangeFilter struct {
	OrgID      int64
	CustomerID *int64
	CurrencyID *int64
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
	Desc       bool
}
