package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TillStatus string

const (
	TillOpen   TillStatus = "open"
	TillClosed TillStatus = "closed"
)

// Till is the cash-register reconciliation row for one (org, currency, day).
// OpeningBalance carries over the previous day's closing; totals are
// recomputed from the day's ledger records, never mutated incrementally.
type Till struct {
	ID             int64           `json:"id"`
	OrgID          int64           `json:"org_id"`
	CurrencyID     int64           `json:"currency_id"`
	Date           time.Time       `json:"date"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	TotalIn        decimal.Decimal `json:"total_in"`
	TotalOut       decimal.Decimal `json:"total_out"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	ActualCash     decimal.Decimal `json:"actual_cash"`
	Difference     decimal.Decimal `json:"difference"`
	Status         TillStatus      `json:"status"`
	ClosedBy       *int64          `json:"closed_by,omitempty"`
	ClosedAt       *time.Time      `json:"closed_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// DayBounds normalizes a timestamp to the [start, end) window of its day.
func DayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}
