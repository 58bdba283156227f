package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionEvent is the payload published to the notification stream after
// a ledger operation commits. Delivery is fire-and-forget: a failed publish
// or send never rolls the financial transaction back.
type TransactionEvent struct {
	EventID    string          `json:"event_id"`
	OrgID      int64           `json:"org_id"`
	CustomerID int64           `json:"customer_id"`
	Kind       string          `json:"kind"` // deposit, withdraw, transfer, receive
	RecordID   int64           `json:"record_id"`
	Amount     decimal.Decimal `json:"amount"`
	CurrencyID int64           `json:"currency_id"`
	CreatedAt  time.Time       `json:"created_at"`
}

type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "pending"
	NotificationDelivered NotificationStatus = "delivered"
	NotificationFailed    NotificationStatus = "failed"
)

// Notification is one dispatched event with the channels it went out on.
type Notification struct {
	ID         int64              `json:"id"`
	OrgID      int64              `json:"org_id"`
	CustomerID int64              `json:"customer_id"`
	EventID    string             `json:"event_id"`
	Kind       string             `json:"kind"`
	Amount     decimal.Decimal    `json:"amount"`
	CurrencyID int64              `json:"currency_id"`
	Channels   []string           `json:"channels"`
	Status     NotificationStatus `json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
}
