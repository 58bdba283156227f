package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// OwnerKind distinguishes real customers from branches. Branches are stored
// as customer rows, so the kind is resolved once at the boundary and only the
// owner id flows into the ledger.
type OwnerKind string

const (
	OwnerCustomer OwnerKind = "customer"
	OwnerBranch   OwnerKind = "branch"
)

type AccountOwner struct {
	Kind OwnerKind
	ID   int64
}

// AccountKey identifies one balance row: an owner holds at most one live
// account per currency.
type AccountKey struct {
	OwnerID    int64
	CurrencyID int64
}

type Account struct {
	ID              int64           `json:"id"`
	OrgID           int64           `json:"org_id"`
	CustomerID      int64           `json:"customer_id"`
	CurrencyID      int64           `json:"currency_id"`
	Credit          decimal.Decimal `json:"credit"`
	Active          bool            `json:"active"`
	Deleted         bool            `json:"deleted"`
	SMSEnabled      bool            `json:"sms_enabled"`
	WhatsappEnabled bool            `json:"whatsapp_enabled"`
	TelegramEnabled bool            `json:"telegram_enabled"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (a *Account) Key() AccountKey {
	return AccountKey{OwnerID: a.CustomerID, CurrencyID: a.CurrencyID}
}

// Channels returns the notification channels enabled on this account.
func (a *Account) Channels() []string {
	var out []string
	if a.SMSEnabled {
		out = append(out, "sms")
	}
	if a.WhatsappEnabled {
		out = append(out, "whatsapp")
	}
	if a.TelegramEnabled {
		out = append(out, "telegram")
	}
	return out
}

type AccountOpenRequest struct {
	OrgID           int64
	CustomerID      int64
	CurrencyID      int64
	SMSEnabled      bool
	WhatsappEnabled bool
	TelegramEnabled bool
}

func (p AccountOpenRequest) Validate() error {
	if p.OrgID == 0 {
		return errors.New("org_id is required")
	}
	if p.CustomerID == 0 {
		return errors.New("customer_id is required")
	}
	if p.CurrencyID == 0 {
		return errors.New("currency_id is required")
	}
	return nil
}

type AccountFilter struct {
	OrgID      int64
	CustomerID *int64
	CurrencyID *int64
	Limit      int
	Offset     int
}
