package model

import "time"

// Customer is the owner registry. A branch is a customer row flagged
// IsBranch; the distinction matters only at the API boundary.
type Customer struct {
	ID        int64     `json:"id"`
	OrgID     int64     `json:"org_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	IsBranch  bool      `json:"is_branch"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *Customer) Owner() AccountOwner {
	kind := OwnerCustomer
	if c.IsBranch {
		kind = OwnerBranch
	}
	return AccountOwner{Kind: kind, ID: c.ID}
}

// SenderReceiver records the human identity attached to a transfer or
// receive, independent of whether that person holds an account.
type SenderReceiver struct {
	ID        int64     `json:"id"`
	OrgID     int64     `json:"org_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	IsSender  bool      `json:"is_sender"`
	CreatedAt time.Time `json:"created_at"`
}
