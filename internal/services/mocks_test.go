package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sarafbook/ledger/internal/model"
	"github.com/sarafbook/ledger/internal/repository"
	"github.com/shopspring/decimal"
)

// passTx runs the function directly; the engines under test only need the
// callback to fire, not a real transaction.
type passTx struct{}

func (passTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memAccounts struct {
	balances map[model.AccountKey]decimal.Decimal
	missing  map[model.AccountKey]bool
}

func newMemAccounts() *memAccounts {
	return &memAccounts{
		balances: make(map[model.AccountKey]decimal.Decimal),
		missing:  make(map[model.AccountKey]bool),
	}
}

func (a *memAccounts) Credit(ctx context.Context, orgID int64, key model.AccountKey, amount decimal.Decimal) error {
	if a.missing[key] {
		return repository.ErrAccountNotFound
	}
	a.balances[key] = a.balances[key].Add(amount)
	return nil
}

func (a *memAccounts) Debit(ctx context.Context, orgID int64, key model.AccountKey, amount decimal.Decimal) error {
	if a.missing[key] {
		return repository.ErrAccountNotFound
	}
	a.balances[key] = a.balances[key].Sub(amount)
	return nil
}

func (a *memAccounts) balance(key model.AccountKey) decimal.Decimal {
	return a.balances[key]
}

type memSeq struct {
	counters map[string]int64
}

func newMemSeq() *memSeq {
	return &memSeq{counters: make(map[string]int64)}
}

func seqKey(orgID int64, name string, branchID int64) string {
	return fmt.Sprintf("%d/%s/%d", orgID, name, branchID)
}

func (s *memSeq) Next(ctx context.Context, orgID int64, name string, branchID int64) (int64, error) {
	k := seqKey(orgID, name, branchID)
	s.counters[k]++
	return s.counters[k], nil
}

func (s *memSeq) Claim(ctx context.Context, orgID int64, name string, branchID, manual int64) (int64, error) {
	k := seqKey(orgID, name, branchID)
	if manual <= s.counters[k] {
		return 0, repository.ErrDuplicateSequence
	}
	s.counters[k] = manual
	return manual, nil
}

type memIdentities struct {
	nextID int64
	byKey  map[string]*model.SenderReceiver
}

func newMemIdentities() *memIdentities {
	return &memIdentities{byKey: make(map[string]*model.SenderReceiver)}
}

func (r *memIdentities) FindOrCreate(ctx context.Context, orgID int64, name, phone string, isSender bool) (*model.SenderReceiver, error) {
	if name == "" {
		return nil, nil
	}
	k := fmt.Sprintf("%d/%s/%s/%t", orgID, name, phone, isSender)
	if sr, ok := r.byKey[k]; ok {
		return sr, nil
	}
	r.nextID++
	sr := &model.SenderReceiver{ID: r.nextID, OrgID: orgID, Name: name, Phone: phone, IsSender: isSender}
	r.byKey[k] = sr
	return sr, nil
}

type memOwners struct {
	byID map[int64]*model.Customer
}

func newMemOwners(customers ...*model.Customer) *memOwners {
	o := &memOwners{byID: make(map[int64]*model.Customer)}
	for _, c := range customers {
		o.byID[c.ID] = c
	}
	return o
}

func (o *memOwners) Get(ctx context.Context, orgID, id int64) (*model.Customer, error) {
	c, ok := o.byID[id]
	if !ok || c.OrgID != orgID {
		return nil, repository.ErrCustomerNotFound
	}
	return c, nil
}

func (o *memOwners) GetBranch(ctx context.Context, orgID, id int64) (*model.Customer, error) {
	c, err := o.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if !c.IsBranch {
		return nil, repository.ErrCustomerNotFound
	}
	return c, nil
}

type captureEvents struct {
	events []model.TransactionEvent
}

func (c *captureEvents) TransactionCreated(ctx context.Context, event model.TransactionEvent) {
	c.events = append(c.events, event)
}

type memDepositWithdraws struct {
	nextID int64
	rows   map[int64]*model.DepositWithdraw
}

func newMemDepositWithdraws() *memDepositWithdraws {
	return &memDepositWithdraws{rows: make(map[int64]*model.DepositWithdraw)}
}

func (r *memDepositWithdraws) Create(ctx context.Context, d *model.DepositWithdraw) (*model.DepositWithdraw, error) {
	r.nextID++
	cp := *d
	cp.ID = r.nextID
	r.rows[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memDepositWithdraws) Get(ctx context.Context, orgID, id int64) (*model.DepositWithdraw, error) {
	d, ok := r.rows[id]
	if !ok || d.OrgID != orgID {
		return nil, repository.ErrRecordNotFound
	}
	out := *d
	return &out, nil
}

func (r *memDepositWithdraws) UpdateMeta(ctx context.Context, orgID, id int64, patch model.DepositWithdrawPatch) error {
	d, ok := r.rows[id]
	if !ok || d.OrgID != orgID || d.Deleted {
		return repository.ErrRecordNotFound
	}
	if patch.Description != nil {
		d.Description = *patch.Description
	}
	if patch.WithdrawReturnDate != nil {
		d.WithdrawReturnDate = patch.WithdrawReturnDate
	}
	return nil
}

func (r *memDepositWithdraws) MarkDeleted(ctx context.Context, orgID, id int64) error {
	d, ok := r.rows[id]
	if !ok || d.OrgID != orgID || d.Deleted {
		return repository.ErrRecordNotFound
	}
	d.Deleted = true
	return nil
}

func (r *memDepositWithdraws) List(ctx context.Context, f model.DepositWithdrawFilter) ([]*model.DepositWithdraw, int64, error) {
	var out []*model.DepositWithdraw
	for _, d := range r.rows {
		if d.OrgID == f.OrgID && !d.Deleted {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

type memTransfers struct {
	nextID int64
	rows   map[int64]*model.Transfer
}

func newMemTransfers() *memTransfers {
	return &memTransfers{rows: make(map[int64]*model.Transfer)}
}

func (r *memTransfers) Create(ctx context.Context, t *model.Transfer) (*model.Transfer, error) {
	r.nextID++
	cp := *t
	cp.ID = r.nextID
	r.rows[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memTransfers) Get(ctx context.Context, orgID, id int64) (*model.Transfer, error) {
	t, ok := r.rows[id]
	if !ok || t.OrgID != orgID {
		return nil, repository.ErrRecordNotFound
	}
	out := *t
	return &out, nil
}

func (r *memTransfers) GetByNo(ctx context.Context, orgID, no int64) (*model.Transfer, error) {
	for _, t := range r.rows {
		if t.OrgID == orgID && t.No == no {
			out := *t
			return &out, nil
		}
	}
	return nil, repository.ErrRecordNotFound
}

func (r *memTransfers) Save(ctx context.Context, t *model.Transfer) error {
	old, ok := r.rows[t.ID]
	if !ok || old.OrgID != t.OrgID {
		return repository.ErrRecordNotFound
	}
	cp := *t
	r.rows[t.ID] = &cp
	return nil
}

func (r *memTransfers) MarkDeleted(ctx context.Context, orgID, id int64) error {
	t, ok := r.rows[id]
	if !ok || t.OrgID != orgID || t.Deleted {
		return repository.ErrRecordNotFound
	}
	t.Deleted = true
	return nil
}

func (r *memTransfers) MarkRejected(ctx context.Context, orgID, id int64, reversed bool) error {
	t, ok := r.rows[id]
	if !ok || t.OrgID != orgID {
		return repository.ErrRecordNotFound
	}
	t.Rejected = true
	t.Reversed = reversed
	return nil
}

func (r *memTransfers) List(ctx context.Context, f model.TransferFilter) ([]*model.Transfer, int64, error) {
	var out []*model.Transfer
	for _, t := range r.rows {
		if t.OrgID == f.OrgID && !t.Deleted {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

type memReceives struct {
	nextID int64
	rows   map[int64]*model.Receive
}

func newMemReceives() *memReceives {
	return &memReceives{rows: make(map[int64]*model.Receive)}
}

func (r *memReceives) Create(ctx context.Context, rec *model.Receive) (*model.Receive, error) {
	r.nextID++
	cp := *rec
	cp.ID = r.nextID
	r.rows[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memReceives) Get(ctx context.Context, orgID, id int64) (*model.Receive, error) {
	rec, ok := r.rows[id]
	if !ok || rec.OrgID != orgID {
		return nil, repository.ErrRecordNotFound
	}
	out := *rec
	return &out, nil
}

func (r *memReceives) Save(ctx context.Context, rec *model.Receive) error {
	old, ok := r.rows[rec.ID]
	if !ok || old.OrgID != rec.OrgID {
		return repository.ErrRecordNotFound
	}
	cp := *rec
	r.rows[rec.ID] = &cp
	return nil
}

func (r *memReceives) UpdateIdentity(ctx context.Context, orgID, id int64, senderID, receiverID *int64) error {
	rec, ok := r.rows[id]
	if !ok || rec.OrgID != orgID || rec.Deleted {
		return repository.ErrRecordNotFound
	}
	rec.SenderID = senderID
	rec.ReceiverID = receiverID
	return nil
}

func (r *memReceives) MarkDeleted(ctx context.Context, orgID, id int64) error {
	rec, ok := r.rows[id]
	if !ok || rec.OrgID != orgID || rec.Deleted {
		return repository.ErrRecordNotFound
	}
	rec.Deleted = true
	return nil
}

func (r *memReceives) MarkRejected(ctx context.Context, orgID, id int64, reversed bool) error {
	rec, ok := r.rows[id]
	if !ok || rec.OrgID != orgID {
		return repository.ErrRecordNotFound
	}
	rec.Rejected = true
	rec.Reversed = reversed
	return nil
}

func (r *memReceives) List(ctx context.Context, f model.ReceiveFilter) ([]*model.Receive, int64, error) {
	var out []*model.Receive
	for _, rec := range r.rows {
		if rec.OrgID == f.OrgID && !rec.Deleted {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

type memExchanges struct {
	nextID    int64
	rows      map[int64]*model.Exchange
	remaining []*model.ExchangeRemaining
}

func newMemExchanges() *memExchanges {
	return &memExchanges{rows: make(map[int64]*model.Exchange)}
}

func (r *memExchanges) Create(ctx context.Context, x *model.Exchange) (*model.Exchange, error) {
	r.nextID++
	cp := *x
	cp.ID = r.nextID
	r.rows[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memExchanges) Get(ctx context.Context, orgID, id int64) (*model.Exchange, error) {
	x, ok := r.rows[id]
	if !ok || x.OrgID != orgID {
		return nil, repository.ErrRecordNotFound
	}
	out := *x
	return &out, nil
}

func (r *memExchanges) MarkDeleted(ctx context.Context, orgID, id int64) error {
	x, ok := r.rows[id]
	if !ok || x.OrgID != orgID || x.Deleted {
		return repository.ErrRecordNotFound
	}
	x.Deleted = true
	return nil
}

func (r *memExchanges) CreateRemaining(ctx context.Context, rem *model.ExchangeRemaining) (*model.ExchangeRemaining, error) {
	cp := *rem
	cp.ID = int64(len(r.remaining) + 1)
	r.remaining = append(r.remaining, &cp)
	out := cp
	return &out, nil
}

func (r *memExchanges) List(ctx context.Context, f model.ExchangeFilter) ([]*model.Exchange, int64, error) {
	var out []*model.Exchange
	for _, x := range r.rows {
		if x.OrgID == f.OrgID && !x.Deleted {
			cp := *x
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

type memTills struct {
	nextID int64
	rows   map[int64]*model.Till
}

func newMemTills() *memTills {
	return &memTills{rows: make(map[int64]*model.Till)}
}

func (r *memTills) GetForUpdate(ctx context.Context, orgID, currencyID int64, day time.Time) (*model.Till, error) {
	start, _ := model.DayBounds(day)
	for _, t := range r.rows {
		if t.OrgID == orgID && t.CurrencyID == currencyID && t.Date.Equal(start) {
			out := *t
			return &out, nil
		}
	}
	return nil, repository.ErrTillNotFound
}

func (r *memTills) Create(ctx context.Context, t *model.Till) (*model.Till, error) {
	start, _ := model.DayBounds(t.Date)
	r.nextID++
	cp := *t
	cp.ID = r.nextID
	cp.Date = start
	cp.Status = model.TillOpen
	r.rows[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memTills) PreviousClosing(ctx context.Context, orgID, currencyID int64, day time.Time) (decimal.Decimal, error) {
	start, _ := model.DayBounds(day)
	best := decimal.Zero
	var bestDate time.Time
	for _, t := range r.rows {
		if t.OrgID == orgID && t.CurrencyID == currencyID && t.Date.Before(start) && t.Date.After(bestDate) {
			best = t.ClosingBalance
			bestDate = t.Date
		}
	}
	return best, nil
}

func (r *memTills) SetTotals(ctx context.Context, id int64, in, out, closing decimal.Decimal) error {
	t, ok := r.rows[id]
	if !ok {
		return repository.ErrTillNotFound
	}
	t.TotalIn = in
	t.TotalOut = out
	t.ClosingBalance = closing
	return nil
}

func (r *memTills) SetClosed(ctx context.Context, id int64, actualCash, difference decimal.Decimal, closedBy int64, closedAt time.Time) error {
	t, ok := r.rows[id]
	if !ok || t.Status != model.TillOpen {
		return repository.ErrTillNotFound
	}
	t.ActualCash = actualCash
	t.Difference = difference
	t.Status = model.TillClosed
	t.ClosedBy = &closedBy
	t.ClosedAt = &closedAt
	return nil
}

func (r *memTills) History(ctx context.Context, orgID, currencyID int64, limit, offset int) ([]*model.Till, int64, error) {
	var out []*model.Till
	for _, t := range r.rows {
		if t.OrgID == orgID && t.CurrencyID == currencyID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

type fixedSums struct {
	deposits     decimal.Decimal
	withdrawals  decimal.Decimal
	transfersOut decimal.Decimal
	receivesIn   decimal.Decimal
	exchangeIn   decimal.Decimal
	exchangeOut  decimal.Decimal
}

func (s *fixedSums) SumForDay(ctx context.Context, orgID, currencyID int64, day time.Time) (decimal.Decimal, decimal.Decimal, error) {
	return s.deposits, s.withdrawals, nil
}

func (s *fixedSums) SumOutForDay(ctx context.Context, orgID, currencyID int64, day time.Time) (decimal.Decimal, error) {
	return s.transfersOut, nil
}

func (s *fixedSums) SumInForDay(ctx context.Context, orgID, currencyID int64, day time.Time) (decimal.Decimal, error) {
	return s.receivesIn, nil
}

type fixedExchangeSums struct {
	in  decimal.Decimal
	out decimal.Decimal
}

func (s *fixedExchangeSums) SumForDay(ctx context.Context, orgID, currencyID int64, day time.Time) (decimal.Decimal, decimal.Decimal, error) {
	return s.in, s.out, nil
}
