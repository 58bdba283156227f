package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/sarafbook/ledger/internal/model"
	xhttp "github.com/sarafbook/ledger/pkg/http"
	"github.com/sarafbook/ledger/pkg/prom"
	"github.com/shopspring/decimal"
)

type DepositWithdrawService interface {
	Create(ctx context.Context, p model.DepositWithdrawCreateRequest) (*model.DepositWithdraw, error)
	Get(ctx context.Context, orgID, id int64) (*model.DepositWithdraw, error)
	List(ctx context.Context, f model.DepositWithdrawFilter) ([]*model.DepositWithdraw, int64, error)
	Update(ctx context.Context, orgID, id int64, patch model.DepositWithdrawPatch) error
	Delete(ctx context.Context, orgID, id int64) error
}

type DepositWithdrawHandler struct {
	svc DepositWithdrawService
}

func RegisterDepositWithdrawRoutes(e *router.Group, h *DepositWithdrawHandler) {
	e.POST("/deposit-withdraws", h.CreateDepositWithdraw)
	e.GET("/deposit-withdraws", h.ListDepositWithdraws)
	e.GET("/deposit-withdraws/{id}", h.GetDepositWithdraw)
	e.PUT("/deposit-withdraws/{id}", h.UpdateDepositWithdraw)
	e.DELETE("/deposit-withdraws/{id}", h.DeleteDepositWithdraw)
}

func NewDepositWithdrawHandler(svc DepositWithdrawService) *DepositWithdrawHandler {
	return &DepositWithdrawHandler{svc: svc}
}

type createDepositWithdrawRequest struct {
	CustomerID  int64           `json:"customer_id"`
	CurrencyID  int64           `json:"currency_id"`
	Deposit     decimal.Decimal `json:"deposit"`
	Withdraw    decimal.Decimal `json:"withdraw"`
	Date        string          `json:"date"`
	EmployeeID  int64           `json:"employee_id"`
	Description string          `json:"description"`
	ManualNo    *int64          `json:"manual_no,omitempty"`
}

type updateDepositWithdrawRequest struct {
	Description        *string `json:"description,omitempty"`
	WithdrawReturnDate *string `json:"withdraw_return_date,omitempty"`
}

type depositWithdrawListResponse struct {
	Items []*model.DepositWithdraw `json:"items"`
	Total int64                    `json:"total"`
}

func (h *DepositWithdrawHandler) CreateDepositWithdraw(ctx *xhttp.RequestCtx) {
	org, err := orgID(ctx)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	var req createDepositWithdrawRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	p := model.DepositWithdrawCreateRequest{
		OrgID:       org,
		CustomerID:  req.CustomerID,
		CurrencyID:  req.CurrencyID,
		Deposit:     req.Deposit,
		Withdraw:    req.Withdraw,
		EmployeeID:  req.EmployeeID,
		Description: req.Description,
		ManualNo:    req.ManualNo,
	}
	if req.Date != "" {
		if t, e := parseTime(req.Date); e == nil {
			p.Date = t
		}
	}
	rec, err := h.svc.Create(ctx, p)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	prom.IncLedgerOperation("deposit_withdraw", "created")
	writeJSON(ctx, 201, rec)
}

func (h *DepositWithdrawHandler) GetDepositWithdraw(ctx *xhttp.RequestCtx) {
	org, err := orgID(ctx)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}
	rec, err := h.svc.Get(ctx, org, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, rec)
}

func (h *DepositWithdrawHandler) ListDepositWithdraws(ctx *xhttp.RequestCtx) {
	org, err := orgID(ctx)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	f := model.DepositWithdrawFilter{OrgID: org}
	f.CustomerID = queryInt64Ptr(ctx, "customer_id")
	f.CurrencyID = queryInt64Ptr(ctx, "currency_id")
	if v := query(ctx, "from"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.From = &t
		}
	}
	if v := query(ctx, "to"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.To = &t
		}
	}
	f.Limit, f.Offset, f.Desc = pageParams(ctx)

	items, total, err := h.svc.List(ctx, f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, depositWithdrawListResponse{Items: items, Total: total})
}

func (h *DepositWithdrawHandler) UpdateDepositWithdraw(ctx *xhttp.RequestCtx) {
	org, err := orgID(ctx)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}
	var req updateDepositWithdrawRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	patch := model.DepositWithdrawPatch{Description: req.Description}
	if req.WithdrawReturnDate != nil {
		t, e := parseTime(*req.WithdrawReturnDate)
		if e != nil {
			writeError(ctx, 400, "invalid withdraw_return_date")
			return
		}
		patch.WithdrawReturnDate = &t
	}
	if err := h.svc.Update(ctx, org, id, patch); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, map[string]string{"status": "updated"})
}

func (h *DepositWithdrawHandler) DeleteDepositWithdraw(ctx *xhttp.RequestCtx) {
	org, err := orgID(ctx)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}
	if err := h.svc.Delete(ctx, org, id); err != nil {
		writeServiceError(ctx, err)
		return
	}
	prom.IncLedgerOperation("deposit_withdraw", "deleted")
	writeJSON(ctx, 200, map[string]string{"status": "deleted"})
}
