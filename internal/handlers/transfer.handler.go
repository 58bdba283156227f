package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/sarafbook/ledger/internal/model"
	xhttp "github.com/sarafbook/ledger/pkg/http"
	"github.com/sarafbook/ledger/pkg/prom"
	"github.com/shopspring/decimal"
)

type TransferService interface {
	Create(ctx context.Context, p model.TransferCreateRequest) (*model.Transfer, error)
	Get(ctx context.Context, orgID, id int64) (*model.Transfer, error)
	List(ctx context.Context, f model.TransferFilter) ([]*model.Transfer, int64, error)
	Update(ctx context.Context, orgID, id int64, p model.TransferCreateRequest) (*model.Transfer, error)
	Delete(ctx context.Context, orgID, id int64) error
	Reject(ctx context.Context, orgID, id int64, reverseFunds bool) error
}

type TransferHandler struct {
	svc TransferService
}

func RegisterTransferRoutes(e *router.Group, h *TransferHandler) {
	e.POST("/transfers", h.CreateTransfer)
	e.GET("/transfers", h.ListTransfers)
	e.GET("/transfers/{id}", h.GetTransfer)
	e.PUT("/transfers/{id}", h.UpdateTransfer)
	e.DELETE("/transfers/{id}", h.DeleteTransfer)
	e.POST("/transfers/{id}/reject", h.RejectTransfer)
}

func NewTransferHandler(svc TransferService) *TransferHandler {
	return &TransferHandler{svc: svc}
}

type transferRequest struct {
	TransferAmount decimal.Decimal `json:"transfer_amount"`
	ChargesAmount  decimal.Decimal `json:"charges_amount"`
	BranchCharges  decimal.Decimal `json:"branch_charges"`
	ToWhere        int64           `json:"to_where"`
	CustomerID     *int64          `json:"customer_id,omitempty"`
	CurrencyID     int64           `json:"currency_id"`
	Date           string          `json:"date"`
	EmployeeID     int64           `json:"employee_id"`
	SenderName     string          `json:"sender_name"`
	SenderPhone    string          `json:"sender_phone"`
	ReceiverName   string          `json:"receiver_name"`
	ReceiverPhone  string          `json:"receiver_phone"`
	ManualNo       *int64          `json:"manual_no,omitempty"`
}

type rejectRequest struct {
	ReverseFunds bool `json:"reverse_funds"`
}

type transferListResponse struct {
	Items []*model.Transfer `json:"items"`
	Total int64             `json:"total"`
}

func (r transferRequest) toCreateRequest(org int64) model.TransferCreateRequest {
	p := model.TransferCreateRequest{
		OrgID:          org,
		TransferAmount: r.TransferAmount,
		ChargesAmount:  r.ChargesAmount,
		BranchCharges:  r.BranchCharges,
		ToWhere:        r.ToWhere,
		CustomerID:     r.CustomerID,
		CurrencyID:     r.CurrencyID,
		EmployeeID:     r.EmployeeID,
		SenderName:     r.SenderName,
		SenderPhone:    r.SenderPhone,
		ReceiverName:   r.ReceiverName,
		ReceiverPhone:  r.ReceiverPhone,
		ManualNo:       r.ManualNo,
	}
	if r.Date != "" {
		if t, e := parseTime(r.Date); e == nil {
			p.Date = t
		}
	}
	return p
}

func (h *TransferHandler) CreateTransfer(ctx *xhttp.RequestCtx) {
	org, err := orgID(ctx)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	var req transferRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	tr, err := h.svc.Create(ctx, req.toCreateRequest(org))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	prom.IncLedgerOperation("transfer", "created")
	writeJSON(ctx, 201, tr)
}

func (h *TransferHandler) GetTransfer(ctx *xhttp.RequestCtx) {
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
	tr, err := h.svc.Get(ctx, org, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, tr)
}

func (h *TransferHandler) ListTransfers(ctx *xhttp.RequestCtx) {
	org, err := orgID(ctx)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	f := model.TransferFilter{OrgID: org}
	f.CustomerID = queryInt64Ptr(ctx, "customer_id")
	f.ToWhere = queryInt64Ptr(ctx, "to_where")
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
	writeJSON(ctx, 200, transferListResponse{Items: items, Total: total})
}

func (h *TransferHandler) UpdateTransfer(ctx *xhttp.RequestCtx) {
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
	var req transferRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	tr, err := h.svc.Update(ctx, org, id, req.toCreateRequest(org))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	prom.IncLedgerOperation("transfer", "updated")
	writeJSON(ctx, 200, tr)
}

func (h *TransferHandler) DeleteTransfer(ctx *xhttp.RequestCtx) {
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
	prom.IncLedgerOperation("transfer", "deleted")
	writeJSON(ctx, 200, map[string]string{"status": "deleted"})
}

func (h *TransferHandler) RejectTransfer(ctx *xhttp.RequestCtx) {
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
	var req rejectRequest
	if len(ctx.PostBody()) > 0 {
		if err := readJSON(ctx, &req); err != nil {
			writeError(ctx, 400, "invalid JSON: "+err.Error())
			return
		}
	}
	if err := h.svc.Reject(ctx, org, id, req.ReverseFunds); err != nil {
		writeServiceError(ctx, err)
		return
	}
	prom.IncLedgerOperation("transfer", "rejected")
	writeJSON(ctx, 200, map[string]string{"status": "rejected"})
}
