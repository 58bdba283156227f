package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/sarafbook/ledger/internal/model"
	xhttp "github.com/sarafbook/ledger/pkg/http"
	"github.com/sarafbook/ledger/pkg/prom"
	"github.com/shopspring/decimal"
)

type ReceiveService interface {
	Create(ctx context.Context, p model.ReceiveCreateRequest) (*model.Receive, error)
	Get(ctx context.Context, orgID, id int64) (*model.Receive, error)
	List(ctx context.Context, f model.ReceiveFilter) ([]*model.Receive, int64, error)
	Update(ctx context.Context, orgID, id int64, p model.ReceiveCreateRequest) (*model.Receive, error)
	UpdateIdentity(ctx context.Context, orgID, id int64, senderName, senderPhone, receiverName, receiverPhone string) error
	Delete(ctx context.Context, orgID, id int64) error
	Reject(ctx context.Context, orgID, id int64, reverseFunds bool) error
}

type ReceiveHandler struct {
	svc ReceiveService
}

func RegisterReceiveRoutes(e *router.Group, h *ReceiveHandler) {
	e.POST("/receives", h.CreateReceive)
	e.GET("/receives", h.ListReceives)
	e.GET("/receives/{id}", h.GetReceive)
	e.PUT("/receives/{id}", h.UpdateReceive)
	e.PUT("/receives/{id}/identity", h.UpdateReceiveIdentity)
	e.DELETE("/receives/{id}", h.DeleteReceive)
	e.POST("/receives/{id}/reject", h.RejectReceive)
}

func NewReceiveHandler(svc ReceiveService) *ReceiveHandler {
	return &ReceiveHandler{svc: svc}
}

type receiveRequest struct {
	ReceiveAmount     decimal.Decimal `json:"receive_amount"`
	ChargesAmount     decimal.Decimal `json:"charges_amount"`
	ChargesType       string          `json:"charges_type"`
	BranchCharges     decimal.Decimal `json:"branch_charges"`
	BranchChargesType string          `json:"branch_charges_type"`
	FromWhere         int64           `json:"from_where"`
	PassTo            *int64          `json:"pass_to,omitempty"`
	CustomerID        *int64          `json:"customer_id,omitempty"`
	CurrencyID        int64           `json:"currency_id"`
	Date              string          `json:"date"`
	EmployeeID        int64           `json:"employee_id"`
	SenderName        string          `json:"sender_name"`
	SenderPhone       string          `json:"sender_phone"`
	ReceiverName      string          `json:"receiver_name"`
	ReceiverPhone     string          `json:"receiver_phone"`
	ManualNo          *int64          `json:"manual_no,omitempty"`
}

type identityRequest struct {
	SenderName    string `json:"sender_name"`
	SenderPhone   string `json:"sender_phone"`
	ReceiverName  string `json:"receiver_name"`
	ReceiverPhone string `json:"receiver_phone"`
}

type receiveListResponse struct {
	Items []*model.Receive `json:"items"`
	Total int64            `json:"total"`
}

func (r receiveRequest) toCreateRequest(org int64) model.ReceiveCreateRequest {
	p := model.ReceiveCreateRequest{
		OrgID:             org,
		ReceiveAmount:     r.ReceiveAmount,
		ChargesAmount:     r.ChargesAmount,
		ChargesType:       r.ChargesType,
		BranchCharges:     r.BranchCharges,
		BranchChargesType: r.BranchChargesType,
		FromWhere:         r.FromWhere,
		PassTo:            r.PassTo,
		CustomerID:        r.CustomerID,
		CurrencyID:        r.CurrencyID,
		EmployeeID:        r.EmployeeID,
		SenderName:        r.SenderName,
		SenderPhone:       r.SenderPhone,
		ReceiverName:      r.ReceiverName,
		ReceiverPhone:     r.ReceiverPhone,
		ManualNo:          r.ManualNo,
	}
	if r.Date != "" {
		if t, e := parseTime(r.Date); e == nil {
			p.Date = t
		}
	}
	return p
}

func (h *ReceiveHandler) CreateReceive(ctx *xhttp.RequestCtx) {
	org, err := orgID(ctx)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	var req receiveRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	rec, err := h.svc.Create(ctx, req.toCreateRequest(org))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	prom.IncLedgerOperation("receive", "created")
	writeJSON(ctx, 201, rec)
}

func (h *ReceiveHandler) GetReceive(ctx *xhttp.RequestCtx) {
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

func (h *ReceiveHandler) ListReceives(ctx *xhttp.RequestCtx) {
	org, err := orgID(ctx)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	f := model.ReceiveFilter{OrgID: org}
	f.FromWhere = queryInt64Ptr(ctx, "from_where")
	f.PassTo = queryInt64Ptr(ctx, "pass_to")
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
	writeJSON(ctx, 200, receiveListResponse{Items: items, Total: total})
}

func (h *ReceiveHandler) UpdateReceive(ctx *xhttp.RequestCtx) {
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
	var req receiveRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	rec, err := h.svc.Update(ctx, org, id, req.toCreateRequest(org))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	prom.IncLedgerOperation("receive", "updated")
	writeJSON(ctx, 200, rec)
}

func (h *ReceiveHandler) UpdateReceiveIdentity(ctx *xhttp.RequestCtx) {
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
	var req identityRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	if err := h.svc.UpdateIdentity(ctx, org, id, req.SenderName, req.SenderPhone, req.ReceiverName, req.ReceiverPhone); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, map[string]string{"status": "updated"})
}

func (h *ReceiveHandler) DeleteReceive(ctx *xhttp.RequestCtx) {
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
	prom.IncLedgerOperation("receive", "deleted")
	writeJSON(ctx, 200, map[string]string{"status": "deleted"})
}

func (h *ReceiveHandler) RejectReceive(ctx *xhttp.RequestCtx) {
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
	prom.IncLedgerOperation("receive", "rejected")
	writeJSON(ctx, 200, map[string]string{"status": "rejected"})
}
