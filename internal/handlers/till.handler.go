package handlers

import (
	"context"
	"time"

	"github.com/fasthttp/router"
	"github.com/sarafbook/ledger/internal/model"
	xhttp "github.com/sarafbook/ledger/pkg/http"
	"github.com/shopspring/decimal"
)

type TillService interface {
	Recompute(ctx context.Context, orgID, currencyID int64, day time.Time) (*model.Till, error)
	Close(ctx context.Context, orgID, currencyID int64, day time.Time, actualCash decimal.Decimal, closedBy int64) (*model.Till, error)
	Get(ctx context.Context, orgID, currencyID int64, day time.Time) (*model.Till, error)
	History(ctx context.Context, orgID, currencyID int64, limit, offset int) ([]*model.Till, int64, error)
}

type TillHandler struct {
	svc TillService
}

func RegisterTillRoutes(e *router.Group, h *TillHandler) {
	e.POST("/tills/recompute", h.RecomputeTill)
	e.POST("/tills/close", h.CloseTill)
	e.GET("/tills", h.GetTill)
	e.GET("/tills/history", h.TillHistory)
}

func NewTillHandler(svc TillService) *TillHandler {
	return &TillHandler{svc: svc}
}

type recomputeTillRequest struct {
	CurrencyID int64  `json:"currency_id"`
	Date       string `json:"date"`
}

type closeTillRequest struct {
	CurrencyID int64           `json:"currency_id"`
	Date       string          `json:"date"`
	ActualCash decimal.Decimal `json:"actual_cash"`
	EmployeeID int64           `json:"employee_id"`
}

type tillListResponse struct {
	Items []*model.Till `json:"items"`
	Total int64         `json:"total"`
}

func tillDay(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	return parseTime(s)
}

func (h *TillHandler) RecomputeTill(ctx *xhttp.RequestCtx) {
	org, err := orgID(ctx)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	var req recomputeTillRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	day, err := tillDay(req.Date)
	if err != nil {
		writeError(ctx, 400, "invalid date")
		return
	}
	till, err := h.svc.Recompute(ctx, org, req.CurrencyID, day)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, till)
}

func (h *TillHandler) CloseTill(ctx *xhttp.RequestCtx) {
	org, err := orgID(ctx)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	var req closeTillRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	day, err := tillDay(req.Date)
	if err != nil {
		writeError(ctx, 400, "invalid date")
		return
	}
	till, err := h.svc.Close(ctx, org, req.CurrencyID, day, req.ActualCash, req.EmployeeID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, till)
}

func (h *TillHandler) GetTill(ctx *xhttp.RequestCtx) {
	org, err := orgID(ctx)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	currency := queryInt64Ptr(ctx, "currency_id")
	if currency == nil {
		writeError(ctx, 400, "currency_id is required")
		return
	}
	day, err := tillDay(query(ctx, "date"))
	if err != nil {
		writeError(ctx, 400, "invalid date")
		return
	}
	till, err := h.svc.Get(ctx, org, *currency, day)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, till)
}

func (h *TillHandler) TillHistory(ctx *xhttp.RequestCtx) {
	org, err := orgID(ctx)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	currency := queryInt64Ptr(ctx, "currency_id")
	if currency == nil {
		writeError(ctx, 400, "currency_id is required")
		return
	}
	limit, offset, _ := pageParams(ctx)

	items, total, err := h.svc.History(ctx, org, *currency, limit, offset)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, tillListResponse{Items: items, Total: total})
}
