package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/sarafbook/ledger/internal/model"
	xhttp "github.com/sarafbook/ledger/pkg/http"
	"github.com/sarafbook/ledger/pkg/prom"
	"github.com/shopspring/decimal"
)

type ExchangeService interface {
	Create(ctx context.Context, p model.ExchangeCreateRequest) (*model.Exchange, error)
	Get(ctx context.Context, orgID, id int64) (*model.Exchange, error)
	List(ctx context.Context, f model.ExchangeFilter) ([]*model.Exchange, int64, error)
	Delete(ctx context.Context, orgID, id int64) error
}

type ExchangeHandler struct {
	svc ExchangeService
}

func RegisterExchangeRoutes(e *router.Group, h *ExchangeHandler) {
	e.POST("/exchanges", h.CreateExchange)
	e.GET("/exchanges", h.ListExchanges)
	e.GET("/exchanges/{id}", h.GetExchange)
	e.DELETE("/exchanges/{id}", h.DeleteExchange)
}

func NewExchangeHandler(svc ExchangeService) *ExchangeHandler {
	return &ExchangeHandler{svc: svc}
}

type createExchangeRequest struct {
	CustomerID         int64           `json:"customer_id"`
	SaleCurrencyID     int64           `json:"sale_currency_id"`
	PurchaseCurrencyID int64           `json:"purchase_currency_id"`
	SaleAmount         decimal.Decimal `json:"sale_amount"`
	PurchaseAmount     decimal.Decimal `json:"purchase_amount"`
	Rate               decimal.Decimal `json:"rate"`
	Swap               bool            `json:"swap"`
	Calculate          bool            `json:"calculate"`
	Date               string          `json:"date"`
	EmployeeID         int64           `json:"employee_id"`
}

type exchangeListResponse struct {
	Items []*model.Exchange `json:"items"`
	Total int64             `json:"total"`
}

func (h *ExchangeHandler) CreateExchange(ctx *xhttp.RequestCtx) {
	org, err := orgID(ctx)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	var req createExchangeRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	p := model.ExchangeCreateRequest{
		OrgID:              org,
		CustomerID:         req.CustomerID,
		SaleCurrencyID:     req.SaleCurrencyID,
		PurchaseCurrencyID: req.PurchaseCurrencyID,
		SaleAmount:         req.SaleAmount,
		PurchaseAmount:     req.PurchaseAmount,
		Rate:               req.Rate,
		Swap:               req.Swap,
		Calculate:          req.Calculate,
		EmployeeID:         req.EmployeeID,
	}
	if req.Date != "" {
		if t, e := parseTime(req.Date); e == nil {
			p.Date = t
		}
	}
	x, err := h.svc.Create(ctx, p)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	prom.IncLedgerOperation("exchange", "created")
	writeJSON(ctx, 201, x)
}

func (h *ExchangeHandler) GetExchange(ctx *xhttp.RequestCtx) {
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
	x, err := h.svc.Get(ctx, org, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, x)
}

func (h *ExchangeHandler) ListExchanges(ctx *xhttp.RequestCtx) {
	org, err := orgID(ctx)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	f := model.ExchangeFilter{OrgID: org}
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
	writeJSON(ctx, 200, exchangeListResponse{Items: items, Total: total})
}

func (h *ExchangeHandler) DeleteExchange(ctx *xhttp.RequestCtx) {
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
	prom.IncLedgerOperation("exchange", "deleted")
	writeJSON(ctx, 200, map[string]string{"status": "deleted"})
}
