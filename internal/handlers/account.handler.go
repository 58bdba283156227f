package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/sarafbook/ledger/internal/model"
	xhttp "github.com/sarafbook/ledger/pkg/http"
)

type AccountService interface {
	Open(ctx context.Context, p model.AccountOpenRequest) (*model.Account, error)
	Get(ctx context.Context, orgID int64, key model.AccountKey) (*model.Account, error)
	List(ctx context.Context, f model.AccountFilter) ([]*model.Account, int64, error)
	Close(ctx context.Context, orgID int64, key model.AccountKey) error
}

type AccountHandler struct {
	svc AccountService
}

func RegisterAccountRoutes(e *router.Group, h *AccountHandler) {
	e.POST("/accounts", h.OpenAccount)
	e.GET("/accounts", h.ListAccounts)
	e.GET("/accounts/{owner}/{currency}", h.GetAccount)
	e.DELETE("/accounts/{owner}/{currency}", h.CloseAccount)
}

func NewAccountHandler(svc AccountService) *AccountHandler {
	return &AccountHandler{svc: svc}
}

type openAccountRequest struct {
	CustomerID      int64 `json:"customer_id"`
	CurrencyID      int64 `json:"currency_id"`
	SMSEnabled      bool  `json:"sms_enabled"`
	WhatsappEnabled bool  `json:"whatsapp_enabled"`
	TelegramEnabled bool  `json:"telegram_enabled"`
}

type accountListResponse struct {
	Items []*model.Account `json:"items"`
	Total int64            `json:"total"`
}

func (h *AccountHandler) OpenAccount(ctx *xhttp.RequestCtx) {
	org, err := orgID(ctx)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	var req openAccountRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	acc, err := h.svc.Open(ctx, model.AccountOpenRequest{
		OrgID:           org,
		CustomerID:      req.CustomerID,
		CurrencyID:      req.CurrencyID,
		SMSEnabled:      req.SMSEnabled,
		WhatsappEnabled: req.WhatsappEnabled,
		TelegramEnabled: req.TelegramEnabled,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, acc)
}

func (h *AccountHandler) GetAccount(ctx *xhttp.RequestCtx) {
	org, err := orgID(ctx)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	key, err := accountKey(ctx)
	if err != nil {
		writeError(ctx, 400, "invalid account key")
		return
	}
	acc, err := h.svc.Get(ctx, org, key)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, acc)
}

func (h *AccountHandler) ListAccounts(ctx *xhttp.RequestCtx) {
	org, err := orgID(ctx)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	f := model.AccountFilter{OrgID: org}
	f.CustomerID = queryInt64Ptr(ctx, "customer_id")
	f.CurrencyID = queryInt64Ptr(ctx, "currency_id")
	f.Limit, f.Offset, _ = pageParams(ctx)

	items, total, err := h.svc.List(ctx, f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, accountListResponse{Items: items, Total: total})
}

func (h *AccountHandler) CloseAccount(ctx *xhttp.RequestCtx) {
	org, err := orgID(ctx)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	key, err := accountKey(ctx)
	if err != nil {
		writeError(ctx, 400, "invalid account key")
		return
	}
	if err := h.svc.Close(ctx, org, key); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, map[string]string{"status": "closed"})
}

func accountKey(ctx *xhttp.RequestCtx) (model.AccountKey, error) {
	owner, err := pathID(ctx, "owner")
	if err != nil {
		return model.AccountKey{}, err
	}
	currency, err := pathID(ctx, "currency")
	if err != nil {
		return model.AccountKey{}, err
	}
	return model.AccountKey{OwnerID: owner, CurrencyID: currency}, nil
}
