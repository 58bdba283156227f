package handlers

import (
	"context"
	"errors"

	"github.com/fasthttp/router"
	"github.com/sarafbook/ledger/internal/model"
	"github.com/sarafbook/ledger/internal/repository"
	xhttp "github.com/sarafbook/ledger/pkg/http"
)

// CustomerRegistry is satisfied by repository.CustomerRepository; the
// registry has no business rules of its own so no service sits in between.
type CustomerRegistry interface {
	Create(ctx context.Context, c *model.Customer) (*model.Customer, error)
	Get(ctx context.Context, orgID, id int64) (*model.Customer, error)
	List(ctx context.Context, orgID int64, branchesOnly bool, limit, offset int) ([]*model.Customer, int64, error)
}

type CustomerHandler struct {
	registry CustomerRegistry
}

func RegisterCustomerRoutes(e *router.Group, h *CustomerHandler) {
	e.POST("/customers", h.CreateCustomer)
	e.GET("/customers", h.ListCustomers)
	e.GET("/customers/{id}", h.GetCustomer)
}

func NewCustomerHandler(registry CustomerRegistry) *CustomerHandler {
	return &CustomerHandler{registry: registry}
}

type createCustomerRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	IsBranch bool   `json:"is_branch"`
}

type customerListResponse struct {
	Items []*model.Customer `json:"items"`
	Total int64             `json:"total"`
}

func (h *CustomerHandler) CreateCustomer(ctx *xhttp.RequestCtx) {
	org, err := orgID(ctx)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	var req createCustomerRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	if req.Name == "" {
		writeError(ctx, 400, "name is required")
		return
	}
	c, err := h.registry.Create(ctx, &model.Customer{
		OrgID:    org,
		Name:     req.Name,
		Phone:    req.Phone,
		IsBranch: req.IsBranch,
	})
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 201, c)
}

func (h *CustomerHandler) GetCustomer(ctx *xhttp.RequestCtx) {
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
	c, err := h.registry.Get(ctx, org, id)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			writeError(ctx, 404, err.Error())
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, c)
}

func (h *CustomerHandler) ListCustomers(ctx *xhttp.RequestCtx) {
	org, err := orgID(ctx)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	limit, offset, _ := pageParams(ctx)
	branchesOnly := query(ctx, "branches") == "true"

	items, total, err := h.registry.List(ctx, org, branchesOnly, limit, offset)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, customerListResponse{Items: items, Total: total})
}
