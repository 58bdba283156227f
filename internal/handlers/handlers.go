// Package handlers is the thin HTTP tier: it parses requests, resolves the
// organization from the X-Org-ID header and delegates to the services. All
// authorization happens upstream of this process.
package handlers

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/sarafbook/ledger/internal/services"
	xhttp "github.com/sarafbook/ledger/pkg/http"
)

const orgHeader = "X-Org-ID"

var errMissingOrg = errors.New("missing or invalid " + orgHeader + " header")

func orgID(ctx *xhttp.RequestCtx) (int64, error) {
	v := ctx.Request.Header.Peek(orgHeader)
	if len(v) == 0 {
		return 0, errMissingOrg
	}
	id, err := strconv.ParseInt(string(v), 10, 64)
	if err != nil || id <= 0 {
		return 0, errMissingOrg
	}
	return id, nil
}

func pathID(ctx *xhttp.RequestCtx, name string) (int64, error) {
	v, _ := ctx.UserValue(name).(string)
	return strconv.ParseInt(v, 10, 64)
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	return json.Unmarshal(body, dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

// writeServiceError maps service sentinels onto HTTP statuses so every
// handler reports them the same way.
func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrAccountNotFound):
		writeError(ctx, 404, err.Error())
	case errors.Is(err, services.ErrDuplicateNumber),
		errors.Is(err, services.ErrAccountExists),
		errors.Is(err, services.ErrAlreadyDeleted),
		errors.Is(err, services.ErrAlreadyRejected),
		errors.Is(err, services.ErrTillClosed):
		writeError(ctx, 409, err.Error())
	default:
		writeError(ctx, 400, err.Error())
	}
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func queryInt64Ptr(ctx *xhttp.RequestCtx, key string) *int64 {
	if v := query(ctx, key); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			return &id
		}
	}
	return nil
}

func parseTime(s string) (time.Time, error) {
	// Accept RFC3339 or YYYY-MM-DD
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func pageParams(ctx *xhttp.RequestCtx) (limit, offset int, desc bool) {
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			offset = n
		}
	}
	desc = string(ctx.QueryArgs().Peek("order")) == "desc"
	return limit, offset, desc
}
