// Package handler defines the HTTP handlers.  Handlers bind and validate
// input, call the repositories or services, and shape the response
// envelope; error mapping to status codes lives in the central error
// handler.
package handler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/treenetra/treenetra/internal/apperr"
)

const dbTimeout = 5 * time.Second

// envelope is the uniform success body: {"success":true,...}.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Meta    *meta  `json:"meta,omitempty"`
}

// meta carries pagination info alongside list payloads.
type meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func ok(data any) envelope             { return envelope{Success: true, Data: data} }
func okMsg(msg string) envelope        { return envelope{Success: true, Message: msg} }
func okList(data any, m meta) envelope { return envelope{Success: true, Data: data, Meta: &m} }

func newMeta(page, limit, total int) meta {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return meta{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

// dbCtx bounds repository calls the same way on every endpoint.
func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// getUserID extracts the authenticated user id set by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, apperr.New(apperr.Unauthenticated, "not authenticated")
}

// pathID parses a numeric :id path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.New(apperr.ValidationFailed, "invalid "+name)
	}
	return id, nil
}

// pagination parses ?page and ?limit with sane bounds.
func pagination(c echo.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

// queryFloat parses an optional float query parameter, returning def when
// absent or malformed.
func queryFloat(c echo.Context, name string, def float64) float64 {
	s := strings.TrimSpace(c.QueryParam(name))
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(c echo.Context, name string) *time.Time {
	s := strings.TrimSpace(c.QueryParam(name))
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

// fieldErrs collects validation failures; Err returns nil when the input
// was clean.
type fieldErrs []apperr.FieldError

func (f *fieldErrs) add(field, msg string) {
	*f = append(*f, apperr.FieldError{Field: field, Message: msg})
}

func (f fieldErrs) Err() error {
	if len(f) == 0 {
		return nil
	}
	return apperr.Validation(f...)
}

// validEmail is a minimal shape check; real validation is the mail server's
// problem.
func validEmail(s string) bool {
	at := strings.Index(s, "@")
	return at > 0 && at < len(s)-3 && strings.Contains(s[at:], ".")
}
