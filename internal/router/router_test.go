package router

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/treenetra/treenetra/internal/handler"
)

// Pin the route table: handlers move around, paths must not.
func TestRegisterRouteTable(t *testing.T) {
	e := echo.New()
	Register(e, Deps{
		Auth:      &handler.AuthHandler{},
		Species:   &handler.SpeciesHandler{},
		Trees:     &handler.TreeHandler{},
		Health:    &handler.HealthRecordHandler{},
		Users:     &handler.UserHandler{},
		Analytics: &handler.AnalyticsHandler{},
		Healthz:   func(c echo.Context) error { return c.NoContent(http.StatusOK) },
	})

	routes := map[string]bool{}
	for _, r := range e.Routes() {
		routes[r.Method+" "+r.Path] = true
	}

	for _, want := range []string{
		"POST /api/v1/auth/refresh-token",
		"POST /api/v1/auth/reset-password/:token",

		// Account administration is full CRUD, not just role/status flips.
		"POST /api/v1/users",
		"PUT /api/v1/users/:id",
		"DELETE /api/v1/users/:id",

		// Tags are added and removed individually.
		"POST /api/v1/trees/:id/tags",
		"DELETE /api/v1/trees/:id/tags/:tag",

		"GET /api/v1/analytics/overview",
		"GET /api/v1/analytics/trees/growth",
		"GET /api/v1/analytics/trees/distribution",
		"GET /api/v1/analytics/health/trends",
		"GET /api/v1/analytics/species/popular",
		"GET /api/v1/analytics/users/activity",
		"GET /api/v1/analytics/reports/monthly",
		"GET /api/v1/analytics/reports/export",
	} {
		assert.True(t, routes[want], want)
	}

	assert.False(t, routes["PATCH /api/v1/trees/:id/tags"], "tags are not replaced wholesale")
}
