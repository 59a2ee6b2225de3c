package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treenetra/treenetra/internal/apperr"
)

func ctxFor(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestPagination(t *testing.T) {
	c, _ := ctxFor(http.MethodGet, "/?page=3&limit=50", "")
	page, limit := pagination(c)
	assert.Equal(t, 3, page)
	assert.Equal(t, 50, limit)

	// Absent, zero and absurd values clamp to defaults.
	c, _ = ctxFor(http.MethodGet, "/", "")
	page, limit = pagination(c)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, limit)

	c, _ = ctxFor(http.MethodGet, "/?page=-2&limit=100000", "")
	page, limit = pagination(c)
	assert.Equal(t, 1, page)
	assert.Equal(t, 100, limit)
}

func TestValidEmail(t *testing.T) {
	assert.True(t, validEmail("a@b.org"))
	assert.True(t, validEmail("first.last@sub.example.com"))
	assert.False(t, validEmail(""))
	assert.False(t, validEmail("no-at-sign"))
	assert.False(t, validEmail("@example.org"))
	assert.False(t, validEmail("a@b"))
}

func TestRegisterValidation(t *testing.T) {
	h := NewAuthHandler(nil) // validation fails before the service is touched

	c, _ := ctxFor(http.MethodPost, "/api/v1/auth/register",
		`{"email":"not-an-email","password":"short","username":"","full_name":""}`)
	err := h.Register(c)
	require.Error(t, err)
	require.Equal(t, apperr.ValidationFailed, apperr.KindOf(err))

	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	fields := map[string]bool{}
	for _, f := range ae.Fields {
		fields[f.Field] = true
	}
	assert.True(t, fields["email"])
	assert.True(t, fields["password"])
	assert.True(t, fields["username"])
	assert.True(t, fields["full_name"])
}

func TestLoginRequiresBothFields(t *testing.T) {
	h := NewAuthHandler(nil)

	c, _ := ctxFor(http.MethodPost, "/api/v1/auth/login", `{"email":"a@b.org"}`)
	err := h.Login(c)
	assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(err))
}

func TestResetPasswordValidation(t *testing.T) {
	h := NewAuthHandler(nil)

	// The token travels in the path, the replacement password in the body.
	c, _ := ctxFor(http.MethodPost, "/api/v1/auth/reset-password/tok", `{"password":"short"}`)
	c.SetParamNames("token")
	c.SetParamValues("tok")
	err := h.ResetPassword(c)
	require.Error(t, err)
	require.Equal(t, apperr.ValidationFailed, apperr.KindOf(err))

	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	require.Len(t, ae.Fields, 1)
	assert.Equal(t, "password", ae.Fields[0].Field)

	c, _ = ctxFor(http.MethodPost, "/api/v1/auth/reset-password/", `{"password":"long enough"}`)
	err = h.ResetPassword(c)
	assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(err))
}

func TestTreeRequestValidation(t *testing.T) {
	req := treeReq{SpeciesID: 1, Latitude: 95, Longitude: -200, Status: "thriving", PlantedDate: "June 2020"}
	_, err := req.validate()
	require.Error(t, err)

	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	fields := map[string]bool{}
	for _, f := range ae.Fields {
		fields[f.Field] = true
	}
	assert.True(t, fields["latitude"])
	assert.True(t, fields["longitude"])
	assert.True(t, fields["status"])
	assert.True(t, fields["planted_date"])

	ok := treeReq{SpeciesID: 1, Latitude: 27.7, Longitude: 85.3, PlantedDate: "2020-06-15"}
	planted, err := ok.validate()
	require.NoError(t, err)
	require.NotNil(t, planted)
	assert.Equal(t, 2020, planted.Year())
}

func TestHealthRecordValidation(t *testing.T) {
	req := healthRecordReq{Status: "fine", HealthScore: 150, FollowUpRequired: true}
	_, _, err := req.validate(true)
	require.Error(t, err)

	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	fields := map[string]bool{}
	for _, f := range ae.Fields {
		fields[f.Field] = true
	}
	assert.True(t, fields["tree_id"])
	assert.True(t, fields["status"])
	assert.True(t, fields["health_score"])
	assert.True(t, fields["follow_up_date"], "follow-up flag without a date")
}

func TestNearbyRejectsMissingCoordinates(t *testing.T) {
	h := NewTreeHandler(nil, nil)

	c, _ := ctxFor(http.MethodGet, "/api/v1/trees/nearby", "")
	err := h.Nearby(c)
	assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(err))

	c, _ = ctxFor(http.MethodGet, "/api/v1/trees/nearby?lat=27.7&lng=85.3&radius=-5", "")
	err = h.Nearby(c)
	assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(err))
}
