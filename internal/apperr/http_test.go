package apperr

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func serve(t *testing.T, dev bool, err error) (*httptest.ResponseRecorder, errBody) {
	t.Helper()
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler(zap.NewNop(), dev)
	e.GET("/boom", func(c echo.Context) error { return err })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	var body errBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHTTPErrorHandlerMapsKinds(t *testing.T) {
	rec, body := serve(t, false, New(AccountLocked, "account is locked, try again later"))
	assert.Equal(t, http.StatusLocked, rec.Code)
	assert.False(t, body.Success)
	assert.Equal(t, "account is locked, try again later", body.Message)

	rec, body = serve(t, false, New(NotFound, "tree not found"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "tree not found", body.Message)
}

func TestHTTPErrorHandlerValidationFields(t *testing.T) {
	rec, body := serve(t, false, Validation(FieldError{Field: "email", Message: "required"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "email", body.Errors[0].Field)
}

func TestHTTPErrorHandlerHidesInternalDetail(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.5:3306: connection refused")

	rec, body := serve(t, false, Wrap(cause, Internal, "loading user"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, body.Detail, "production responses never carry the cause")
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")

	_, body = serve(t, true, Wrap(cause, Internal, "loading user"))
	assert.Contains(t, body.Detail, "connection refused", "dev mode surfaces the cause")
}

func TestHTTPErrorHandlerPlainErrorsAreGeneric(t *testing.T) {
	rec, body := serve(t, false, errors.New("sql: connection is already closed"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", body.Message)
	assert.NotContains(t, rec.Body.String(), "sql:")
}

func TestHTTPErrorHandlerEchoErrors(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler(zap.NewNop(), false)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/no-such-route", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}
