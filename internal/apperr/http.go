package apperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// errBody is the uniform error response shape.  The Errors slice is only
// present for validation failures; Detail is only present outside
// production and carries the wrapped cause.
type errBody struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
	Detail  string       `json:"detail,omitempty"`
}

// HTTPErrorHandler returns an Echo error handler that translates taxonomy
// kinds into status codes and the uniform {success:false,...} body.
// Unclassified errors become a generic 500 so internal detail never leaks
// to clients; the full cause is logged either way.
func HTTPErrorHandler(log *zap.Logger, dev bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		body := errBody{Message: "internal server error"}

		var ae *Error
		var he *echo.HTTPError
		switch {
		case errors.As(err, &ae):
			status = ae.Kind.HTTPStatus()
			body.Message = ae.Message
			if len(ae.Fields) > 0 {
				body.Errors = ae.Fields
			}
			if dev && ae.Err != nil {
				body.Detail = ae.Err.Error()
			}
		case errors.As(err, &he):
			// Echo's own errors (404 route miss, 405, bind failures).
			status = he.Code
			if msg, ok := he.Message.(string); ok {
				body.Message = msg
			}
		default:
			if dev {
				body.Detail = err.Error()
			}
		}

		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Error(err))
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}
