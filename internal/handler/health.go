package handler

import (
	"database/sql"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Healthz reports liveness plus a database ping so load balancers can pull
// an instance whose pool has gone bad.
func Healthz(db *sql.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		status := "ok"
		code := http.StatusOK
		if err := db.PingContext(c.Request().Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		return c.JSON(code, echo.Map{"status": status})
	}
}
