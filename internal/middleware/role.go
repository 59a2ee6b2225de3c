package middleware

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/treenetra/treenetra/internal/apperr"
)

// RequireRole gates a route to the given roles.  Denials are written to the
// audit log with the identity and route so privilege probing is visible.
// Assumes Authenticate ran earlier in the chain.
func RequireRole(audit *zap.Logger, roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if !allowed[role] {
				uid, _ := c.Get("user_id").(uint64)
				audit.Warn("access denied",
					zap.Uint64("user_id", uid),
					zap.String("role", role),
					zap.String("method", c.Request().Method),
					zap.String("path", c.Path()),
					zap.String("ip", c.RealIP()),
				)
				return apperr.New(apperr.Forbidden, "insufficient role")
			}
			return next(c)
		}
	}
}
