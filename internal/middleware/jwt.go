// Package middleware provides the request-processing chain: authentication,
// role gating, Redis response caching and rate limiting.
package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/treenetra/treenetra/internal/apperr"
	"github.com/treenetra/treenetra/internal/model"
	"github.com/treenetra/treenetra/internal/utils"
)

// ActiveUserStore is the lookup the authentication gate needs to confirm
// the token's subject still exists and is active.
type ActiveUserStore interface {
	FindByID(ctx context.Context, id uint64) (*model.User, error)
}

// Authenticate validates the Bearer access token and loads the identity
// behind it.  Parsing alone is not enough: a token minted before an account
// was deactivated still verifies, so the subject is re-checked against the
// store on every request.  Handlers read the identity via c.Get("user_id")
// and c.Get("role").
func Authenticate(secret string, users ActiveUserStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return apperr.New(apperr.Unauthenticated, "missing bearer token")
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return err
			}
			uid, err := claims.UserID()
			if err != nil {
				return apperr.New(apperr.InvalidToken, "invalid token subject")
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			u, err := users.FindByID(ctx, uid)
			if err != nil {
				if apperr.IsKind(err, apperr.NotFound) {
					return apperr.New(apperr.Unauthenticated, "unknown identity")
				}
				return err
			}
			if !u.IsActive {
				return apperr.New(apperr.AccountInactive, "account is deactivated")
			}

			// The stored role wins over the claim: a role change takes
			// effect without waiting for the token to expire.
			c.Set("user_id", u.ID)
			c.Set("role", u.Role)
			c.Set("email", u.Email)
			return next(c)
		}
	}
}
