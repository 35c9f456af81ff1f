package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/harshkumar35/finalleagalsathi-sub000/internal/session"
)

// Context keys set by SessionAuth.
const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
	CtxRole   = "role"
)

// SessionAuth rejects requests without a valid session token and stores the
// identity in the echo context under CtxUserID (uint64), CtxEmail and
// CtxRole.  The token is read from the session cookie, or from a Bearer
// header for non-browser clients.
func SessionAuth(iss *session.Issuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := iss.Verify(iss.TokenFromRequest(c.Request()))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
			}
			c.Set(CtxUserID, claims.ID)
			c.Set(CtxEmail, claims.Email)
			c.Set(CtxRole, claims.Role)
			return next(c)
		}
	}
}
