package auth

import (
	"net/http"
	"strings"

	"github.com/flavorshare/backend/internal/tokens"
	"github.com/labstack/echo/v4"
)

const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
)

type SimpleAuth struct {
	Tokens *tokens.Issuer
}

func NewSimpleAuth(issuer *tokens.Issuer) *SimpleAuth {
	return &SimpleAuth{Tokens: issuer}
}

// RequireAuth authenticates the request from the Authorization header before
// any handler runs. Missing header, wrong scheme and bad tokens are all 401;
// ownership is never evaluated for an unauthenticated caller.
func (m *SimpleAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
		}

		claims, err := m.Tokens.Parse(strings.TrimPrefix(header, prefix))
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		userID, err := claims.UserID()
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject claim")
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextUsername, claims.Username)

		return next(c)
	}
}
