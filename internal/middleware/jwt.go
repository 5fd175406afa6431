package middleware // reusable HTTP middleware for the admin API

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sakila-admin/internal/utils"
)

// Context keys set by JWTAuth.
const (
	CtxUserID = "user_id" // uint64
	CtxRole   = "role"    // string
	CtxToken  = "user"    // *jwt.Token
)

// JWTAuth validates a Bearer access token and stores the subject, role and
// parsed token in the Echo context for downstream handlers.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, tok, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxRole, claims.Role)
			c.Set(CtxToken, tok)
			return next(c)
		}
	}
}
