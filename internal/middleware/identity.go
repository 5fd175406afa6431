package middleware

// identity.go holds the helpers that read the caller's identity back out of
// the Echo context after JWTAuth ran.

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// UserID returns the authenticated admin's ID, or 0 for anonymous requests.
func UserID(c echo.Context) uint64 {
	if id, ok := c.Get(CtxUserID).(uint64); ok {
		return id
	}
	return 0
}

// Role returns the authenticated admin's role, or "".
func Role(c echo.Context) string {
	r, _ := c.Get(CtxRole).(string)
	return r
}

// userKey renders the caller as a key component: the user ID, the token's
// sub claim, or "anon".
func userKey(c echo.Context) string {
	if id := UserID(c); id != 0 {
		return strconv.FormatUint(id, 10)
	}
	if tok, ok := c.Get(CtxToken).(*jwt.Token); ok {
		if cl, ok := tok.Claims.(jwt.MapClaims); ok {
			if v, ok := cl["sub"].(string); ok && v != "" {
				return v
			}
		}
	}
	return "anon"
}
