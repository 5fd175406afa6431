package handler

import (
	_ "embed"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed static/index.html
var landingPage []byte

// Landing serves the marketing page at /.
func Landing(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=300")
	return c.HTMLBlob(http.StatusOK, landingPage)
}

// AdminRedirect sends /admin to the shell descriptor.
func AdminRedirect(c echo.Context) error {
	return c.Redirect(http.StatusFound, "/v1/admin/shell")
}
