package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sakila-admin/internal/logging"
	"github.com/iliyamo/sakila-admin/internal/metrics"
)

// RequestLogger assigns a request ID (reusing X-Request-ID when the client
// sent one), threads it through the request context, and writes one
// structured line and one metric sample per request.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = logging.NewRequestID()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			c.SetRequest(req.WithContext(logging.ContextWithRequestID(req.Context(), id)))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			metrics.HTTPRequests.WithLabelValues(req.Method, route, strconv.Itoa(status)).Inc()

			ev := logging.Info()
			switch {
			case status >= 500:
				ev = logging.Error()
			case status >= 400:
				ev = logging.Warn()
			}
			ev.Str("request_id", id).
				Str("method", req.Method).
				Str("route", route).
				Str("path", req.URL.Path).
				Int("status", status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Uint64("user_id", UserID(c)).
				Msg("request")
			return nil
		}
	}
}
