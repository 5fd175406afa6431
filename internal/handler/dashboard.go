package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sakila-admin/internal/dashboard"
	"github.com/iliyamo/sakila-admin/internal/events"
	"github.com/iliyamo/sakila-admin/internal/logging"
	"github.com/iliyamo/sakila-admin/internal/reporting"
)

// DashboardBuilder computes the statistics cards.
type DashboardBuilder interface {
	Build(ctx context.Context) dashboard.Result
}

// AnalyticsEngine evaluates the negotiated reporting schema.
type AnalyticsEngine interface {
	Compute(ctx context.Context) (reporting.Report, error)
	Capabilities() (reporting.Capabilities, bool)
	Renegotiate(ctx context.Context) (reporting.Capabilities, error)
}

// StatsHandler serves the dashboard and analytics screens.
type StatsHandler struct {
	Dashboard DashboardBuilder
	Analytics AnalyticsEngine
	Events    Publisher
	// Purge drops cached API responses after a renegotiation.
	Purge func(ctx context.Context) error
}

func NewStatsHandler(d DashboardBuilder, a AnalyticsEngine, pub Publisher, purge func(context.Context) error) *StatsHandler {
	return &StatsHandler{Dashboard: d, Analytics: a, Events: pub, Purge: purge}
}

// DashboardCards handles GET /v1/admin/dashboard.  It always answers 200; cards
// carry their own state.
func (h *StatsHandler) DashboardCards(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Dashboard.Build(c.Request().Context()))
}

// AnalyticsReport handles GET /v1/admin/analytics.
func (h *StatsHandler) AnalyticsReport(c echo.Context) error {
	rep, err := h.Analytics.Compute(c.Request().Context())
	if errors.Is(err, reporting.ErrNotNegotiated) {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "analytics not ready", "state": "unavailable", "retryable": true})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "analytics failed"})
	}
	return c.JSON(http.StatusOK, rep)
}

// Capabilities handles GET /v1/admin/analytics/capabilities.
func (h *StatsHandler) Capabilities(c echo.Context) error {
	caps, ok := h.Analytics.Capabilities()
	if !ok {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "analytics not ready", "state": "unavailable"})
	}
	return c.JSON(http.StatusOK, caps)
}

// Renegotiate handles POST /v1/admin/analytics/renegotiate.
func (h *StatsHandler) Renegotiate(c echo.Context) error {
	ctx := c.Request().Context()
	caps, err := h.Analytics.Renegotiate(ctx)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("renegotiate failed")
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "renegotiate failed", "retryable": true})
	}
	if h.Purge != nil {
		if err := h.Purge(ctx); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("response cache purge failed")
		}
	}
	if h.Events != nil {
		e := events.New(events.TypeRenegotiated)
		e.Tab = events.TabAnalytics
		h.Events.Publish(e)
	}
	return c.JSON(http.StatusOK, caps)
}
