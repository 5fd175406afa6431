package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sakila-admin/internal/events"
	"github.com/iliyamo/sakila-admin/internal/logging"
	"github.com/iliyamo/sakila-admin/internal/middleware"
)

// EventsHandler serves the admin event channel.
type EventsHandler struct {
	Bus      *events.Bus
	upgrader websocket.Upgrader
}

func NewEventsHandler(bus *events.Bus, allowedOrigins ...string) *EventsHandler {
	return &EventsHandler{Bus: bus, upgrader: events.Upgrader(allowedOrigins...)}
}

// Stream handles GET /v1/admin/events as a websocket.
func (h *EventsHandler) Stream(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logging.Ctx(c.Request().Context()).Warn().Err(err).Msg("websocket upgrade failed")
		return nil
	}
	events.Stream(h.Bus, conn)
	return nil
}

type navigateReq struct {
	Tab    string `json:"tab" validate:"required,oneof=schema dashboard analytics views"`
	Reason string `json:"reason" validate:"max=200"`
}

// Navigate handles POST /v1/admin/navigate and broadcasts a tab change.
func (h *EventsHandler) Navigate(c echo.Context) error {
	var req navigateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": validationMessage(err)})
	}
	e := events.Navigate(req.Tab, req.Reason)
	if id := middleware.UserID(c); id != 0 {
		e.Actor = "admin:" + strconv.FormatUint(id, 10)
	}
	h.Bus.Publish(e)
	return c.JSON(http.StatusAccepted, e)
}
