package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sakila-admin/internal/events"
	"github.com/iliyamo/sakila-admin/internal/view"
)

// Connectivity is the result of the startup database check.
type Connectivity struct {
	OK        bool      `json:"ok"`
	Error     string    `json:"error,omitempty"`
	LatencyMS int64     `json:"latency_ms"`
	CheckedAt time.Time `json:"checked_at"`
}

// CheckConnectivity pings db once within timeout.
func CheckConnectivity(ctx context.Context, db Pinger, timeout time.Duration) Connectivity {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	start := time.Now()
	err := db.PingContext(ctx)
	c := Connectivity{OK: err == nil, LatencyMS: time.Since(start).Milliseconds(), CheckedAt: time.Now().UTC()}
	if err != nil {
		c.Error = err.Error()
	}
	return c
}

type shellItem struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Href  string `json:"href"`
}

type shellSection struct {
	Key   string      `json:"key"`
	Title string      `json:"title"`
	Items []shellItem `json:"items"`
}

// ShellHandler describes the admin shell: its sidebar and the outcome of
// the startup connectivity check.
type ShellHandler struct {
	sections     []shellSection
	connectivity Connectivity
}

func NewShellHandler(catalog *view.Catalog, conn Connectivity) *ShellHandler {
	views := make([]shellItem, 0)
	for _, v := range catalog.All() {
		views = append(views, shellItem{Key: v.Name, Title: v.Title, Href: "/v1/admin/views/" + v.Name})
	}
	return &ShellHandler{
		connectivity: conn,
		sections: []shellSection{
			{Key: events.TabDashboard, Title: "Dashboard", Items: []shellItem{
				{Key: "overview", Title: "Overview", Href: "/v1/admin/dashboard"},
			}},
			{Key: events.TabViews, Title: "Data", Items: views},
			{Key: events.TabAnalytics, Title: "Analytics", Items: []shellItem{
				{Key: "report", Title: "Report", Href: "/v1/admin/analytics"},
				{Key: "capabilities", Title: "Capabilities", Href: "/v1/admin/analytics/capabilities"},
			}},
			{Key: events.TabSchema, Title: "Schema explorer", Items: []shellItem{
				{Key: "tables", Title: "Tables", Href: "/v1/admin/schema/tables"},
			}},
		},
	}
}

// Shell handles GET /v1/admin/shell.
func (h *ShellHandler) Shell(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"sections":     h.sections,
		"default_tab":  events.TabDashboard,
		"connectivity": h.connectivity,
		"events":       "/v1/admin/events",
	})
}
