package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sakila-admin/internal/events"
	"github.com/iliyamo/sakila-admin/internal/paging"
	"github.com/iliyamo/sakila-admin/internal/repository"
	"github.com/iliyamo/sakila-admin/internal/view"
)

// PageFetcher is the read side of the data-access layer.
type PageFetcher interface {
	FetchPage(ctx context.Context, req repository.PageRequest) repository.PageResult
	Catalog() *view.Catalog
}

// Publisher sends events to the admin channel.
type Publisher interface {
	Publish(e events.Event)
}

// ViewsHandler serves the admin list views.
type ViewsHandler struct {
	Pages  PageFetcher
	Events Publisher
	Paging paging.Config
}

func NewViewsHandler(pages PageFetcher, pub Publisher, pc paging.Config) *ViewsHandler {
	return &ViewsHandler{Pages: pages, Events: pub, Paging: pc}
}

type listParams struct {
	Page     int    `query:"page" validate:"omitempty,min=1"`
	PageSize int    `query:"page_size" validate:"omitempty,min=1"`
	Search   string `query:"search" validate:"max=100"`
	Order    string `query:"order" validate:"omitempty,max=64"`
	Dir      string `query:"dir" validate:"omitempty,oneof=asc desc ASC DESC"`
}

type listResponse struct {
	State      string           `json:"state"`
	View       string           `json:"view"`
	Rows       []repository.Row `json:"rows"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	HasMore    bool             `json:"has_more"`
	TotalPages int              `json:"total_pages"`
	Columns    []string         `json:"columns"`
	Actions    view.Actions     `json:"actions"`
}

type viewDescriptor struct {
	view.View
	Actions view.Actions `json:"actions"`
}

// Catalog handles GET /v1/admin/views.
func (h *ViewsHandler) Catalog(c echo.Context) error {
	all := h.Pages.Catalog().All()
	out := make([]viewDescriptor, 0, len(all))
	for _, v := range all {
		out = append(out, viewDescriptor{View: v, Actions: v.Actions()})
	}
	return c.JSON(http.StatusOK, echo.Map{"views": out})
}

// filtersFrom reads filter.<col> (exact) and like.<col> (substring) query
// parameters.
func filtersFrom(c echo.Context) []repository.Filter {
	var out []repository.Filter
	for key, vals := range c.QueryParams() {
		if len(vals) == 0 {
			continue
		}
		switch {
		case strings.HasPrefix(key, "filter."):
			out = append(out, repository.Filter{Column: strings.TrimPrefix(key, "filter."), Value: vals[0], Match: view.MatchExact})
		case strings.HasPrefix(key, "like."):
			out = append(out, repository.Filter{Column: strings.TrimPrefix(key, "like."), Value: vals[0], Match: view.MatchSubstring})
		}
	}
	return out
}

// List handles GET /v1/admin/views/:view.
func (h *ViewsHandler) List(c echo.Context) error {
	name := c.Param("view")
	v, ok := h.Pages.Catalog().Lookup(name)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown view", "view": name})
	}

	var p listParams
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid query", "state": "invalid"})
	}
	if err := c.Validate(&p); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": validationMessage(err), "state": "invalid"})
	}
	if p.Page == 0 {
		p.Page = 1
	}
	size := h.Paging.Effective(p.PageSize)

	req := repository.PageRequest{
		View:      v.Name,
		Page:      p.Page,
		PageSize:  size,
		OrderBy:   p.Order,
		Ascending: !strings.EqualFold(p.Dir, "desc"),
		Filters:   filtersFrom(c),
		Search:    strings.TrimSpace(p.Search),
	}
	res := h.Pages.FetchPage(c.Request().Context(), req)
	if res.Err != nil {
		return h.fetchFailed(c, v, res.Err)
	}

	state := "ok"
	if len(res.Rows) == 0 {
		state = "empty"
	}
	return c.JSON(http.StatusOK, listResponse{
		State:      state,
		View:       v.Name,
		Rows:       res.Rows,
		Total:      res.TotalCount,
		Page:       res.Page,
		PageSize:   res.PageSize,
		HasMore:    res.HasMore,
		TotalPages: paging.TotalPages(res.PageSize, res.TotalCount),
		Columns:    v.Columns,
		Actions:    v.Actions(),
	})
}

// fetchFailed maps a FetchError onto a status and body.  A missing table
// also points every open shell at the schema explorer.
func (h *ViewsHandler) fetchFailed(c echo.Context, v view.View, fe *repository.FetchError) error {
	switch fe.Kind {
	case repository.KindTableNotFound:
		if h.Events != nil {
			h.Events.Publish(events.TableMissing(v.Name, v.Table))
		}
		return c.JSON(http.StatusNotFound, echo.Map{
			"error":    "table not found",
			"state":    "table_not_found",
			"table":    v.Table,
			"navigate": events.TabSchema,
		})
	case repository.KindInvalid:
		msg := "invalid request"
		if errors.Is(fe, repository.ErrUnknownColumn) || errors.Is(fe, repository.ErrInvalidPage) {
			msg = fe.Err.Error()
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg, "state": "invalid"})
	case repository.KindUnavailable:
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"error": "database unavailable", "state": "unavailable", "retryable": true,
		})
	default:
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error": "query failed", "state": "error", "retryable": true,
		})
	}
}

// Edit handles PUT /v1/admin/views/:view/:id.  Editing is not implemented.
func (h *ViewsHandler) Edit(c echo.Context) error { return h.notImplemented(c, "edit") }

// Delete handles DELETE /v1/admin/views/:view/:id.  Deleting is not implemented.
func (h *ViewsHandler) Delete(c echo.Context) error { return h.notImplemented(c, "delete") }

func (h *ViewsHandler) notImplemented(c echo.Context, action string) error {
	name := c.Param("view")
	if _, ok := h.Pages.Catalog().Lookup(name); !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown view", "view": name})
	}
	return c.JSON(http.StatusNotImplemented, echo.Map{
		"error":  "not_implemented",
		"action": action,
		"view":   name,
		"id":     c.Param("id"),
		"state":  view.ActionDisabled,
	})
}
