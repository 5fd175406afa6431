package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sakila-admin/internal/events"
	"github.com/iliyamo/sakila-admin/internal/logging"
	"github.com/iliyamo/sakila-admin/internal/schema"
)

// SchemaReader is the introspection surface of the schema explorer.
type SchemaReader interface {
	ListTables(ctx context.Context) ([]string, error)
	DescribeColumns(ctx context.Context, table string) ([]schema.Column, error)
	Invalidate(ctx context.Context, names ...string) error
	InvalidateAll(ctx context.Context) error
}

// SchemaHandler serves the schema explorer.
type SchemaHandler struct {
	Schema SchemaReader
	Events Publisher
	// Purge drops cached API responses after a schema invalidation.
	Purge func(ctx context.Context) error
}

func NewSchemaHandler(s SchemaReader, pub Publisher, purge func(context.Context) error) *SchemaHandler {
	return &SchemaHandler{Schema: s, Events: pub, Purge: purge}
}

// Tables handles GET /v1/admin/schema/tables.
func (h *SchemaHandler) Tables(c echo.Context) error {
	tables, err := h.Schema.ListTables(c.Request().Context())
	if err != nil {
		logging.Ctx(c.Request().Context()).Error().Err(err).Msg("list tables failed")
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "list tables failed", "state": "error", "retryable": true})
	}
	return c.JSON(http.StatusOK, echo.Map{"tables": tables, "count": len(tables)})
}

// Table handles GET /v1/admin/schema/tables/:table.
func (h *SchemaHandler) Table(c echo.Context) error {
	name := c.Param("table")
	cols, err := h.Schema.DescribeColumns(c.Request().Context(), name)
	switch {
	case errors.Is(err, schema.ErrInvalidIdentifier):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table name", "state": "invalid"})
	case errors.Is(err, schema.ErrTableNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found", "state": "table_not_found", "table": name})
	case err != nil:
		logging.Ctx(c.Request().Context()).Error().Err(err).Str("table", name).Msg("describe table failed")
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "describe failed", "state": "error", "retryable": true})
	}
	return c.JSON(http.StatusOK, echo.Map{"table": name, "columns": cols})
}

// Invalidate handles DELETE /v1/admin/schema/cache and
// DELETE /v1/admin/schema/cache/:table.
func (h *SchemaHandler) Invalidate(c echo.Context) error {
	ctx := c.Request().Context()
	table := c.Param("table")

	var err error
	if table == "" {
		err = h.Schema.InvalidateAll(ctx)
	} else {
		if !schema.ValidIdentifier(table) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table name"})
		}
		err = h.Schema.Invalidate(ctx, table)
	}
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("schema cache invalidation failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "invalidate failed"})
	}
	if h.Purge != nil {
		if err := h.Purge(ctx); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("response cache purge failed")
		}
	}
	if h.Events != nil {
		e := events.New(events.TypeSchemaInvalidated)
		e.Table = table
		h.Events.Publish(e)
	}
	return c.NoContent(http.StatusNoContent)
}
