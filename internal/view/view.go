// Package view declares the admin list views: which table each one reads,
// the columns it shows, how it may be sorted, filtered and searched, and
// which foreign keys and related counts it resolves.  Every identifier that
// reaches SQL comes from this catalog, never from a request.
package view

import (
	"fmt"
	"sort"

	"github.com/iliyamo/sakila-admin/internal/schema"
)

// Match selects how a filter compares values.
type Match string

const (
	MatchExact     Match = "exact"
	MatchSubstring Match = "substring"
)

// Placeholders rendered when an embedded relation is missing.
const (
	Unknown = "Unknown"
	NA      = "N/A"
)

// ActionDisabled marks a row action that is shown but not wired.
const ActionDisabled = "disabled"

// Embed resolves a foreign key on the base table into a nested object via
// a LEFT JOIN.  Label is built from LabelColumns joined by a space.
type Embed struct {
	Name         string   `json:"name"`
	Table        string   `json:"table"`
	LocalKey     string   `json:"local_key"`
	ForeignKey   string   `json:"foreign_key"`
	LabelColumns []string `json:"label_columns"`
	Placeholder  string   `json:"placeholder"`
}

// Related is a count of rows in another table keyed by the base table's
// primary key.  Filter is a fixed SQL condition declared here, never built
// from input.  When Flag is set the field is rendered as count > 0.
type Related struct {
	Name       string `json:"name"`
	Table      string `json:"table"`
	ForeignKey string `json:"foreign_key"`
	Filter     string `json:"-"`
	Flag       bool   `json:"flag,omitempty"`
}

// Actions lists the row actions a view exposes.
type Actions struct {
	View   string `json:"view"`
	Edit   string `json:"edit"`
	Delete string `json:"delete"`
}

// View is one entry of the catalog.
type View struct {
	Name             string    `json:"name"`
	Title            string    `json:"title"`
	Table            string    `json:"table"`
	PrimaryKey       string    `json:"primary_key"`
	Columns          []string  `json:"columns"`
	DefaultOrder     string    `json:"default_order"`
	DefaultAscending bool      `json:"default_ascending"`
	Sortable         []string  `json:"sortable"`
	Filterable       []string  `json:"filterable"`
	Search           []string  `json:"search,omitempty"`
	Embeds           []Embed   `json:"embeds,omitempty"`
	Related          []Related `json:"related,omitempty"`
}

// Actions reports the row actions.  Editing and deleting are not wired.
func (v View) Actions() Actions {
	return Actions{View: "enabled", Edit: ActionDisabled, Delete: ActionDisabled}
}

// CanSort reports whether col may be used in ORDER BY.
func (v View) CanSort(col string) bool { return contains(v.Sortable, col) }

// CanFilter reports whether col may be used in a filter.
func (v View) CanFilter(col string) bool { return contains(v.Filterable, col) }

// Tables returns every table the view touches, base table first.
func (v View) Tables() []string {
	out := []string{v.Table}
	for _, e := range v.Embeds {
		out = append(out, e.Table)
	}
	for _, r := range v.Related {
		out = append(out, r.Table)
	}
	return out
}

// Validate checks that every identifier is well formed and that sort,
// filter and search columns are among the view's columns.
func (v View) Validate() error {
	idents := []string{v.Table, v.PrimaryKey, v.DefaultOrder}
	idents = append(idents, v.Columns...)
	for _, e := range v.Embeds {
		idents = append(idents, e.Table, e.LocalKey, e.ForeignKey)
		idents = append(idents, e.LabelColumns...)
	}
	for _, r := range v.Related {
		idents = append(idents, r.Name, r.Table, r.ForeignKey)
	}
	for _, id := range idents {
		if !schema.ValidIdentifier(id) {
			return fmt.Errorf("view %s: %w: %q", v.Name, schema.ErrInvalidIdentifier, id)
		}
	}
	for _, group := range [][]string{v.Sortable, v.Filterable, v.Search, {v.DefaultOrder, v.PrimaryKey}} {
		for _, c := range group {
			if !contains(v.Columns, c) {
				return fmt.Errorf("view %s: column %q is not selected", v.Name, c)
			}
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// Catalog is an immutable set of views keyed by name.
type Catalog struct {
	views map[string]View
	order []string
}

// NewCatalog validates views and indexes them by name.
func NewCatalog(views ...View) (*Catalog, error) {
	c := &Catalog{views: make(map[string]View, len(views))}
	for _, v := range views {
		if err := v.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.views[v.Name]; dup {
			return nil, fmt.Errorf("view %s declared twice", v.Name)
		}
		c.views[v.Name] = v
		c.order = append(c.order, v.Name)
	}
	return c, nil
}

// Lookup returns the view called name.
func (c *Catalog) Lookup(name string) (View, bool) {
	v, ok := c.views[name]
	return v, ok
}

// All returns the views in declaration order.
func (c *Catalog) All() []View {
	out := make([]View, 0, len(c.order))
	for _, n := range c.order {
		out = append(out, c.views[n])
	}
	return out
}

// Names returns the sorted view names.
func (c *Catalog) Names() []string {
	out := append([]string(nil), c.order...)
	sort.Strings(out)
	return out
}
