package repository

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/iliyamo/sakila-admin/internal/model"
)

// Typed reads one view and decodes its rows into T.
type Typed[T any] struct {
	reader *TableReader
	view   string
}

// TypedPage is a PageResult with decoded items.
type TypedPage[T any] struct {
	Items      []T
	TotalCount int64
	HasMore    bool
	Err        *FetchError
}

func NewTyped[T any](r *TableReader, viewName string) *Typed[T] {
	return &Typed[T]{reader: r, view: viewName}
}

// Page fetches one page.  req.View is ignored.
func (t *Typed[T]) Page(ctx context.Context, req PageRequest) TypedPage[T] {
	req.View = t.view
	res := t.reader.FetchPage(ctx, req)
	if res.Err != nil {
		return TypedPage[T]{Items: []T{}, Err: res.Err}
	}
	items, err := Decode[T](res.Rows)
	if err != nil {
		return TypedPage[T]{Items: []T{}, Err: fetchErr(KindQuery, t.view, err)}
	}
	return TypedPage[T]{Items: items, TotalCount: res.TotalCount, HasMore: res.HasMore}
}

// Decode converts generic rows into T through their JSON form.
func Decode[T any](rows []Row) ([]T, error) {
	out := make([]T, 0, len(rows))
	for i, row := range rows {
		b, err := json.Marshal(row)
		if err != nil {
			return nil, fmt.Errorf("encode row %d: %w", i, err)
		}
		var item T
		if err := json.Unmarshal(b, &item); err != nil {
			return nil, fmt.Errorf("decode row %d: %w", i, err)
		}
		out = append(out, item)
	}
	return out, nil
}

func Films(r *TableReader) *Typed[model.Film]   { return NewTyped[model.Film](r, "films") }
func Actors(r *TableReader) *Typed[model.Actor] { return NewTyped[model.Actor](r, "actors") }
func Customers(r *TableReader) *Typed[model.Customer] {
	return NewTyped[model.Customer](r, "customers")
}
func Rentals(r *TableReader) *Typed[model.Rental]   { return NewTyped[model.Rental](r, "rentals") }
func Payments(r *TableReader) *Typed[model.Payment] { return NewTyped[model.Payment](r, "payments") }
func Inventory(r *TableReader) *Typed[model.Inventory] {
	return NewTyped[model.Inventory](r, "inventory")
}
func Stores(r *TableReader) *Typed[model.Store] { return NewTyped[model.Store](r, "stores") }
func Categories(r *TableReader) *Typed[model.Category] {
	return NewTyped[model.Category](r, "categories")
}
func Staff(r *TableReader) *Typed[model.Staff]    { return NewTyped[model.Staff](r, "staff") }
func Locations(r *TableReader) *Typed[model.City] { return NewTyped[model.City](r, "locations") }
func Videos(r *TableReader) *Typed[model.Video]   { return NewTyped[model.Video](r, "videos") }
func Users(r *TableReader) *Typed[model.User]     { return NewTyped[model.User](r, "users") }
func Subscriptions(r *TableReader) *Typed[model.Subscription] {
	return NewTyped[model.Subscription](r, "subscriptions")
}
func Comments(r *TableReader) *Typed[model.Comment] { return NewTyped[model.Comment](r, "comments") }
