// Package reporting evaluates the declared analytics schema.  Negotiate
// checks each declared metric against the live schema once; Compute then
// evaluates only the metrics that passed.  Nothing is guessed at request
// time and unavailable metrics are reported, never filled with made-up
// numbers.
package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/iliyamo/sakila-admin/internal/config"
	"github.com/iliyamo/sakila-admin/internal/schema"
)

// SchemaSource is the slice of schema.Introspector negotiation needs.
type SchemaSource interface {
	TableExists(ctx context.Context, name string) (bool, error)
	ColumnSet(ctx context.Context, table string) (map[string]bool, error)
	InvalidateAll(ctx context.Context) error
}

var _ SchemaSource = (*schema.Introspector)(nil)

// Unavailable is a declared metric that cannot be evaluated.
type Unavailable struct {
	Key    string `json:"key"`
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// Capabilities is the outcome of negotiation.
type Capabilities struct {
	Version      string              `json:"version"`
	Available    []config.MetricSpec `json:"-"`
	Keys         []string            `json:"available"`
	Unavailable  []Unavailable       `json:"unavailable"`
	NegotiatedAt time.Time           `json:"negotiated_at"`
}

// Has reports whether key was negotiated as available.
func (c Capabilities) Has(key string) bool {
	for _, m := range c.Available {
		if m.Key == key {
			return true
		}
	}
	return false
}

// Negotiate checks every metric's table and columns.  It fails only when
// the schema itself cannot be read.
func Negotiate(ctx context.Context, src SchemaSource, rs config.ReportSchema) (Capabilities, error) {
	caps := Capabilities{
		Version:      rs.Version,
		Keys:         []string{},
		Unavailable:  []Unavailable{},
		NegotiatedAt: time.Now().UTC(),
	}
	columns := map[string]map[string]bool{}
	for _, m := range rs.Metrics {
		cols, ok := columns[m.Table]
		if !ok {
			exists, err := src.TableExists(ctx, m.Table)
			if err != nil {
				return Capabilities{}, fmt.Errorf("negotiate %s: %w", m.Key, err)
			}
			if exists {
				if cols, err = src.ColumnSet(ctx, m.Table); err != nil {
					return Capabilities{}, fmt.Errorf("negotiate %s: %w", m.Key, err)
				}
			}
			columns[m.Table] = cols
		}
		if cols == nil {
			caps.Unavailable = append(caps.Unavailable, Unavailable{
				Key: m.Key, Title: m.Title, Reason: fmt.Sprintf("table %s not found", m.Table),
			})
			continue
		}
		if missing := missingColumns(m, cols); len(missing) > 0 {
			caps.Unavailable = append(caps.Unavailable, Unavailable{
				Key: m.Key, Title: m.Title, Reason: fmt.Sprintf("columns not found in %s: %v", m.Table, missing),
			})
			continue
		}
		caps.Available = append(caps.Available, m)
		caps.Keys = append(caps.Keys, m.Key)
	}
	return caps, nil
}

func missingColumns(m config.MetricSpec, cols map[string]bool) []string {
	var missing []string
	for _, c := range m.RequiredColumns() {
		if !cols[c] {
			missing = append(missing, c)
		}
	}
	sort.Strings(missing)
	return missing
}
