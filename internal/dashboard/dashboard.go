// Package dashboard builds the statistics cards shown on the admin home.
// Cards are computed in parallel and degrade one at a time: a missing
// table or a failed query marks that card, never the whole dashboard.
package dashboard

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/sakila-admin/internal/logging"
	"github.com/iliyamo/sakila-admin/internal/repository"
)

// Card states.
const (
	StateOK            = "ok"
	StateTableNotFound = "table_not_found"
	StateError         = "error"
)

// Card kinds.
const (
	KindCount = "count"
	KindSum   = "sum"
	KindTop   = "top"
)

// Stats is the aggregate surface the dashboard needs.
type Stats interface {
	Count(ctx context.Context, table string, where map[string]string) (int64, error)
	Sum(ctx context.Context, table, column string, where map[string]string) (float64, error)
	TopN(ctx context.Context, tq repository.TopQuery) ([]repository.TopEntry, error)
}

// CardSpec declares one card.
type CardSpec struct {
	Key    string
	Title  string
	Kind   string
	Table  string
	Column string
	Group  string
	Top    repository.TopQuery
}

// Card is a rendered card.
type Card struct {
	Key     string                `json:"key"`
	Title   string                `json:"title"`
	Kind    string                `json:"kind"`
	Group   string                `json:"group"`
	Table   string                `json:"table"`
	State   string                `json:"state"`
	Value   *float64              `json:"value,omitempty"`
	Entries []repository.TopEntry `json:"entries,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// Result is a built dashboard.
type Result struct {
	Cards       []Card    `json:"cards"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Dashboard computes a fixed set of cards.
type Dashboard struct {
	stats       Stats
	specs       []CardSpec
	concurrency int
}

// New returns a Dashboard over the default cards.
func New(stats Stats) *Dashboard {
	return NewWithCards(stats, DefaultCards())
}

func NewWithCards(stats Stats, specs []CardSpec) *Dashboard {
	return &Dashboard{stats: stats, specs: specs, concurrency: 4}
}

// Build computes every card.  It always returns a result; per-card
// failures are recorded on the card.
func (d *Dashboard) Build(ctx context.Context) Result {
	cards := make([]Card, len(d.specs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for i, spec := range d.specs {
		g.Go(func() error {
			cards[i] = d.card(gctx, spec)
			return nil
		})
	}
	_ = g.Wait()
	return Result{Cards: cards, GeneratedAt: time.Now().UTC()}
}

func (d *Dashboard) card(ctx context.Context, s CardSpec) Card {
	c := Card{Key: s.Key, Title: s.Title, Kind: s.Kind, Group: s.Group, Table: s.Table, State: StateOK}
	var err error
	switch s.Kind {
	case KindCount:
		var n int64
		if n, err = d.stats.Count(ctx, s.Table, nil); err == nil {
			v := float64(n)
			c.Value = &v
		}
	case KindSum:
		var v float64
		if v, err = d.stats.Sum(ctx, s.Table, s.Column, nil); err == nil {
			c.Value = &v
		}
	case KindTop:
		c.Entries, err = d.stats.TopN(ctx, s.Top)
	}
	if err != nil {
		c.Value, c.Entries = nil, nil
		if errors.Is(err, repository.ErrTableNotFound) {
			c.State = StateTableNotFound
		} else {
			c.State = StateError
			c.Error = err.Error()
			logging.Ctx(ctx).Warn().Err(err).Str("card", s.Key).Msg("dashboard card failed")
		}
	}
	return c
}
