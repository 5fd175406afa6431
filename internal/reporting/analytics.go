package reporting

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/sakila-admin/internal/config"
	"github.com/iliyamo/sakila-admin/internal/logging"
	"github.com/iliyamo/sakila-admin/internal/repository"
)

// Evaluator runs aggregates.  repository.StatsRepo satisfies it.
type Evaluator interface {
	Count(ctx context.Context, table string, where map[string]string) (int64, error)
	Sum(ctx context.Context, table, column string, where map[string]string) (float64, error)
	Avg(ctx context.Context, table, column string, where map[string]string) (float64, error)
	TopN(ctx context.Context, tq repository.TopQuery) ([]repository.TopEntry, error)
}

// ErrNotNegotiated is returned by Compute before the first negotiation.
var ErrNotNegotiated = errors.New("reporting schema not negotiated")

// MetricValue is one evaluated metric.
type MetricValue struct {
	Key     string                `json:"key"`
	Title   string                `json:"title"`
	Kind    string                `json:"kind"`
	State   string                `json:"state"`
	Value   *float64              `json:"value,omitempty"`
	Entries []repository.TopEntry `json:"entries,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// Report is the result of Compute.
type Report struct {
	Version      string        `json:"version"`
	Metrics      []MetricValue `json:"metrics"`
	Unavailable  []Unavailable `json:"unavailable"`
	NegotiatedAt time.Time     `json:"negotiated_at"`
	ComputedAt   time.Time     `json:"computed_at"`
}

// Analytics holds the negotiated capabilities and evaluates them.
type Analytics struct {
	eval   Evaluator
	src    SchemaSource
	schema config.ReportSchema

	mu         sync.RWMutex
	caps       Capabilities
	negotiated bool
}

func NewAnalytics(eval Evaluator, src SchemaSource, rs config.ReportSchema) *Analytics {
	return &Analytics{eval: eval, src: src, schema: rs}
}

// Negotiate runs negotiation and stores the result.
func (a *Analytics) Negotiate(ctx context.Context) (Capabilities, error) {
	caps, err := Negotiate(ctx, a.src, a.schema)
	if err != nil {
		return Capabilities{}, err
	}
	a.mu.Lock()
	a.caps, a.negotiated = caps, true
	a.mu.Unlock()
	logging.Info().Str("version", caps.Version).Int("available", len(caps.Available)).
		Int("unavailable", len(caps.Unavailable)).Msg("reporting schema negotiated")
	return caps, nil
}

// Renegotiate drops cached schema answers and negotiates again.
func (a *Analytics) Renegotiate(ctx context.Context) (Capabilities, error) {
	if err := a.src.InvalidateAll(ctx); err != nil {
		return Capabilities{}, err
	}
	return a.Negotiate(ctx)
}

// Capabilities returns the stored negotiation result.
func (a *Analytics) Capabilities() (Capabilities, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.caps, a.negotiated
}

// Compute evaluates every available metric in parallel.
func (a *Analytics) Compute(ctx context.Context) (Report, error) {
	caps, ok := a.Capabilities()
	if !ok {
		return Report{}, ErrNotNegotiated
	}
	values := make([]MetricValue, len(caps.Available))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, m := range caps.Available {
		g.Go(func() error {
			values[i] = a.evaluate(gctx, m)
			return nil
		})
	}
	_ = g.Wait()
	return Report{
		Version:      caps.Version,
		Metrics:      values,
		Unavailable:  caps.Unavailable,
		NegotiatedAt: caps.NegotiatedAt,
		ComputedAt:   time.Now().UTC(),
	}, nil
}

func (a *Analytics) evaluate(ctx context.Context, m config.MetricSpec) MetricValue {
	mv := MetricValue{Key: m.Key, Title: m.Title, Kind: m.Kind, State: "ok"}
	var (
		v   float64
		err error
	)
	switch m.Kind {
	case config.MetricCount:
		var n int64
		n, err = a.eval.Count(ctx, m.Table, m.Where)
		v = float64(n)
	case config.MetricSum:
		v, err = a.eval.Sum(ctx, m.Table, m.Column, m.Where)
	case config.MetricAvg:
		v, err = a.eval.Avg(ctx, m.Table, m.Column, m.Where)
	case config.MetricTop:
		var tq repository.TopQuery
		if tq, err = repository.GroupTop(m.Table, m.GroupBy, m.Where, m.Limit); err == nil {
			mv.Entries, err = a.eval.TopN(ctx, tq)
		}
	}
	switch {
	case err == nil && m.Kind != config.MetricTop:
		mv.Value = &v
	case errors.Is(err, repository.ErrTableNotFound):
		mv.State = "table_not_found"
		mv.Entries = nil
	case err != nil:
		mv.State = "error"
		mv.Error = err.Error()
		mv.Entries = nil
		logging.Ctx(ctx).Warn().Err(err).Str("metric", m.Key).Msg("metric failed")
	}
	return mv
}
