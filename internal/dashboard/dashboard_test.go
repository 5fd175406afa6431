package dashboard_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/iliyamo/sakila-admin/internal/dashboard"
	"github.com/iliyamo/sakila-admin/internal/repository"
)

// fakeStats answers from fixed maps; tables listed in missing behave as
// dropped and tables in failing return a driver error.
type fakeStats struct {
	mu      sync.Mutex
	counts  map[string]int64
	sums    map[string]float64
	tops    map[string][]repository.TopEntry
	missing map[string]bool
	failing map[string]bool
	calls   int
}

func (f *fakeStats) check(table string) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.missing[table] {
		return fmt.Errorf("count %s: %w", table, repository.ErrTableNotFound)
	}
	if f.failing[table] {
		return errors.New("connection reset")
	}
	return nil
}

func (f *fakeStats) Count(_ context.Context, table string, _ map[string]string) (int64, error) {
	if err := f.check(table); err != nil {
		return 0, err
	}
	return f.counts[table], nil
}

func (f *fakeStats) Sum(_ context.Context, table, column string, _ map[string]string) (float64, error) {
	if err := f.check(table); err != nil {
		return 0, err
	}
	return f.sums[table+"."+column], nil
}

func (f *fakeStats) TopN(_ context.Context, tq repository.TopQuery) ([]repository.TopEntry, error) {
	if err := f.check(tq.Table); err != nil {
		return nil, err
	}
	return f.tops[tq.Name], nil
}

func byKey(cards []dashboard.Card) map[string]dashboard.Card {
	out := make(map[string]dashboard.Card, len(cards))
	for _, c := range cards {
		out[c.Key] = c
	}
	return out
}

var _ = Describe("Dashboard", func() {
	var stats *fakeStats

	BeforeEach(func() {
		stats = &fakeStats{
			counts: map[string]int64{"film": 1000, "actor": 200, "customer": 599, "rental": 16044},
			sums:   map[string]float64{"payment.amount": 67416.51},
			tops: map[string][]repository.TopEntry{
				"top_films": {{Key: "103", Label: "BUCKET BROTHERHOOD", Value: 34}},
			},
			missing: map[string]bool{"videos": true, "users": true, "subscriptions": true, "comments": true, "view_events": true},
			failing: map[string]bool{},
		}
	})

	It("computes every default card in declaration order", func() {
		res := dashboard.New(stats).Build(context.Background())
		Expect(res.Cards).To(HaveLen(len(dashboard.DefaultCards())))
		for i, spec := range dashboard.DefaultCards() {
			Expect(res.Cards[i].Key).To(Equal(spec.Key))
		}
		Expect(stats.calls).To(Equal(len(dashboard.DefaultCards())))
		Expect(res.GeneratedAt).NotTo(BeZero())
	})

	It("fills values and entries for the store cards", func() {
		cards := byKey(dashboard.New(stats).Build(context.Background()).Cards)

		Expect(cards["films"].State).To(Equal(dashboard.StateOK))
		Expect(*cards["films"].Value).To(Equal(1000.0))
		Expect(*cards["revenue"].Value).To(BeNumerically("~", 67416.51, 0.001))
		Expect(cards["top_films"].Entries).To(HaveLen(1))
		Expect(cards["top_films"].Value).To(BeNil())
	})

	It("degrades only the cards whose tables are missing", func() {
		cards := byKey(dashboard.New(stats).Build(context.Background()).Cards)

		for _, key := range []string{"videos", "users", "subscriptions", "comments", "view_events"} {
			Expect(cards[key].State).To(Equal(dashboard.StateTableNotFound), key)
			Expect(cards[key].Value).To(BeNil())
			Expect(cards[key].Error).To(BeEmpty())
			Expect(cards[key].Group).To(Equal("streaming"))
		}
		Expect(cards["actors"].State).To(Equal(dashboard.StateOK))
	})

	It("marks failed queries as errors without dropping the rest", func() {
		stats.failing["payment"] = true
		cards := byKey(dashboard.New(stats).Build(context.Background()).Cards)

		Expect(cards["revenue"].State).To(Equal(dashboard.StateError))
		Expect(cards["revenue"].Error).To(ContainSubstring("connection reset"))
		Expect(cards["top_customers"].State).To(Equal(dashboard.StateError))
		Expect(cards["rentals"].State).To(Equal(dashboard.StateOK))
	})

	It("builds custom card sets", func() {
		d := dashboard.NewWithCards(stats, []dashboard.CardSpec{
			{Key: "c", Title: "Customers", Kind: dashboard.KindCount, Table: "customer"},
		})
		res := d.Build(context.Background())
		Expect(res.Cards).To(HaveLen(1))
		Expect(*res.Cards[0].Value).To(Equal(599.0))
	})
})
