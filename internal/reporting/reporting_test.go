package reporting_test

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/iliyamo/sakila-admin/internal/config"
	"github.com/iliyamo/sakila-admin/internal/reporting"
	"github.com/iliyamo/sakila-admin/internal/repository"
)

type fakeSchema struct {
	mu          sync.Mutex
	tables      map[string][]string
	err         error
	existsCalls int
	invalidated int
}

func (f *fakeSchema) TableExists(_ context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.existsCalls++
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.tables[name]
	return ok, nil
}

func (f *fakeSchema) ColumnSet(_ context.Context, table string) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	set := map[string]bool{}
	for _, c := range f.tables[table] {
		set[c] = true
	}
	return set, nil
}

func (f *fakeSchema) InvalidateAll(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated++
	return nil
}

type fakeEval struct {
	mu    sync.Mutex
	err   map[string]error
	calls []string
}

func (f *fakeEval) record(table string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, table)
	return f.err[table]
}

func (f *fakeEval) Count(_ context.Context, table string, where map[string]string) (int64, error) {
	if err := f.record(table); err != nil {
		return 0, err
	}
	if where["status"] == "active" {
		return 7, nil
	}
	return 42, nil
}

func (f *fakeEval) Sum(_ context.Context, table, _ string, _ map[string]string) (float64, error) {
	return 100.5, f.record(table)
}

func (f *fakeEval) Avg(_ context.Context, table, _ string, _ map[string]string) (float64, error) {
	return 2.5, f.record(table)
}

func (f *fakeEval) TopN(_ context.Context, tq repository.TopQuery) ([]repository.TopEntry, error) {
	if err := f.record(tq.Table); err != nil {
		return nil, err
	}
	return []repository.TopEntry{{Key: "1", Label: "1", Value: 9}}, nil
}

var sakilaOnly = map[string][]string{
	"payment": {"payment_id", "amount", "customer_id"},
	"rental":  {"rental_id", "customer_id", "inventory_id"},
}

func schemaFixture() config.ReportSchema {
	return config.ReportSchema{
		Version: "2",
		Metrics: []config.MetricSpec{
			{Key: "revenue", Title: "Revenue", Kind: config.MetricSum, Table: "payment", Column: "amount"},
			{Key: "avg_payment", Title: "Average payment", Kind: config.MetricAvg, Table: "payment", Column: "amount"},
			{Key: "rentals_by_customer", Title: "Rentals", Kind: config.MetricTop, Table: "rental", GroupBy: "customer_id", Limit: 3},
			{Key: "views", Title: "Views", Kind: config.MetricCount, Table: "view_events"},
			{Key: "late", Title: "Late fees", Kind: config.MetricSum, Table: "payment", Column: "late_fee"},
			{Key: "active", Title: "Active subs", Kind: config.MetricCount, Table: "subscriptions", Where: map[string]string{"status": "active"}},
		},
	}
}

var _ = Describe("Negotiate", func() {
	It("splits metrics by what the live schema can answer", func() {
		src := &fakeSchema{tables: sakilaOnly}
		caps, err := reporting.Negotiate(context.Background(), src, schemaFixture())
		Expect(err).NotTo(HaveOccurred())

		Expect(caps.Version).To(Equal("2"))
		Expect(caps.Keys).To(Equal([]string{"revenue", "avg_payment", "rentals_by_customer"}))
		Expect(caps.Has("revenue")).To(BeTrue())
		Expect(caps.Has("views")).To(BeFalse())

		reasons := map[string]string{}
		for _, u := range caps.Unavailable {
			reasons[u.Key] = u.Reason
		}
		Expect(reasons).To(HaveLen(3))
		Expect(reasons["views"]).To(Equal("table view_events not found"))
		Expect(reasons["late"]).To(ContainSubstring("late_fee"))
		Expect(reasons["active"]).To(Equal("table subscriptions not found"))
	})

	It("checks each table once", func() {
		src := &fakeSchema{tables: sakilaOnly}
		_, err := reporting.Negotiate(context.Background(), src, schemaFixture())
		Expect(err).NotTo(HaveOccurred())
		Expect(src.existsCalls).To(Equal(4))
	})

	It("fails when the schema cannot be read", func() {
		src := &fakeSchema{err: errors.New("dial tcp: refused")}
		_, err := reporting.Negotiate(context.Background(), src, schemaFixture())
		Expect(err).To(MatchError(ContainSubstring("refused")))
	})
})

var _ = Describe("Analytics", func() {
	var (
		src  *fakeSchema
		eval *fakeEval
		a    *reporting.Analytics
	)

	BeforeEach(func() {
		src = &fakeSchema{tables: sakilaOnly}
		eval = &fakeEval{err: map[string]error{}}
		a = reporting.NewAnalytics(eval, src, schemaFixture())
	})

	It("refuses to compute before negotiation", func() {
		_, ok := a.Capabilities()
		Expect(ok).To(BeFalse())
		_, err := a.Compute(context.Background())
		Expect(err).To(MatchError(reporting.ErrNotNegotiated))
		Expect(eval.calls).To(BeEmpty())
	})

	It("evaluates only negotiated metrics", func() {
		_, err := a.Negotiate(context.Background())
		Expect(err).NotTo(HaveOccurred())

		rep, err := a.Compute(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(rep.Metrics).To(HaveLen(3))
		Expect(rep.Unavailable).To(HaveLen(3))
		Expect(eval.calls).NotTo(ContainElement("view_events"))

		Expect(rep.Metrics[0].Key).To(Equal("revenue"))
		Expect(*rep.Metrics[0].Value).To(Equal(100.5))
		Expect(*rep.Metrics[1].Value).To(Equal(2.5))
		Expect(rep.Metrics[2].Value).To(BeNil())
		Expect(rep.Metrics[2].Entries).To(HaveLen(1))
	})

	It("marks a metric whose table vanished after negotiation", func() {
		_, err := a.Negotiate(context.Background())
		Expect(err).NotTo(HaveOccurred())
		eval.err["rental"] = repository.ErrTableNotFound
		eval.err["payment"] = errors.New("deadlock")

		rep, err := a.Compute(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(rep.Metrics[0].State).To(Equal("error"))
		Expect(rep.Metrics[0].Value).To(BeNil())
		Expect(rep.Metrics[2].State).To(Equal("table_not_found"))
		Expect(rep.Metrics[2].Entries).To(BeNil())
	})

	It("renegotiates against a fresh schema", func() {
		_, err := a.Negotiate(context.Background())
		Expect(err).NotTo(HaveOccurred())

		src.mu.Lock()
		src.tables = map[string][]string{
			"payment":       sakilaOnly["payment"],
			"rental":        sakilaOnly["rental"],
			"view_events":   {"view_id"},
			"subscriptions": {"status"},
		}
		src.mu.Unlock()

		caps, err := a.Renegotiate(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(src.invalidated).To(Equal(1))
		Expect(caps.Keys).To(ContainElements("views", "active"))
		Expect(caps.Unavailable).To(HaveLen(1))

		rep, err := a.Compute(context.Background())
		Expect(err).NotTo(HaveOccurred())
		for _, m := range rep.Metrics {
			if m.Key == "active" {
				Expect(*m.Value).To(Equal(7.0))
			}
		}
	})
})
