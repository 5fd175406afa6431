package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/iliyamo/sakila-admin/internal/config"
)

func setenv(k, v string) {
	old, had := os.LookupEnv(k)
	Expect(os.Setenv(k, v)).To(Succeed())
	DeferCleanup(func() {
		if had {
			_ = os.Setenv(k, old)
		} else {
			_ = os.Unsetenv(k)
		}
	})
}

var _ = Describe("LoadReportSchema", func() {
	It("falls back to the built-in schema", func() {
		rs, err := config.LoadReportSchema("")
		Expect(err).NotTo(HaveOccurred())
		Expect(rs.Version).To(Equal("1"))
		Expect(rs.Metrics).NotTo(BeEmpty())

		var keys []string
		for _, m := range rs.Metrics {
			keys = append(keys, m.Key)
		}
		Expect(keys).To(ContainElements("rental_revenue", "total_views", "active_subscriptions"))
	})

	It("replaces the metric list from a YAML file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "reports.yaml")
		Expect(os.WriteFile(path, []byte(`version: "7"
metrics:
  - key: late_returns
    title: Late returns
    kind: count
    table: rental
    where:
      return_date: "2005-05-26"
`), 0o644)).To(Succeed())

		rs, err := config.LoadReportSchema(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(rs.Version).To(Equal("7"))
		Expect(rs.Metrics).To(HaveLen(1))
		Expect(rs.Metrics[0].Where).To(HaveKeyWithValue("return_date", "2005-05-26"))
		Expect(rs.Metrics[0].RequiredColumns()).To(Equal([]string{"return_date"}))
	})

	It("lets the environment pin the version", func() {
		setenv("REPORTS_VERSION", "9")
		rs, err := config.LoadReportSchema("")
		Expect(err).NotTo(HaveOccurred())
		Expect(rs.Version).To(Equal("9"))
	})

	It("fails on a missing file", func() {
		_, err := config.LoadReportSchema(filepath.Join(GinkgoT().TempDir(), "nope.yaml"))
		Expect(err).To(HaveOccurred())
	})
})

var _ = DescribeTable("ReportSchema.Validate",
	func(m config.MetricSpec, ok bool) {
		err := config.ReportSchema{Metrics: []config.MetricSpec{m}}.Validate()
		if ok {
			Expect(err).NotTo(HaveOccurred())
		} else {
			Expect(err).To(HaveOccurred())
		}
	},
	Entry("count", config.MetricSpec{Key: "a", Kind: config.MetricCount, Table: "film"}, true),
	Entry("sum without column", config.MetricSpec{Key: "a", Kind: config.MetricSum, Table: "payment"}, false),
	Entry("avg with column", config.MetricSpec{Key: "a", Kind: config.MetricAvg, Table: "payment", Column: "amount"}, true),
	Entry("top without group", config.MetricSpec{Key: "a", Kind: config.MetricTop, Table: "rental"}, false),
	Entry("unknown kind", config.MetricSpec{Key: "a", Kind: "median", Table: "film"}, false),
	Entry("no table", config.MetricSpec{Key: "a", Kind: config.MetricCount}, false),
)

var _ = Describe("ReportSchema.Validate duplicates", func() {
	It("rejects a key declared twice", func() {
		m := config.MetricSpec{Key: "a", Kind: config.MetricCount, Table: "film"}
		Expect(config.ReportSchema{Metrics: []config.MetricSpec{m, m}}.Validate()).To(MatchError(ContainSubstring("twice")))
	})
})

var _ = Describe("env loaders", func() {
	It("reads cache settings with defaults", func() {
		setenv("CACHE_METHODS", "get, head")
		setenv("CACHE_TTL", "45s")
		setenv("CACHE_ENABLED", "off")

		c := config.LoadCacheConfig()
		Expect(c.Enabled).To(BeFalse())
		Expect(c.TTL).To(Equal(45 * time.Second))
		Expect(c.Methods).To(Equal(map[string]bool{"GET": true, "HEAD": true}))
		Expect(c.Prefix).To(Equal("sakila:resp"))
	})

	It("reads the allowed websocket origins", func() {
		setenv("WS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
		setenv("EVENTS_QUEUE", "q")

		e := config.LoadEventsConfig()
		Expect(e.AllowedOrigins).To(Equal([]string{"https://a.example", "https://b.example"}))
		Expect(e.QueueName).To(Equal("q"))
		Expect(e.Enabled).To(BeFalse())
	})
})
