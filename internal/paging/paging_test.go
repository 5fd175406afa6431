package paging_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/iliyamo/sakila-admin/internal/paging"
)

var _ = Describe("HasMore", func() {
	DescribeTable("compares page*size with the total",
		func(page, size int, total int64, want bool) {
			Expect(paging.HasMore(page, size, total)).To(Equal(want))
		},
		Entry("first of two pages", 1, 25, int64(30), true),
		Entry("last partial page", 2, 25, int64(30), false),
		Entry("exact fit", 2, 15, int64(30), false),
		Entry("one row past the fit", 2, 15, int64(31), true),
		Entry("empty table", 1, 25, int64(0), false),
		Entry("invalid page", 0, 25, int64(100), false),
		Entry("invalid size", 1, 0, int64(100), false),
	)
})

var _ = Describe("TotalPages", func() {
	It("rounds up and never drops below one", func() {
		Expect(paging.TotalPages(25, 30)).To(Equal(2))
		Expect(paging.TotalPages(25, 25)).To(Equal(1))
		Expect(paging.TotalPages(25, 0)).To(Equal(1))
		Expect(paging.TotalPages(0, 10)).To(Equal(1))
	})
})

var _ = Describe("Offset", func() {
	It("is zero-based from a one-based page", func() {
		Expect(paging.Offset(1, 25)).To(Equal(0))
		Expect(paging.Offset(3, 25)).To(Equal(50))
		Expect(paging.Offset(0, 25)).To(Equal(0))
	})
})

var _ = Describe("Config.Effective", func() {
	cfg := paging.Config{DefaultSize: 25, MaxSize: 100}

	It("falls back to the default", func() {
		Expect(cfg.Effective(0)).To(Equal(25))
		Expect(cfg.Effective(-3)).To(Equal(25))
	})

	It("caps at the maximum", func() {
		Expect(cfg.Effective(500)).To(Equal(100))
		Expect(cfg.Effective(40)).To(Equal(40))
	})
})
