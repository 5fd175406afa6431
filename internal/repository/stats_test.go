package repository_test

import (
	"context"
	"database/sql"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/iliyamo/sakila-admin/internal/repository"
	"github.com/iliyamo/sakila-admin/internal/schema"
)

var _ = Describe("GroupTop", func() {
	It("ranks by count with a deterministic tiebreak", func() {
		tq, err := repository.GroupTop("view_events", "video_id", map[string]string{"source": "web", "country": "NL"}, 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(tq.SQL).To(Equal("SELECT `video_id`, `video_id`, COUNT(*) AS n FROM `view_events` WHERE `country` = ? AND `source` = ?" +
			" GROUP BY `video_id` ORDER BY n DESC, `video_id` ASC LIMIT ?"))
		Expect(tq.Args).To(Equal([]any{"NL", "web"}))
		Expect(tq.Limit).To(Equal(5))
	})

	It("refuses identifiers that are not plain names", func() {
		_, err := repository.GroupTop("view_events", "video_id; --", nil, 5)
		Expect(err).To(MatchError(schema.ErrInvalidIdentifier))
	})
})

var _ = Describe("StatsRepo", func() {
	var (
		ctx   context.Context
		db    *sql.DB
		mock  sqlmock.Sqlmock
		stats *repository.StatsRepo
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, mock, err = sqlmock.New()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = db.Close() })
		stats = repository.NewStatsRepo(db, time.Second)
	})

	AfterEach(func() {
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})

	It("counts rows matching the filter", func() {
		mock.ExpectQuery(exact("SELECT COUNT(*) FROM `subscriptions` WHERE `status` = ?")).
			WithArgs("active").
			WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(int64(12)))

		n, err := stats.Count(ctx, "subscriptions", map[string]string{"status": "active"})
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(int64(12)))
	})

	It("sums to zero on an empty table", func() {
		mock.ExpectQuery(exact("SELECT SUM(`amount`) FROM `payment`")).
			WillReturnRows(sqlmock.NewRows([]string{"s"}).AddRow(nil))

		v, err := stats.Sum(ctx, "payment", "amount", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(BeZero())
	})

	It("averages a column", func() {
		mock.ExpectQuery(exact("SELECT AVG(`watched_seconds`) FROM `view_events`")).
			WillReturnRows(sqlmock.NewRows([]string{"a"}).AddRow(42.5))

		v, err := stats.Avg(ctx, "view_events", "watched_seconds", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(42.5))
	})

	It("wraps a missing table as ErrTableNotFound", func() {
		mock.ExpectQuery(exact("SELECT COUNT(*) FROM `comments`")).
			WillReturnError(&mysql.MySQLError{Number: 1146, Message: "Table 'sakila.comments' doesn't exist"})

		_, err := stats.Count(ctx, "comments", nil)
		Expect(err).To(MatchError(repository.ErrTableNotFound))
		Expect(repository.IsTableNotFound(err)).To(BeTrue())
	})

	It("returns ranked entries and falls back to the key for a missing label", func() {
		tq, err := repository.GroupTop("rental", "customer_id", nil, 3)
		Expect(err).NotTo(HaveOccurred())
		mock.ExpectQuery(exact(tq.SQL)).WithArgs(3).
			WillReturnRows(sqlmock.NewRows([]string{"k", "l", "n"}).
				AddRow(int64(148), "ELEANOR HUNT", int64(46)).
				AddRow(int64(526), nil, int64(45)))

		top, err := stats.TopN(ctx, tq)
		Expect(err).NotTo(HaveOccurred())
		Expect(top).To(Equal([]repository.TopEntry{
			{Key: "148", Label: "ELEANOR HUNT", Value: 46},
			{Key: "526", Label: "526", Value: 45},
		}))
	})
})
