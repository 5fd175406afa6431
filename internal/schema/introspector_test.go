package schema_test

import (
	"context"
	"database/sql"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/iliyamo/sakila-admin/internal/cache"
	"github.com/iliyamo/sakila-admin/internal/schema"
)

const existsSQL = `SELECT COUNT\(\*\) FROM information_schema.tables`

var _ = Describe("identifiers", func() {
	It("accepts plain names and rejects everything else", func() {
		Expect(schema.ValidIdentifier("film_actor")).To(BeTrue())
		Expect(schema.ValidIdentifier("_tmp1")).To(BeTrue())
		Expect(schema.ValidIdentifier("1film")).To(BeFalse())
		Expect(schema.ValidIdentifier("film; DROP TABLE x")).To(BeFalse())
		Expect(schema.ValidIdentifier("film`")).To(BeFalse())
		Expect(schema.ValidIdentifier("")).To(BeFalse())
	})

	It("quotes with backticks", func() {
		q, err := schema.QuoteIdent("rental")
		Expect(err).NotTo(HaveOccurred())
		Expect(q).To(Equal("`rental`"))

		_, err = schema.QuoteIdent("a b")
		Expect(err).To(MatchError(schema.ErrInvalidIdentifier))
	})
})

var _ = Describe("Introspector", func() {
	var (
		ctx   context.Context
		db    *sql.DB
		mock  sqlmock.Sqlmock
		store *cache.Memory
		in    *schema.Introspector
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, mock, err = sqlmock.New()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = db.Close() })
		store = cache.NewMemory()
		in = schema.New(db, store, time.Minute, time.Second)
	})

	AfterEach(func() {
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})

	It("memoizes a negative answer until invalidated", func() {
		mock.ExpectQuery(existsSQL).WithArgs("videos").
			WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))

		ok, err := in.TableExists(ctx, "videos")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())

		// second call is served from the store; no query expected
		ok, err = in.TableExists(ctx, "videos")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())

		Expect(in.Invalidate(ctx, "videos")).To(Succeed())
		mock.ExpectQuery(existsSQL).WithArgs("videos").
			WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))

		ok, err = in.TableExists(ctx, "videos")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
	})

	It("forgets every table on InvalidateAll", func() {
		mock.ExpectQuery(existsSQL).WithArgs("film").
			WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
		mock.ExpectQuery(existsSQL).WithArgs("actor").
			WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
		_, _ = in.TableExists(ctx, "film")
		_, _ = in.TableExists(ctx, "actor")
		Expect(store.Len()).To(Equal(2))

		Expect(in.InvalidateAll(ctx)).To(Succeed())
		Expect(store.Len()).To(Equal(0))
	})

	It("answers false for names that are not identifiers without querying", func() {
		ok, err := in.TableExists(ctx, "film;--")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("lists base tables", func() {
		mock.ExpectQuery(`SELECT table_name FROM information_schema.tables`).
			WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("actor").AddRow("film"))

		tables, err := in.ListTables(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(tables).To(Equal([]string{"actor", "film"}))
	})

	It("describes columns and reports unknown tables", func() {
		mock.ExpectQuery(`FROM information_schema.columns`).WithArgs("category").
			WillReturnRows(sqlmock.NewRows([]string{"column_name", "column_type", "is_nullable", "column_key"}).
				AddRow("category_id", "tinyint unsigned", "NO", "PRI").
				AddRow("name", "varchar(25)", "NO", "").
				AddRow("last_update", "timestamp", "YES", ""))

		cols, err := in.DescribeColumns(ctx, "category")
		Expect(err).NotTo(HaveOccurred())
		Expect(cols).To(HaveLen(3))
		Expect(cols[0]).To(Equal(schema.Column{Name: "category_id", DeclaredType: "tinyint unsigned", Key: "PRI"}))
		Expect(cols[2].Nullable).To(BeTrue())

		mock.ExpectQuery(`FROM information_schema.columns`).WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows([]string{"column_name", "column_type", "is_nullable", "column_key"}))
		_, err = in.DescribeColumns(ctx, "ghost")
		Expect(err).To(MatchError(schema.ErrTableNotFound))
	})
})
