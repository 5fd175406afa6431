package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/iliyamo/sakila-admin/internal/database"
	"github.com/iliyamo/sakila-admin/internal/logging"
	"github.com/iliyamo/sakila-admin/internal/metrics"
	"github.com/iliyamo/sakila-admin/internal/model"
	"github.com/iliyamo/sakila-admin/internal/paging"
	"github.com/iliyamo/sakila-admin/internal/view"
)

// TableChecker answers table-existence questions.  schema.Introspector
// satisfies it.
type TableChecker interface {
	TableExists(ctx context.Context, name string) (bool, error)
	Invalidate(ctx context.Context, names ...string) error
}

// Row is one result row keyed by column name.  Embeds appear as
// model.Embedded values and related counts as int64 or bool.
type Row map[string]any

// PageResult is the outcome of FetchPage.  When Err is set Rows is empty
// and TotalCount is zero.
type PageResult struct {
	Rows       []Row       `json:"rows"`
	TotalCount int64       `json:"total"`
	HasMore    bool        `json:"has_more"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	Err        *FetchError `json:"-"`
}

// ReaderOptions configures a TableReader.
type ReaderOptions struct {
	QueryTimeout time.Duration
	Paging       paging.Config
	Breaker      BreakerSettings
}

// TableReader fetches pages of catalog views.
type TableReader struct {
	db      *sql.DB
	tables  TableChecker
	catalog *view.Catalog
	cb      *gobreaker.CircuitBreaker[any]
	timeout time.Duration
	paging  paging.Config
}

func NewTableReader(db *sql.DB, tables TableChecker, catalog *view.Catalog, opts ReaderOptions) *TableReader {
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = 5 * time.Second
	}
	if opts.Breaker.Name == "" {
		opts.Breaker = DefaultBreakerSettings()
	}
	return &TableReader{
		db:      db,
		tables:  tables,
		catalog: catalog,
		cb:      newBreaker(opts.Breaker),
		timeout: opts.QueryTimeout,
		paging:  opts.Paging,
	}
}

// Catalog returns the views this reader serves.
func (r *TableReader) Catalog() *view.Catalog { return r.catalog }

// FetchPage returns one page of req.View plus the total count of matching
// rows.  The base table is checked for existence before any row query.
func (r *TableReader) FetchPage(ctx context.Context, req PageRequest) PageResult {
	v, ok := r.catalog.Lookup(req.View)
	if !ok {
		return failed(fetchErr(KindInvalid, "", fmt.Errorf("%w: %q", ErrUnknownView, req.View)))
	}
	if req.Page < 1 || req.PageSize <= 0 {
		return failed(fetchErr(KindInvalid, v.Table, fmt.Errorf("%w: page=%d page_size=%d", ErrInvalidPage, req.Page, req.PageSize)))
	}
	if r.paging.MaxSize > 0 && req.PageSize > r.paging.MaxSize {
		req.PageSize = r.paging.MaxSize
	}

	pq, err := buildPageQuery(v, req, nil)
	if err != nil {
		return failed(fetchErr(KindInvalid, v.Table, err))
	}

	exists, err := r.tables.TableExists(ctx, v.Table)
	if err != nil {
		return failed(r.classify(ctx, "exists", v.Table, err))
	}
	if !exists {
		return failed(fetchErr(KindTableNotFound, v.Table, ErrTableNotFound))
	}
	omit, fe := r.missingEmbeds(ctx, v)
	if fe != nil {
		return failed(fe)
	}
	if len(omit) > 0 {
		// already validated above
		pq, _ = buildPageQuery(v, req, omit)
	}

	total, err := guarded(r.cb, func() (int64, error) {
		return r.count(ctx, v.Table, pq.countSQL, pq.countArgs)
	})
	if err != nil {
		return failed(r.classify(ctx, "count", v.Table, err))
	}

	rows := []Row{}
	if total > int64(paging.Offset(req.Page, req.PageSize)) {
		rows, err = guarded(r.cb, func() ([]Row, error) {
			return r.selectRows(ctx, v, pq.dataSQL, pq.dataArgs)
		})
		if err != nil {
			return failed(r.selectFailed(ctx, v, err))
		}
		if err := r.attachRelated(ctx, v, rows); err != nil {
			return failed(r.classify(ctx, "related", v.Table, err))
		}
	}

	return PageResult{
		Rows:       rows,
		TotalCount: total,
		HasMore:    paging.HasMore(req.Page, req.PageSize, total),
		Page:       req.Page,
		PageSize:   req.PageSize,
	}
}

// missingEmbeds returns the indexes of embeds whose table does not exist.
func (r *TableReader) missingEmbeds(ctx context.Context, v view.View) (map[int]bool, *FetchError) {
	var omit map[int]bool
	for i, e := range v.Embeds {
		ok, err := r.tables.TableExists(ctx, e.Table)
		if err != nil {
			return nil, r.classify(ctx, "exists", e.Table, err)
		}
		if ok {
			continue
		}
		if omit == nil {
			omit = map[int]bool{}
		}
		omit[i] = true
		logging.Ctx(ctx).Debug().Str("view", v.Name).Str("embed", e.Table).Msg("embed table missing")
	}
	return omit, nil
}

// selectFailed classifies a row-query error.  The select joins embed
// tables, so a missing-table error only means the base table is gone when
// a fresh existence check agrees.
func (r *TableReader) selectFailed(ctx context.Context, v view.View, err error) *FetchError {
	if !database.IsNoSuchTable(err) || len(v.Embeds) == 0 {
		return r.classify(ctx, "select", v.Table, err)
	}
	names := make([]string, 0, len(v.Embeds)+1)
	names = append(names, v.Table)
	for _, e := range v.Embeds {
		names = append(names, e.Table)
	}
	if ierr := r.tables.Invalidate(ctx, names...); ierr != nil {
		logging.Ctx(ctx).Warn().Err(ierr).Str("table", v.Table).Msg("existence cache invalidate failed")
	}
	exists, xerr := r.tables.TableExists(ctx, v.Table)
	if xerr != nil || exists {
		fe := fetchErr(KindQuery, v.Table, err)
		metrics.QueryErrors.WithLabelValues("select", v.Table, string(fe.Kind)).Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("table", v.Table).Msg("joined table vanished")
		return fe
	}
	return r.classify(ctx, "select", v.Table, err)
}

func failed(fe *FetchError) PageResult {
	return PageResult{Rows: []Row{}, Err: fe}
}

// classify turns a driver or breaker error into a FetchError.  A table
// that vanished after its existence was cached is invalidated so the next
// request sees it missing straight away.
func (r *TableReader) classify(ctx context.Context, op, table string, err error) *FetchError {
	var fe *FetchError
	switch {
	case isRejected(err):
		fe = fetchErr(KindUnavailable, table, err)
	case database.IsNoSuchTable(err):
		if ierr := r.tables.Invalidate(ctx, table); ierr != nil {
			logging.Ctx(ctx).Warn().Err(ierr).Str("table", table).Msg("existence cache invalidate failed")
		}
		fe = fetchErr(KindTableNotFound, table, fmt.Errorf("%w: %v", ErrTableNotFound, err))
	case database.IsNoSuchColumn(err):
		fe = fetchErr(KindQuery, table, fmt.Errorf("%w: %v", ErrUnknownColumn, err))
	default:
		fe = fetchErr(KindQuery, table, err)
	}
	metrics.QueryErrors.WithLabelValues(op, table, string(fe.Kind)).Inc()
	logging.Ctx(ctx).Warn().Err(err).Str("op", op).Str("table", table).Str("kind", string(fe.Kind)).Msg("fetch failed")
	return fe
}

func (r *TableReader) observe(op, table string, start time.Time) {
	metrics.QueryDuration.WithLabelValues(op, table).Observe(time.Since(start).Seconds())
}

func (r *TableReader) count(ctx context.Context, table, query string, args []any) (int64, error) {
	defer r.observe("count", table, time.Now())
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var n int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *TableReader) selectRows(ctx context.Context, v view.View, query string, args []any) ([]Row, error) {
	defer r.observe("select", v.Table, time.Now())
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rs, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	raw, err := scanAll(rs)
	if err != nil {
		return nil, err
	}
	out := make([]Row, 0, len(raw))
	for _, rec := range raw {
		out = append(out, shapeRow(v, rec))
	}
	return out, nil
}

// scanAll reads every row into a column-name map, normalizing driver
// values by declared column type.
func scanAll(rs *sql.Rows) ([]map[string]any, error) {
	cols, err := rs.Columns()
	if err != nil {
		return nil, err
	}
	types := make([]string, len(cols))
	if cts, err := rs.ColumnTypes(); err == nil {
		for i, ct := range cts {
			types[i] = ct.DatabaseTypeName()
		}
	}

	var out []map[string]any
	for rs.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rs.Scan(ptrs...); err != nil {
			return nil, err
		}
		rec := make(map[string]any, len(cols))
		for i, c := range cols {
			rec[c] = normalize(vals[i], types[i])
		}
		out = append(out, rec)
	}
	return out, rs.Err()
}

func normalize(v any, dbType string) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	s := string(b)
	switch strings.ToUpper(dbType) {
	case "DECIMAL", "FLOAT", "DOUBLE":
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "BIGINT", "YEAR",
		"UNSIGNED TINYINT", "UNSIGNED SMALLINT", "UNSIGNED MEDIUMINT", "UNSIGNED INT", "UNSIGNED BIGINT":
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	}
	return s
}

// shapeRow folds the embed columns of rec into nested objects.
func shapeRow(v view.View, rec map[string]any) Row {
	row := make(Row, len(v.Columns)+len(v.Embeds))
	for _, c := range v.Columns {
		row[c] = rec[c]
	}
	for i, e := range v.Embeds {
		row[e.Name] = embedded(e, i, rec)
	}
	return row
}

func embedded(e view.Embed, i int, rec map[string]any) model.Embedded {
	id, ok := toInt64(rec[embedColumn(i, "id")])
	if !ok {
		return model.Embedded{Label: e.Placeholder}
	}
	fields := make(map[string]any, len(e.LabelColumns))
	parts := make([]string, 0, len(e.LabelColumns))
	for _, lc := range e.LabelColumns {
		val := rec[embedColumn(i, lc)]
		fields[lc] = val
		if val != nil {
			if s := strings.TrimSpace(fmt.Sprint(val)); s != "" {
				parts = append(parts, s)
			}
		}
	}
	label := strings.Join(parts, " ")
	if label == "" {
		label = e.Placeholder
	}
	return model.Embedded{ID: &id, Label: label, Fields: fields}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	}
	return 0, false
}

// attachRelated resolves every declared related count with one grouped
// query per relation.  Relations whose table is missing are left off.
func (r *TableReader) attachRelated(ctx context.Context, v view.View, rows []Row) error {
	if len(v.Related) == 0 || len(rows) == 0 {
		return nil
	}
	keys := make([]any, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, row[v.PrimaryKey])
	}
	for _, rel := range v.Related {
		counts, err := guarded(r.cb, func() (map[string]int64, error) {
			return r.groupedCount(ctx, rel, keys)
		})
		if err != nil {
			if database.IsNoSuchTable(err) {
				logging.Ctx(ctx).Debug().Str("view", v.Name).Str("related", rel.Table).Msg("related table missing")
				continue
			}
			return err
		}
		for _, row := range rows {
			n := counts[keyString(row[v.PrimaryKey])]
			if rel.Flag {
				row[rel.Name] = n > 0
			} else {
				row[rel.Name] = n
			}
		}
	}
	return nil
}

func (r *TableReader) groupedCount(ctx context.Context, rel view.Related, keys []any) (map[string]int64, error) {
	defer r.observe("related", rel.Table, time.Now())
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rs, err := r.db.QueryContext(ctx, relatedQuery(rel, len(keys)), keys...)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	out := make(map[string]int64, len(keys))
	for rs.Next() {
		var (
			k any
			n int64
		)
		if err := rs.Scan(&k, &n); err != nil {
			return nil, err
		}
		out[keyString(normalize(k, "BIGINT"))] = n
	}
	return out, rs.Err()
}

func keyString(v any) string {
	if n, ok := toInt64(v); ok {
		return strconv.FormatInt(n, 10)
	}
	return fmt.Sprint(v)
}

// IsTableNotFound reports whether err is or wraps ErrTableNotFound.
func IsTableNotFound(err error) bool { return errors.Is(err, ErrTableNotFound) }
