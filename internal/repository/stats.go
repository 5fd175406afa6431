package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/iliyamo/sakila-admin/internal/database"
	"github.com/iliyamo/sakila-admin/internal/metrics"
	"github.com/iliyamo/sakila-admin/internal/schema"
)

// TopQuery is a ranked aggregate.  SQL must select key, label and value
// columns, in that order, and end with a LIMIT placeholder.
type TopQuery struct {
	Name  string
	Table string
	SQL   string
	Args  []any
	Limit int
}

// TopEntry is one ranked row.
type TopEntry struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// GroupTop ranks the values of groupBy in table by row count.
func GroupTop(table, groupBy string, where map[string]string, limit int) (TopQuery, error) {
	for _, id := range []string{table, groupBy} {
		if !schema.ValidIdentifier(id) {
			return TopQuery{}, fmt.Errorf("%w: %q", schema.ErrInvalidIdentifier, id)
		}
	}
	cond, args, err := equalities(where)
	if err != nil {
		return TopQuery{}, err
	}
	sql := "SELECT " + q(groupBy) + ", " + q(groupBy) + ", COUNT(*) AS n FROM " + q(table) + cond +
		" GROUP BY " + q(groupBy) + " ORDER BY n DESC, " + q(groupBy) + " ASC LIMIT ?"
	return TopQuery{Name: table + "_by_" + groupBy, Table: table, SQL: sql, Args: args, Limit: limit}, nil
}

// equalities renders a deterministic WHERE clause of exact matches.
func equalities(where map[string]string) (string, []any, error) {
	if len(where) == 0 {
		return "", nil, nil
	}
	cols := make([]string, 0, len(where))
	for c := range where {
		if !schema.ValidIdentifier(c) {
			return "", nil, fmt.Errorf("%w: %q", schema.ErrInvalidIdentifier, c)
		}
		cols = append(cols, c)
	}
	sort.Strings(cols)
	conds := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for _, c := range cols {
		conds = append(conds, q(c)+" = ?")
		args = append(args, where[c])
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// StatsRepo runs the aggregate queries behind dashboards and analytics.
type StatsRepo struct {
	db      *sql.DB
	cb      *gobreaker.CircuitBreaker[any]
	timeout time.Duration
}

func NewStatsRepo(db *sql.DB, timeout time.Duration) *StatsRepo {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	s := DefaultBreakerSettings()
	s.Name = "mysql-stats"
	return &StatsRepo{db: db, cb: newBreaker(s), timeout: timeout}
}

func (s *StatsRepo) wrap(op, table string, err error) error {
	if err == nil {
		return nil
	}
	kind := string(KindQuery)
	switch {
	case isRejected(err):
		kind = string(KindUnavailable)
	case database.IsNoSuchTable(err):
		metrics.QueryErrors.WithLabelValues(op, table, string(KindTableNotFound)).Inc()
		return fmt.Errorf("%s %s: %w", op, table, ErrTableNotFound)
	case database.IsNoSuchColumn(err):
		metrics.QueryErrors.WithLabelValues(op, table, kind).Inc()
		return fmt.Errorf("%s %s: %w: %v", op, table, ErrUnknownColumn, err)
	}
	metrics.QueryErrors.WithLabelValues(op, table, kind).Inc()
	return fmt.Errorf("%s %s: %w", op, table, err)
}

func (s *StatsRepo) scalar(ctx context.Context, op, table, query string, args ...any) (sql.NullFloat64, error) {
	out, err := guarded(s.cb, func() (sql.NullFloat64, error) {
		defer func(start time.Time) {
			metrics.QueryDuration.WithLabelValues(op, table).Observe(time.Since(start).Seconds())
		}(time.Now())
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		var v sql.NullFloat64
		err := s.db.QueryRowContext(ctx, query, args...).Scan(&v)
		return v, err
	})
	return out, s.wrap(op, table, err)
}

// Count returns the number of rows in table matching where.
func (s *StatsRepo) Count(ctx context.Context, table string, where map[string]string) (int64, error) {
	if !schema.ValidIdentifier(table) {
		return 0, fmt.Errorf("%w: %q", schema.ErrInvalidIdentifier, table)
	}
	cond, args, err := equalities(where)
	if err != nil {
		return 0, err
	}
	v, err := s.scalar(ctx, "stat_count", table, "SELECT COUNT(*) FROM "+q(table)+cond, args...)
	if err != nil {
		return 0, err
	}
	return int64(v.Float64), nil
}

// Sum totals column over table.  An empty table sums to zero.
func (s *StatsRepo) Sum(ctx context.Context, table, column string, where map[string]string) (float64, error) {
	return s.aggregate(ctx, "SUM", table, column, where)
}

// Avg averages column over table.  An empty table averages to zero.
func (s *StatsRepo) Avg(ctx context.Context, table, column string, where map[string]string) (float64, error) {
	return s.aggregate(ctx, "AVG", table, column, where)
}

func (s *StatsRepo) aggregate(ctx context.Context, fn, table, column string, where map[string]string) (float64, error) {
	for _, id := range []string{table, column} {
		if !schema.ValidIdentifier(id) {
			return 0, fmt.Errorf("%w: %q", schema.ErrInvalidIdentifier, id)
		}
	}
	cond, args, err := equalities(where)
	if err != nil {
		return 0, err
	}
	query := "SELECT " + fn + "(" + q(column) + ") FROM " + q(table) + cond
	v, err := s.scalar(ctx, "stat_"+strings.ToLower(fn), table, query, args...)
	if err != nil {
		return 0, err
	}
	return v.Float64, nil
}

// TopN runs a ranked aggregate.
func (s *StatsRepo) TopN(ctx context.Context, tq TopQuery) ([]TopEntry, error) {
	limit := tq.Limit
	if limit <= 0 {
		limit = 5
	}
	args := append(append([]any{}, tq.Args...), limit)
	out, err := guarded(s.cb, func() ([]TopEntry, error) {
		defer func(start time.Time) {
			metrics.QueryDuration.WithLabelValues("stat_top", tq.Table).Observe(time.Since(start).Seconds())
		}(time.Now())
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		rows, err := s.db.QueryContext(ctx, tq.SQL, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		entries := []TopEntry{}
		for rows.Next() {
			var (
				key, label any
				val        sql.NullFloat64
			)
			if err := rows.Scan(&key, &label, &val); err != nil {
				return nil, err
			}
			e := TopEntry{Key: keyString(normalize(key, "")), Value: val.Float64}
			e.Label = e.Key
			if l := normalize(label, ""); l != nil {
				e.Label = fmt.Sprint(l)
			}
			entries = append(entries, e)
		}
		return entries, rows.Err()
	})
	if err != nil {
		return nil, s.wrap("stat_top", tq.Table, err)
	}
	return out, nil
}
