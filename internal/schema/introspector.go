// Package schema answers questions about the live database schema: which
// tables exist and what their columns are.  Table-existence answers are
// memoized in an injected cache.Store and can be invalidated explicitly.
package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/iliyamo/sakila-admin/internal/cache"
	"github.com/iliyamo/sakila-admin/internal/logging"
	"github.com/iliyamo/sakila-admin/internal/metrics"
)

var (
	// ErrTableNotFound is returned by DescribeColumns for an unknown table.
	ErrTableNotFound = errors.New("table not found")
	// ErrInvalidIdentifier is returned for names that are not plain identifiers.
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

// ValidIdentifier reports whether name is safe to splice into SQL.
func ValidIdentifier(name string) bool { return identRe.MatchString(name) }

// QuoteIdent backtick-quotes a validated identifier.
func QuoteIdent(name string) (string, error) {
	if !ValidIdentifier(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return "`" + name + "`", nil
}

// Column describes one column of a table.
type Column struct {
	Name         string `json:"name"`
	DeclaredType string `json:"declared_type"`
	Nullable     bool   `json:"nullable"`
	Key          string `json:"key,omitempty"`
}

const keyPrefix = "schema:exists:"

// Introspector reads information_schema for the connected database.
type Introspector struct {
	db      *sql.DB
	store   cache.Store
	ttl     time.Duration
	timeout time.Duration
}

// New returns an Introspector.  A nil store disables memoization.
func New(db *sql.DB, store cache.Store, ttl, timeout time.Duration) *Introspector {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Introspector{db: db, store: store, ttl: ttl, timeout: timeout}
}

// TableExists reports whether name is a table in the current database.
func (i *Introspector) TableExists(ctx context.Context, name string) (bool, error) {
	if !ValidIdentifier(name) {
		return false, nil
	}
	key := keyPrefix + name
	if i.store != nil {
		bs, ok, err := i.store.Get(ctx, key)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("table", name).Msg("existence cache read failed")
		} else if ok {
			metrics.ExistenceCacheLookups.WithLabelValues("hit").Inc()
			return string(bs) == "1", nil
		}
	}
	metrics.ExistenceCacheLookups.WithLabelValues("miss").Inc()

	qctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()
	const q = `SELECT COUNT(*) FROM information_schema.tables
	           WHERE table_schema = DATABASE() AND table_name = ?`
	var n int
	if err := i.db.QueryRowContext(qctx, q, name).Scan(&n); err != nil {
		return false, fmt.Errorf("check table %s: %w", name, err)
	}
	exists := n > 0
	if i.store != nil {
		val := []byte("0")
		if exists {
			val = []byte("1")
		}
		if err := i.store.Set(ctx, key, val, i.ttl); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("table", name).Msg("existence cache write failed")
		}
	}
	return exists, nil
}

// Invalidate forgets the memoized answer for the given tables.
func (i *Introspector) Invalidate(ctx context.Context, names ...string) error {
	if i.store == nil || len(names) == 0 {
		return nil
	}
	keys := make([]string, 0, len(names))
	for _, n := range names {
		keys = append(keys, keyPrefix+n)
	}
	return i.store.Delete(ctx, keys...)
}

// InvalidateAll forgets every memoized answer.
func (i *Introspector) InvalidateAll(ctx context.Context) error {
	if i.store == nil {
		return nil
	}
	return i.store.DeletePrefix(ctx, keyPrefix)
}

// ListTables returns the base tables of the current database, sorted by name.
func (i *Introspector) ListTables(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()
	const q = `SELECT table_name FROM information_schema.tables
	           WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
	           ORDER BY table_name`
	rows, err := i.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// DescribeColumns returns the columns of table in ordinal order.
func (i *Introspector) DescribeColumns(ctx context.Context, table string) ([]Column, error) {
	if !ValidIdentifier(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIdentifier, table)
	}
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()
	const q = `SELECT column_name, column_type, is_nullable, column_key
	           FROM information_schema.columns
	           WHERE table_schema = DATABASE() AND table_name = ?
	           ORDER BY ordinal_position`
	rows, err := i.db.QueryContext(ctx, q, table)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", table, err)
	}
	defer rows.Close()

	var out []Column
	for rows.Next() {
		var (
			c        Column
			nullable string
		)
		if err := rows.Scan(&c.Name, &c.DeclaredType, &nullable, &c.Key); err != nil {
			return nil, err
		}
		c.Nullable = nullable == "YES"
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	return out, nil
}

// ColumnSet returns the column names of table as a set.
func (i *Introspector) ColumnSet(ctx context.Context, table string) (map[string]bool, error) {
	cols, err := i.DescribeColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(cols))
	for _, c := range cols {
		set[c.Name] = true
	}
	return set, nil
}
