package repository

import (
	"fmt"
	"strings"

	"github.com/iliyamo/sakila-admin/internal/paging"
	"github.com/iliyamo/sakila-admin/internal/view"
)

// Filter restricts a page to rows whose Column matches Value.
type Filter struct {
	Column string     `json:"column"`
	Value  string     `json:"value"`
	Match  view.Match `json:"match"`
}

// PageRequest selects one page of a view.  An empty OrderBy uses the
// view's default order and direction.
type PageRequest struct {
	View      string
	Page      int
	PageSize  int
	OrderBy   string
	Ascending bool
	Filters   []Filter
	Search    string
}

type pageQuery struct {
	countSQL  string
	countArgs []any
	dataSQL   string
	dataArgs  []any
}

const baseAlias = "t"

func q(ident string) string { return "`" + ident + "`" }

func col(alias, ident string) string { return alias + "." + q(ident) }

func embedAlias(i int) string { return fmt.Sprintf("e%d", i) }

// embedColumn names the result column carrying field of embed i.
func embedColumn(i int, field string) string { return embedAlias(i) + "__" + field }

// escapeLike escapes LIKE wildcards so user text matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func whereClause(v view.View, req PageRequest) (string, []any, error) {
	var (
		conds []string
		args  []any
	)
	for _, f := range req.Filters {
		if !v.CanFilter(f.Column) {
			return "", nil, fmt.Errorf("%w: %s cannot filter on %q", ErrUnknownColumn, v.Name, f.Column)
		}
		switch f.Match {
		case view.MatchSubstring:
			conds = append(conds, "LOWER("+col(baseAlias, f.Column)+") LIKE ?")
			args = append(args, "%"+escapeLike(strings.ToLower(f.Value))+"%")
		case view.MatchExact, "":
			conds = append(conds, col(baseAlias, f.Column)+" = ?")
			args = append(args, f.Value)
		default:
			return "", nil, fmt.Errorf("%w: unknown match %q", ErrInvalidPage, f.Match)
		}
	}
	if s := strings.TrimSpace(req.Search); s != "" {
		if len(v.Search) == 0 {
			return "", nil, fmt.Errorf("%w: %s is not searchable", ErrInvalidPage, v.Name)
		}
		pattern := "%" + escapeLike(strings.ToLower(s)) + "%"
		ors := make([]string, 0, len(v.Search))
		for _, c := range v.Search {
			ors = append(ors, "LOWER("+col(baseAlias, c)+") LIKE ?")
			args = append(args, pattern)
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}
	if len(conds) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func orderClause(v view.View, req PageRequest) (string, error) {
	by, asc := v.DefaultOrder, v.DefaultAscending
	if req.OrderBy != "" {
		if !v.CanSort(req.OrderBy) {
			return "", fmt.Errorf("%w: %s cannot sort on %q", ErrUnknownColumn, v.Name, req.OrderBy)
		}
		by, asc = req.OrderBy, req.Ascending
	}
	dir := "DESC"
	if asc {
		dir = "ASC"
	}
	clause := " ORDER BY " + col(baseAlias, by) + " " + dir
	if by != v.PrimaryKey {
		clause += ", " + col(baseAlias, v.PrimaryKey) + " ASC"
	}
	return clause, nil
}

// buildPageQuery renders the count and data statements for req.  Embeds
// listed in omit are not joined, so their rows carry the placeholder.
func buildPageQuery(v view.View, req PageRequest, omit map[int]bool) (pageQuery, error) {
	where, args, err := whereClause(v, req)
	if err != nil {
		return pageQuery{}, err
	}
	order, err := orderClause(v, req)
	if err != nil {
		return pageQuery{}, err
	}

	from := " FROM " + q(v.Table) + " AS " + baseAlias

	selects := make([]string, 0, len(v.Columns)+4*len(v.Embeds))
	for _, c := range v.Columns {
		selects = append(selects, col(baseAlias, c))
	}
	var joins strings.Builder
	for i, e := range v.Embeds {
		if omit[i] {
			continue
		}
		a := embedAlias(i)
		fmt.Fprintf(&joins, " LEFT JOIN %s AS %s ON %s = %s",
			q(e.Table), a, col(a, e.ForeignKey), col(baseAlias, e.LocalKey))
		selects = append(selects, col(a, e.ForeignKey)+" AS "+q(embedColumn(i, "id")))
		for _, lc := range e.LabelColumns {
			selects = append(selects, col(a, lc)+" AS "+q(embedColumn(i, lc)))
		}
	}

	pq := pageQuery{
		countSQL:  "SELECT COUNT(*)" + from + where,
		countArgs: args,
		dataSQL:   "SELECT " + strings.Join(selects, ", ") + from + joins.String() + where + order + " LIMIT ? OFFSET ?",
	}
	pq.dataArgs = append(append([]any{}, args...), req.PageSize, paging.Offset(req.Page, req.PageSize))
	return pq, nil
}

func relatedQuery(r view.Related, n int) string {
	marks := strings.TrimSuffix(strings.Repeat("?,", n), ",")
	sql := "SELECT " + q(r.ForeignKey) + ", COUNT(*) FROM " + q(r.Table) +
		" WHERE " + q(r.ForeignKey) + " IN (" + marks + ")"
	if r.Filter != "" {
		sql += " AND " + r.Filter
	}
	return sql + " GROUP BY " + q(r.ForeignKey)
}
