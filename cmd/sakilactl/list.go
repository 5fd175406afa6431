package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iliyamo/sakila-admin/internal/client"
	"github.com/iliyamo/sakila-admin/internal/model"
	"github.com/iliyamo/sakila-admin/internal/paging"
	"github.com/iliyamo/sakila-admin/internal/repository"
)

type listFlags struct {
	page        int
	pageSize    int
	search      string
	order       string
	desc        bool
	interactive bool
}

var lf listFlags

var listCmd = &cobra.Command{
	Use:   "list <view>",
	Short: "Print one page of a list view",
	Long: `Print one page of a list view such as films, customers or videos.

With --interactive the page stays open: n and p move between pages, r
reloads, /text searches and q quits.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := apiClient()
		if err != nil {
			return err
		}
		q := paging.Query{
			Table:     args[0],
			Page:      lf.page,
			PageSize:  lf.pageSize,
			OrderBy:   lf.order,
			Ascending: !lf.desc,
			Filter:    lf.search,
		}
		if lf.interactive {
			return interactive(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), c, q)
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag)
		defer cancel()
		p, err := c.List(ctx, q.Table, client.OptionsFrom(q))
		if err != nil {
			return err
		}
		printPage(cmd.OutOrStdout(), p.Columns, p.Rows)
		fmt.Fprintf(cmd.OutOrStdout(), "page %d/%d, %d rows total\n", p.Page, p.TotalPages, p.Total)
		return nil
	},
}

func init() {
	f := listCmd.Flags()
	f.IntVar(&lf.page, "page", 1, "page number (1-based)")
	f.IntVar(&lf.pageSize, "page-size", 25, "rows per page")
	f.StringVar(&lf.search, "search", "", "free-text search over the view's search columns")
	f.StringVar(&lf.order, "order", "", "sort column")
	f.BoolVar(&lf.desc, "desc", false, "sort descending")
	f.BoolVarP(&lf.interactive, "interactive", "i", false, "page interactively")
	rootCmd.AddCommand(listCmd)
}

func interactive(ctx context.Context, in io.Reader, out io.Writer, c *client.Client, q paging.Query) error {
	var columns []string
	pager := paging.NewPager(ctx, c.Loader(&columns), q)
	defer pager.Close()
	pager.Start()

	sc := bufio.NewScanner(in)
	for {
		snap, err := pager.Wait(ctx)
		if err != nil {
			return err
		}
		render(out, columns, snap)
		fmt.Fprint(out, "[n]ext [p]rev [r]efresh [/text] search [q]uit > ")
		if !sc.Scan() {
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "q":
			return nil
		case line == "n":
			if !pager.Next() {
				fmt.Fprintln(out, "already on the last page")
			}
		case line == "p":
			if !pager.Prev() {
				fmt.Fprintln(out, "already on the first page")
			}
		case line == "r":
			pager.Refresh()
		case strings.HasPrefix(line, "/"):
			pager.SetFilter(strings.TrimSpace(line[1:]))
		}
	}
}

func render(out io.Writer, columns []string, s paging.Snapshot[repository.Row]) {
	if s.Err != nil {
		if client.IsTableNotFound(s.Err) {
			fmt.Fprintf(out, "table for view %q does not exist; see sakilactl tables\n", s.Query.Table)
			return
		}
		fmt.Fprintf(out, "load failed: %v (r to retry)\n", s.Err)
		if len(s.Rows) == 0 {
			return
		}
	}
	if len(s.Rows) == 0 {
		if s.Query.Filter != "" {
			fmt.Fprintf(out, "no rows match %q\n", s.Query.Filter)
		} else {
			fmt.Fprintln(out, "no rows")
		}
		return
	}
	printPage(out, columns, s.Rows)
	fmt.Fprintf(out, "page %d/%d, %d rows total\n", s.Query.Page, s.TotalPages, s.Total)
}

// printPage writes rows as an aligned table.  Embedded records print their
// label; columns not declared by the view (related counts) follow in name
// order.
func printPage(out io.Writer, columns []string, rows []repository.Row) {
	if len(rows) == 0 {
		fmt.Fprintln(out, "no rows")
		return
	}
	cols := append([]string(nil), columns...)
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		seen[c] = true
	}
	var extra []string
	for k := range rows[0] {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	cols = append(cols, extra...)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(cols, "\t"))
	for _, r := range rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = cell(r[c])
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	_ = tw.Flush()
}

func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case map[string]any:
		if l, ok := t["label"].(string); ok {
			return l
		}
	case model.Embedded:
		return t.Label
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%.2f", t)
	}
	return fmt.Sprint(v)
}
