package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Metric kinds understood by the analytics engine.
const (
	MetricCount = "count"
	MetricSum   = "sum"
	MetricAvg   = "avg"
	MetricTop   = "top"
)

// ReportSchema is the declared, versioned set of analytics metrics.  It is
// checked against the live database once at startup; metrics whose tables
// or columns are missing are reported as unavailable instead of guessed.
type ReportSchema struct {
	Version string       `koanf:"version"`
	Metrics []MetricSpec `koanf:"metrics"`
}

// MetricSpec declares one metric.  Column is required for sum and avg;
// GroupBy and Limit apply to top.  Where is a conjunction of exact matches.
type MetricSpec struct {
	Key     string            `koanf:"key"`
	Title   string            `koanf:"title"`
	Kind    string            `koanf:"kind"`
	Table   string            `koanf:"table"`
	Column  string            `koanf:"column"`
	GroupBy string            `koanf:"group_by"`
	Limit   int               `koanf:"limit"`
	Where   map[string]string `koanf:"where"`
}

// RequiredColumns lists every column the metric reads.
func (m MetricSpec) RequiredColumns() []string {
	var cols []string
	if m.Column != "" {
		cols = append(cols, m.Column)
	}
	if m.GroupBy != "" {
		cols = append(cols, m.GroupBy)
	}
	for c := range m.Where {
		cols = append(cols, c)
	}
	return cols
}

func defaultReportSchema() ReportSchema {
	return ReportSchema{
		Version: "1",
		Metrics: []MetricSpec{
			{Key: "total_views", Title: "Total video views", Kind: MetricCount, Table: "view_events"},
			{Key: "watch_seconds", Title: "Total watch time (s)", Kind: MetricSum, Table: "view_events", Column: "watched_seconds"},
			{Key: "avg_watch_seconds", Title: "Average watch time (s)", Kind: MetricAvg, Table: "view_events", Column: "watched_seconds"},
			{Key: "top_videos", Title: "Most viewed videos", Kind: MetricTop, Table: "view_events", GroupBy: "video_id", Limit: 5},
			{Key: "active_subscriptions", Title: "Active subscriptions", Kind: MetricCount, Table: "subscriptions", Where: map[string]string{"status": "active"}},
			{Key: "total_comments", Title: "Comments", Kind: MetricCount, Table: "comments"},
			{Key: "rental_revenue", Title: "Rental revenue", Kind: MetricSum, Table: "payment", Column: "amount"},
			{Key: "top_rental_customers", Title: "Customers by rentals", Kind: MetricTop, Table: "rental", GroupBy: "customer_id", Limit: 5},
		},
	}
}

// LoadReportSchema layers the built-in schema, an optional YAML file at path
// and REPORTS_VERSION from the environment.  A file, when given, replaces
// the whole metric list.
func LoadReportSchema(path string) (ReportSchema, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaultReportSchema(), "koanf"), nil); err != nil {
		return ReportSchema{}, fmt.Errorf("load report defaults: %w", err)
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return ReportSchema{}, fmt.Errorf("report schema %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return ReportSchema{}, fmt.Errorf("load report schema %s: %w", path, err)
		}
	}
	envProvider := env.Provider("REPORTS_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "REPORTS_"))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return ReportSchema{}, fmt.Errorf("load report env: %w", err)
	}

	var rs ReportSchema
	if err := k.Unmarshal("", &rs); err != nil {
		return ReportSchema{}, fmt.Errorf("decode report schema: %w", err)
	}
	return rs, rs.Validate()
}

// Validate rejects duplicate keys and specs that can never be evaluated.
func (rs ReportSchema) Validate() error {
	seen := make(map[string]bool, len(rs.Metrics))
	for _, m := range rs.Metrics {
		if m.Key == "" || m.Table == "" {
			return fmt.Errorf("metric %q: key and table are required", m.Key)
		}
		if seen[m.Key] {
			return fmt.Errorf("metric %q declared twice", m.Key)
		}
		seen[m.Key] = true
		switch m.Kind {
		case MetricCount:
		case MetricSum, MetricAvg:
			if m.Column == "" {
				return fmt.Errorf("metric %q: %s needs a column", m.Key, m.Kind)
			}
		case MetricTop:
			if m.GroupBy == "" {
				return fmt.Errorf("metric %q: top needs group_by", m.Key)
			}
		default:
			return fmt.Errorf("metric %q: unknown kind %q", m.Key, m.Kind)
		}
	}
	return nil
}
