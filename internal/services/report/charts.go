package report

import (
	"sort"

	"github.com/samber/lo"

	"law-reports-backend/internal/models"
	"law-reports-backend/internal/services/aggregator"
)

type ChartType string

const (
	ChartLine ChartType = "line"
	ChartPie  ChartType = "pie"
	ChartBar  ChartType = "bar"
)

type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Chart is a renderer-agnostic chart description.
type Chart struct {
	ID     string    `json:"id"`
	Type   ChartType `json:"type"`
	Title  string    `json:"title"`
	XLabel string    `json:"x_label,omitempty"`
	YLabel string    `json:"y_label,omitempty"`
	Points []Point   `json:"points"`
}

// Charts builds the standard chart set from aggregate rows at any grouping
// that still carries the dimension each chart needs.
func Charts(report models.Report, rows []models.AggregateRow) []Chart {
	unit := "Records"
	if report.Kind() == models.KindCalls {
		unit = "Total Calls"
	}

	byPeriod := rollup(rows, func(r models.AggregateRow) string { return r.Period })
	byCategory := rollup(rows, func(r models.AggregateRow) string { return r.Category })
	byName := rollup(rows, func(r models.AggregateRow) string { return r.Name })

	charts := []Chart{
		{
			ID: "volume_trend", Type: ChartLine, Title: "Volume Trend Over Time",
			XLabel: "Month", YLabel: unit,
			Points: points(byPeriod, func(r models.AggregateRow) float64 { return float64(r.Total) }),
		},
		{
			ID: "category_distribution", Type: ChartPie, Title: "Distribution by Category",
			Points: points(byCategory, func(r models.AggregateRow) float64 { return float64(r.Total) }),
		},
		{
			ID: "completion_by_name", Type: ChartBar, Title: "Completion Rate by Name",
			XLabel: "Name", YLabel: "Completion (%)",
			Points: points(byName, func(r models.AggregateRow) float64 { return r.CompletionPct }),
		},
	}
	if report.Kind() == models.KindCalls {
		charts = append(charts, Chart{
			ID: "avg_duration_by_name", Type: ChartBar, Title: "Average Call Duration by Name",
			XLabel: "Name", YLabel: "Seconds",
			Points: points(byName, func(r models.AggregateRow) float64 { return r.AvgSeconds }),
		})
	}
	return charts
}

type labelled struct {
	label string
	row   models.AggregateRow
}

// rollup re-totals rows under a single key. Rows without that key are skipped.
func rollup(rows []models.AggregateRow, key func(models.AggregateRow) string) []labelled {
	groups := lo.GroupBy(lo.Filter(rows, func(r models.AggregateRow, _ int) bool {
		return key(r) != ""
	}), key)
	out := make([]labelled, 0, len(groups))
	for label, rs := range groups {
		out = append(out, labelled{label: label, row: aggregator.Totals(rs)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].label < out[j].label })
	return out
}

func points(groups []labelled, value func(models.AggregateRow) float64) []Point {
	return lo.Map(groups, func(g labelled, _ int) Point {
		return Point{Label: g.label, Value: value(g.row)}
	})
}
