// Package aggregator derives aggregate rows from normalized records.
// Nothing here is persisted; every call recomputes from the records it is given.
package aggregator

import (
	"math"
	"sort"

	"law-reports-backend/internal/models"
)

type groupKey struct {
	period, category, name string
}

type accumulator struct {
	row         models.AggregateRow
	weightedAvg float64 // Σ total_i × avg_i
}

// Aggregate groups records by the given dimensions. With no dimensions the
// result is a single row covering every record.
func Aggregate(records []models.Record, groupBy ...models.Dimension) []models.AggregateRow {
	var byPeriod, byCategory, byName bool
	for _, d := range groupBy {
		switch d {
		case models.DimPeriod:
			byPeriod = true
		case models.DimCategory:
			byCategory = true
		case models.DimName:
			byName = true
		}
	}

	groups := make(map[groupKey]*accumulator)
	for _, r := range records {
		var k groupKey
		if byPeriod {
			k.period = r.Period
		}
		if byCategory {
			k.category = r.Category
		}
		if byName {
			k.name = r.Name
		}

		acc, ok := groups[k]
		if !ok {
			acc = &accumulator{row: models.AggregateRow{Period: k.period, Category: k.category, Name: k.name}}
			groups[k] = acc
		}
		acc.add(r)
	}

	out := make([]models.AggregateRow, 0, len(groups))
	for _, acc := range groups {
		out = append(out, acc.finish())
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Period != b.Period {
			return a.Period < b.Period
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.Name < b.Name
	})
	return out
}

func (a *accumulator) add(r models.Record) {
	a.row.Records++
	a.row.Total += r.Total
	a.row.Completed += r.Completed
	a.row.Outgoing += r.Outgoing
	a.row.Received += r.Received
	a.row.Voicemail += r.Voicemail
	a.row.AnsweredByOther += r.AnsweredByOther
	a.row.Missed += r.Missed
	a.row.TotalSeconds += r.TotalSeconds
	a.row.HoldSeconds += r.HoldSeconds
	a.weightedAvg += float64(r.Total) * float64(r.AvgSeconds)
}

func (a *accumulator) finish() models.AggregateRow {
	row := a.row
	row.AvgSeconds = WeightedAverage(a.weightedAvg, row.Total)
	row.CompletionPct = CompletionPct(row.Completed, row.Total)
	return row
}

// Totals collapses aggregate rows into one summary row, keeping the weighting.
func Totals(rows []models.AggregateRow) models.AggregateRow {
	var acc accumulator
	for _, r := range rows {
		acc.row.Records += r.Records
		acc.row.Total += r.Total
		acc.row.Completed += r.Completed
		acc.row.Outgoing += r.Outgoing
		acc.row.Received += r.Received
		acc.row.Voicemail += r.Voicemail
		acc.row.AnsweredByOther += r.AnsweredByOther
		acc.row.Missed += r.Missed
		acc.row.TotalSeconds += r.TotalSeconds
		acc.row.HoldSeconds += r.HoldSeconds
		acc.weightedAvg += float64(r.Total) * r.AvgSeconds
	}
	return acc.finish()
}

// WeightedAverage is sum/total, zero when total is zero.
func WeightedAverage(sum float64, total int) float64 {
	if total == 0 {
		return 0
	}
	return sum / float64(total)
}

// CompletionPct is completed/total*100 rounded to two decimals; zero when total is zero.
func CompletionPct(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*10000) / 100
}
