package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"law-reports-backend/internal/models"
)

func rec(period, category, name string, total, completed, avg int) models.Record {
	return models.Record{Period: period, Category: category, Name: name, Total: total, Completed: completed, AvgSeconds: avg}
}

func TestAggregateJaneDoe(t *testing.T) {
	rows := Aggregate([]models.Record{
		rec("2024-01", "Intake", "Jane Doe", 10, 8, 300),
		rec("2024-01", "Intake", "Jane Doe", 5, 5, 180),
	}, models.DimPeriod, models.DimCategory, models.DimName)

	require.Len(t, rows, 1)
	r := rows[0]
	assert.Equal(t, "Jane Doe", r.Name)
	assert.Equal(t, 15, r.Total)
	assert.Equal(t, 13, r.Completed)
	assert.Equal(t, 86.67, r.CompletionPct)
	assert.InDelta(t, 260.0, r.AvgSeconds, 1e-9)
	assert.Equal(t, 2, r.Records)
}

func TestWeightedAverageInvariantUnderSplit(t *testing.T) {
	whole := Aggregate([]models.Record{rec("2024-01", "Intake", "A", 12, 6, 200)}, models.DimName)
	split := Aggregate([]models.Record{
		rec("2024-01", "Intake", "A", 4, 2, 200),
		rec("2024-01", "Intake", "A", 8, 4, 200),
	}, models.DimName)

	require.Len(t, whole, 1)
	require.Len(t, split, 1)
	assert.InDelta(t, whole[0].AvgSeconds, split[0].AvgSeconds, 1e-9)
	assert.Equal(t, whole[0].Total, split[0].Total)
	assert.Equal(t, whole[0].CompletionPct, split[0].CompletionPct)
}

func TestAggregateZeroTotal(t *testing.T) {
	rows := Aggregate([]models.Record{rec("2024-01", "Intake", "A", 0, 0, 120)})
	require.Len(t, rows, 1)
	assert.Zero(t, rows[0].CompletionPct)
	assert.Zero(t, rows[0].AvgSeconds)
}

func TestAggregateOrderingIsDeterministic(t *testing.T) {
	records := []models.Record{
		rec("2024-02", "Intake", "B", 1, 1, 0),
		rec("2024-01", "Receptionist", "A", 1, 1, 0),
		rec("2024-01", "Intake", "Z", 1, 1, 0),
		rec("2024-01", "Intake", "C", 1, 1, 0),
	}
	rows := Aggregate(records, models.DimName, models.DimCategory, models.DimPeriod)

	var keys []string
	for _, r := range rows {
		keys = append(keys, r.Period+"/"+r.Category+"/"+r.Name)
	}
	assert.Equal(t, []string{
		"2024-01/Intake/C",
		"2024-01/Intake/Z",
		"2024-01/Receptionist/A",
		"2024-02/Intake/B",
	}, keys)
}

func TestTotalsMatchRecordSums(t *testing.T) {
	records := []models.Record{
		rec("2024-01", "Intake", "A", 10, 8, 300),
		rec("2024-01", "Receptionist", "B", 5, 5, 180),
		rec("2024-02", "Intake", "A", 7, 1, 60),
	}
	rows := Aggregate(records, models.DimPeriod, models.DimName)
	total := Totals(rows)

	assert.Equal(t, 22, total.Total)
	assert.Equal(t, 14, total.Completed)
	assert.Equal(t, 3, total.Records)

	flat := Aggregate(records)
	require.Len(t, flat, 1)
	assert.Equal(t, flat[0].Total, total.Total)
	assert.InDelta(t, flat[0].AvgSeconds, total.AvgSeconds, 1e-9)
}
