package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/samber/lo"

	"law-reports-backend/internal/models"
)

const colCompletionPct = "Completion %"

// ExportHeader is the report's canonical column order without batch metadata,
// followed by the completion percentage.
func ExportHeader(report models.Report) []string {
	cols := lo.Filter(report.Header(), func(c string, _ int) bool {
		return !lo.Contains(models.MetaColumns, c)
	})
	return append(cols, colCompletionPct)
}

// ExportCSV writes aggregate rows as CSV.
func ExportCSV(w io.Writer, report models.Report, rows []models.AggregateRow) error {
	header := ExportHeader(report)
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing export header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(exportRow(header, r)); err != nil {
			return fmt.Errorf("writing export row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func exportRow(header []string, r models.AggregateRow) []string {
	out := make([]string, len(header))
	for i, col := range header {
		switch col {
		case models.ColName:
			out[i] = r.Name
		case models.ColCategory:
			out[i] = r.Category
		case models.ColPeriod:
			out[i] = r.Period
		case models.ColTotal, models.ColTotalCalls:
			out[i] = strconv.Itoa(r.Total)
		case models.ColCompleted, models.ColCompletedCalls:
			out[i] = strconv.Itoa(r.Completed)
		case models.ColOutgoing:
			out[i] = strconv.Itoa(r.Outgoing)
		case models.ColReceived:
			out[i] = strconv.Itoa(r.Received)
		case models.ColVoicemail:
			out[i] = strconv.Itoa(r.Voicemail)
		case models.ColAnsweredByOther:
			out[i] = strconv.Itoa(r.AnsweredByOther)
		case models.ColMissed:
			out[i] = strconv.Itoa(r.Missed)
		case models.ColAvgCallTime:
			out[i] = models.FormatHMS(int(r.AvgSeconds + 0.5))
		case models.ColTotalCallTime:
			out[i] = models.FormatHMS(r.TotalSeconds)
		case models.ColTotalHoldTime:
			out[i] = models.FormatHMS(r.HoldSeconds)
		case colCompletionPct:
			out[i] = strconv.FormatFloat(r.CompletionPct, 'f', 2, 64)
		}
		// Record Date stays blank: aggregates span many dates.
	}
	return out
}
