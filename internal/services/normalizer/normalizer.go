// Package normalizer cleans uploaded tables into normalized records:
// header synonyms, roster name canonicalization, categories, counts and durations.
package normalizer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"law-reports-backend/internal/apperr"
	"law-reports-backend/internal/config"
	"law-reports-backend/internal/models"
	"law-reports-backend/internal/services/matching"
)

// Result is the outcome of a normalization run. Rows are either kept, dropped
// with a reason, excluded as not on the roster, or outside the upload period.
type Result struct {
	Records    []models.Record   `json:"-"`
	Dropped    []apperr.RowIssue `json:"dropped"`
	Excluded   int               `json:"excluded"`
	OutOfRange int               `json:"out_of_range"`
	// Columns maps each resolved canonical column to the upload header it came from.
	Columns map[string]string `json:"columns"`
	// Unlisted holds one roster suggestion per distinct excluded name.
	Unlisted []matching.Suggestion `json:"unlisted,omitempty"`
}

type Normalizer struct {
	staff     *Roster
	attorneys *Roster
	excluded  map[string]bool
	required  map[models.Report][]string
	log       *zap.Logger
}

func New(rosters config.RostersConfig, ingest config.IngestConfig, log *zap.Logger) *Normalizer {
	if log == nil {
		log = zap.NewNop()
	}
	n := &Normalizer{
		staff:     NewRoster(rosters.Staff),
		attorneys: NewRoster(rosters.Attorneys),
		excluded:  make(map[string]bool, len(rosters.ExcludedStages)),
		required:  make(map[models.Report][]string),
		log:       log,
	}
	for _, s := range rosters.ExcludedStages {
		n.excluded[strings.ToLower(strings.TrimSpace(s))] = true
	}
	for report, cols := range ingest.RequiredColumns {
		n.required[models.Report(report)] = cols
	}
	return n
}

// Normalize validates the period and header, then converts every data row.
// Row level problems never fail the batch; they are reported in the Result.
func (n *Normalizer) Normalize(report models.Report, raw models.Table, period models.Period) (*Result, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	s, ok := schemas[report]
	if !ok {
		return nil, apperr.Validation("unknown report %q", report)
	}
	if len(raw.Header) == 0 || len(raw.Rows) == 0 {
		return nil, apperr.Validation("upload for %s has no data rows", report)
	}

	mapping := mapColumns(s, raw.Header)
	required := s.required
	if override, ok := n.required[report]; ok {
		required = override
	}
	if missing := mapping.missing(required); len(missing) > 0 {
		n.log.Warn("upload missing required columns",
			zap.String("report", string(report)),
			zap.Strings("missing", missing),
			zap.Strings("header", raw.Header))
		return nil, &apperr.MissingColumnsError{Missing: missing}
	}

	res := &Result{Columns: make(map[string]string, len(mapping.index))}
	for canonical, i := range mapping.index {
		res.Columns[canonical] = raw.Header[i]
	}

	roster := n.staff
	if s.roster == attorneyRoster {
		roster = n.attorneys
	}

	unlisted := make(map[string]bool)
	for i, row := range raw.Rows {
		line := i + 2 // header is line 1

		rawName := mapping.cell(row, fieldName)
		var (
			name string
			ok   bool
		)
		if s.initials {
			name, ok = roster.CanonicalInitials(rawName)
		} else {
			name, ok = roster.Canonical(rawName)
		}
		if !ok {
			res.Excluded++
			n.log.Debug("name not on roster", zap.String("report", string(report)), zap.Int("row", line), zap.String("name", rawName))
			if k := collapse(rawName); k != "" && !unlisted[k] {
				unlisted[k] = true
				res.Unlisted = append(res.Unlisted, matching.Suggest(k, roster.Names()))
			}
			continue
		}
		category, ok := roster.Category(name)
		if !ok {
			res.Dropped = append(res.Dropped, apperr.RowIssue{Row: line, Reason: fmt.Sprintf("no category for %q", name)})
			continue
		}

		var (
			rec     models.Record
			skip    bool
			outside bool
			err     error
		)
		if report.Kind() == models.KindCalls {
			rec, err = callsRecord(mapping, row)
		} else {
			rec, skip, outside, err = n.conversionRecord(s, mapping, row, period)
		}
		switch {
		case err != nil:
			res.Dropped = append(res.Dropped, apperr.RowIssue{Row: line, Reason: err.Error()})
			continue
		case skip:
			res.Excluded++
			continue
		case outside:
			res.OutOfRange++
			continue
		}

		rec.Name = name
		rec.Category = category
		rec.Period = period.Key()
		res.Records = append(res.Records, rec)
	}

	if len(res.Dropped) > 0 {
		n.log.Warn("rows dropped during normalization",
			zap.String("report", string(report)),
			zap.Int("dropped", len(res.Dropped)),
			zap.Int("kept", len(res.Records)))
	}
	if len(res.Records) == 0 {
		return res, &apperr.ValidationError{
			Msg:  fmt.Sprintf("no %s rows remained after normalization (%d excluded, %d out of range)", report, res.Excluded, res.OutOfRange),
			Rows: res.Dropped,
		}
	}
	return res, nil
}

func callsRecord(m columnMapping, row []string) (models.Record, error) {
	var rec models.Record
	counts := []struct {
		col string
		dst *int
	}{
		{models.ColTotalCalls, &rec.Total},
		{models.ColCompletedCalls, &rec.Completed},
		{models.ColOutgoing, &rec.Outgoing},
		{models.ColReceived, &rec.Received},
		{models.ColVoicemail, &rec.Voicemail},
		{models.ColAnsweredByOther, &rec.AnsweredByOther},
		{models.ColMissed, &rec.Missed},
	}
	for _, c := range counts {
		v, err := parseCount(m.cell(row, c.col))
		if err != nil {
			return rec, fmt.Errorf("%s: %w", c.col, err)
		}
		*c.dst = v
	}
	for _, i := range m.incoming {
		v, err := parseCount(cellAt(row, i))
		if err != nil {
			return rec, fmt.Errorf("%s: %w", models.ColReceived, err)
		}
		rec.Received += v
	}
	for _, i := range m.outgoing {
		v, err := parseCount(cellAt(row, i))
		if err != nil {
			return rec, fmt.Errorf("%s: %w", models.ColOutgoing, err)
		}
		rec.Outgoing += v
	}

	durations := []struct {
		col string
		dst *int
	}{
		{models.ColAvgCallTime, &rec.AvgSeconds},
		{models.ColTotalCallTime, &rec.TotalSeconds},
		{models.ColTotalHoldTime, &rec.HoldSeconds},
	}
	for _, d := range durations {
		v, err := ParseDuration(m.cell(row, d.col))
		if err != nil {
			return rec, fmt.Errorf("%s: %w", d.col, err)
		}
		*d.dst = v
	}
	return rec, nil
}

func (n *Normalizer) conversionRecord(s schema, m columnMapping, row []string, period models.Period) (rec models.Record, skip, outside bool, err error) {
	if m.has(fieldStage) && n.excluded[strings.ToLower(m.cell(row, fieldStage))] {
		return rec, true, false, nil
	}
	if m.has(fieldSubStatus) && strings.EqualFold(m.cell(row, fieldSubStatus), "follow up") {
		return rec, true, false, nil
	}

	if m.has(fieldDate) {
		raw := m.cell(row, fieldDate)
		if raw == "" {
			if s.dated {
				return rec, false, true, nil
			}
		} else {
			d, perr := ParseDate(raw)
			if perr != nil {
				return rec, false, false, perr
			}
			if s.dated && !period.Contains(d) {
				return rec, false, true, nil
			}
			rec.RecordDate = &d
		}
	}

	rec.Total = 1
	if s.completed != nil && m.has(fieldOutcome) && s.completed(m.cell(row, fieldOutcome)) {
		rec.Completed = 1
	}
	return rec, false, false, nil
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04 PM",
	"1/2/06",
	"01-02-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"Mon, Jan 2, 2006",
}

// ParseDate accepts the date forms seen in CRM exports (US month-first for slashes).
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable date %q", s)
}

func parseCount(s string) (int, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f != float64(int(f)) {
		return 0, fmt.Errorf("invalid count %q", s)
	}
	return int(f), nil
}

func cellAt(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
