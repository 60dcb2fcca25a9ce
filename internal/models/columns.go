package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	ColReport          = "__report"
	ColName            = "Name"
	ColCategory        = "Category"
	ColPeriod          = "Month-Year"
	ColRecordDate      = "Record Date"
	ColTotal           = "Total"
	ColCompleted       = "Completed"
	ColTotalCalls      = "Total Calls"
	ColCompletedCalls  = "Completed Calls"
	ColOutgoing        = "Outgoing"
	ColReceived        = "Received"
	ColVoicemail       = "Forwarded to Voicemail"
	ColAnsweredByOther = "Answered by Other"
	ColMissed          = "Missed"
	ColAvgCallTime     = "Avg Call Time"
	ColTotalCallTime   = "Total Call Time"
	ColTotalHoldTime   = "Total Hold Time"

	ColBatchID         = "__batch_id"
	ColUploadDate      = "__upload_date"
	ColBatchStart      = "__batch_start"
	ColBatchEnd        = "__batch_end"
	ColUploadTimestamp = "__upload_timestamp"
)

var MetaColumns = []string{ColBatchID, ColUploadDate, ColBatchStart, ColBatchEnd, ColUploadTimestamp}

var CallsColumns = []string{
	ColName, ColCategory, ColTotalCalls, ColCompletedCalls, ColOutgoing, ColReceived,
	ColVoicemail, ColAnsweredByOther, ColMissed,
	ColAvgCallTime, ColTotalCallTime, ColTotalHoldTime, ColPeriod,
}

var ConversionColumns = []string{
	ColName, ColCategory, ColRecordDate, ColTotal, ColCompleted, ColPeriod,
}

func MasterHeader() []string {
	return withMeta([]string{
		ColReport, ColName, ColCategory, ColPeriod, ColRecordDate,
		ColTotal, ColCompleted, ColOutgoing, ColReceived, ColVoicemail, ColAnsweredByOther, ColMissed,
		ColAvgCallTime, ColTotalCallTime, ColTotalHoldTime,
	})
}

func withMeta(cols []string) []string {
	out := make([]string, 0, len(cols)+len(MetaColumns))
	out = append(out, cols...)
	return append(out, MetaColumns...)
}

type fieldCodec struct {
	get func(r *StampedRecord) string
	set func(r *StampedRecord, v string) error
}

func intField(p func(r *StampedRecord) *int) fieldCodec {
	return fieldCodec{
		get: func(r *StampedRecord) string { return strconv.Itoa(*p(r)) },
		set: func(r *StampedRecord, v string) error {
			if v == "" {
				*p(r) = 0
				return nil
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				f, ferr := strconv.ParseFloat(v, 64)
				if ferr != nil {
					return err
				}
				n = int(f)
			}
			*p(r) = n
			return nil
		},
	}
}

func durationField(p func(r *StampedRecord) *int) fieldCodec {
	return fieldCodec{
		get: func(r *StampedRecord) string { return FormatHMS(*p(r)) },
		set: func(r *StampedRecord, v string) (err error) {
			*p(r), err = ParseHMS(v)
			return err
		},
	}
}

func dateField(p func(r *StampedRecord) *time.Time) fieldCodec {
	return fieldCodec{
		get: func(r *StampedRecord) string { return formatDate(*p(r)) },
		set: func(r *StampedRecord, v string) (err error) {
			*p(r), err = parseDate(v)
			return err
		},
	}
}

func stringField(p func(r *StampedRecord) *string) fieldCodec {
	return fieldCodec{
		get: func(r *StampedRecord) string { return *p(r) },
		set: func(r *StampedRecord, v string) error { *p(r) = v; return nil },
	}
}

var codecs = map[string]fieldCodec{
	ColReport: {
		get: func(r *StampedRecord) string { return string(r.Report) },
		set: func(r *StampedRecord, v string) error { r.Report = Report(v); return nil },
	},
	ColName:     stringField(func(r *StampedRecord) *string { return &r.Name }),
	ColCategory: stringField(func(r *StampedRecord) *string { return &r.Category }),
	ColPeriod:   stringField(func(r *StampedRecord) *string { return &r.Period }),
	ColRecordDate: {
		get: func(r *StampedRecord) string {
			if r.RecordDate == nil {
				return ""
			}
			return formatDate(*r.RecordDate)
		},
		set: func(r *StampedRecord, v string) error {
			if v == "" {
				r.RecordDate = nil
				return nil
			}
			t, err := parseDate(v)
			if err != nil {
				return err
			}
			r.RecordDate = &t
			return nil
		},
	},
	ColTotal:           intField(func(r *StampedRecord) *int { return &r.Total }),
	ColTotalCalls:      intField(func(r *StampedRecord) *int { return &r.Total }),
	ColCompleted:       intField(func(r *StampedRecord) *int { return &r.Completed }),
	ColCompletedCalls:  intField(func(r *StampedRecord) *int { return &r.Completed }),
	ColOutgoing:        intField(func(r *StampedRecord) *int { return &r.Outgoing }),
	ColReceived:        intField(func(r *StampedRecord) *int { return &r.Received }),
	ColVoicemail:       intField(func(r *StampedRecord) *int { return &r.Voicemail }),
	ColAnsweredByOther: intField(func(r *StampedRecord) *int { return &r.AnsweredByOther }),
	ColMissed:          intField(func(r *StampedRecord) *int { return &r.Missed }),
	ColAvgCallTime:     durationField(func(r *StampedRecord) *int { return &r.AvgSeconds }),
	ColTotalCallTime:   durationField(func(r *StampedRecord) *int { return &r.TotalSeconds }),
	ColTotalHoldTime:   durationField(func(r *StampedRecord) *int { return &r.HoldSeconds }),

	ColBatchID:    stringField(func(r *StampedRecord) *string { return &r.BatchID }),
	ColUploadDate: dateField(func(r *StampedRecord) *time.Time { return &r.UploadDate }),
	ColBatchStart: dateField(func(r *StampedRecord) *time.Time { return &r.BatchStart }),
	ColBatchEnd:   dateField(func(r *StampedRecord) *time.Time { return &r.BatchEnd }),
	ColUploadTimestamp: {
		get: func(r *StampedRecord) string { return formatTimestamp(r.UploadTimestamp) },
		set: func(r *StampedRecord, v string) (err error) {
			r.UploadTimestamp, err = parseTimestamp(v)
			return err
		},
	},
}

// EncodeRow renders rec in the column order of header. Unknown columns are left blank.
func EncodeRow(header []string, rec StampedRecord) []string {
	row := make([]string, len(header))
	for i, col := range header {
		if c, ok := codecs[col]; ok {
			row[i] = c.get(&rec)
		}
	}
	return row
}

// DecodeRow is the inverse of EncodeRow. Missing trailing cells read as blank.
func DecodeRow(header, row []string) (StampedRecord, error) {
	var rec StampedRecord
	for i, col := range header {
		c, ok := codecs[col]
		if !ok {
			continue
		}
		v := ""
		if i < len(row) {
			v = strings.TrimSpace(row[i])
		}
		if err := c.set(&rec, v); err != nil {
			return rec, fmt.Errorf("column %q: %w", col, err)
		}
	}
	return rec, nil
}

// FormatHMS renders seconds as H:MM:SS.
func FormatHMS(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}

// ParseHMS reads the H:MM:SS form written by FormatHMS. Blank is zero.
func ParseHMS(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("duration %q is not H:MM:SS", s)
	}
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("duration %q is not H:MM:SS", s)
		}
		total = total*60 + n
	}
	return total, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(DateLayout, s)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

func cellLookup(header, row []string) func(col string) string {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}
	return func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
}
