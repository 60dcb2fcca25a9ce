package models

import (
	"fmt"
	"strconv"
	"time"
)

// Batch is one upload's worth of rows. It is never mutated after creation.
type Batch struct {
	ID          string    `json:"id"`
	Report      Report    `json:"report"`
	Fingerprint string    `json:"fingerprint"`
	Filename    string    `json:"filename"`
	UploadedBy  string    `json:"uploaded_by"`
	UploadDate  time.Time `json:"upload_date"`
	UploadedAt  time.Time `json:"uploaded_at"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	RowCount    int       `json:"row_count"`
}

func (b Batch) Period() Period {
	return Period{Start: b.PeriodStart, End: b.PeriodEnd}
}

func (b Batch) Stamp() Stamp {
	return Stamp{
		BatchID:         b.ID,
		UploadDate:      b.UploadDate,
		BatchStart:      b.PeriodStart,
		BatchEnd:        b.PeriodEnd,
		UploadTimestamp: b.UploadedAt,
	}
}

var BatchHeader = []string{
	"batch_id", "report", "fingerprint", "filename", "uploaded_by",
	"upload_date", "uploaded_at", "period_start", "period_end", "row_count",
}

func (b Batch) Row() []string {
	return []string{
		b.ID,
		string(b.Report),
		b.Fingerprint,
		b.Filename,
		b.UploadedBy,
		formatDate(b.UploadDate),
		formatTimestamp(b.UploadedAt),
		formatDate(b.PeriodStart),
		formatDate(b.PeriodEnd),
		strconv.Itoa(b.RowCount),
	}
}

// ParseBatchRow decodes a registry row written by Batch.Row.
func ParseBatchRow(header, row []string) (Batch, error) {
	cell := cellLookup(header, row)
	var b Batch
	var err error

	b.ID = cell("batch_id")
	if b.ID == "" {
		return b, fmt.Errorf("registry row without batch_id")
	}
	b.Report = Report(cell("report"))
	b.Fingerprint = cell("fingerprint")
	b.Filename = cell("filename")
	b.UploadedBy = cell("uploaded_by")
	if b.UploadDate, err = parseDate(cell("upload_date")); err != nil {
		return b, fmt.Errorf("batch %s upload_date: %w", b.ID, err)
	}
	if b.UploadedAt, err = parseTimestamp(cell("uploaded_at")); err != nil {
		return b, fmt.Errorf("batch %s uploaded_at: %w", b.ID, err)
	}
	if b.PeriodStart, err = parseDate(cell("period_start")); err != nil {
		return b, fmt.Errorf("batch %s period_start: %w", b.ID, err)
	}
	if b.PeriodEnd, err = parseDate(cell("period_end")); err != nil {
		return b, fmt.Errorf("batch %s period_end: %w", b.ID, err)
	}
	if n := cell("row_count"); n != "" {
		if b.RowCount, err = strconv.Atoi(n); err != nil {
			return b, fmt.Errorf("batch %s row_count: %w", b.ID, err)
		}
	}
	return b, nil
}
