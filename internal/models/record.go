package models

import (
	"time"

	"law-reports-backend/internal/apperr"
)

const DateLayout = "2006-01-02"

// Period is the declared date range of an upload.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Validate enforces Start <= End within a single calendar month.
func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return &apperr.InvalidPeriodError{Start: p.Start, End: p.End, Reason: "start and end dates are required"}
	}
	if p.Start.After(p.End) {
		return &apperr.InvalidPeriodError{Start: p.Start, End: p.End, Reason: "start date must be on or before end date"}
	}
	if p.Start.Year() != p.End.Year() || p.Start.Month() != p.End.Month() {
		return &apperr.InvalidPeriodError{Start: p.Start, End: p.End, Reason: "range must lie within a single calendar month"}
	}
	return nil
}

// Key is the calendar-month identifier, e.g. "2024-01".
func (p Period) Key() string {
	return PeriodKey(p.Start)
}

// Contains reports whether t falls on a day inside the period (inclusive).
func (p Period) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(Day(p.Start)) && !d.After(Day(p.End))
}

func PeriodKey(t time.Time) string {
	return t.Format("2006-01")
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Record is a normalized upload row.
type Record struct {
	Name       string     `json:"name"`
	Category   string     `json:"category"`
	Period     string     `json:"period"`
	RecordDate *time.Time `json:"record_date,omitempty"`

	Total           int `json:"total"`
	Completed       int `json:"completed"`
	Outgoing        int `json:"outgoing"`
	Received        int `json:"received"`
	Voicemail       int `json:"voicemail"`
	AnsweredByOther int `json:"answered_by_other"`
	Missed          int `json:"missed"`

	AvgSeconds   int `json:"avg_seconds"`
	TotalSeconds int `json:"total_seconds"`
	HoldSeconds  int `json:"hold_seconds"`
}

// Stamp is the batch metadata carried by every persisted row.
type Stamp struct {
	BatchID         string    `json:"batch_id"`
	UploadDate      time.Time `json:"upload_date"`
	BatchStart      time.Time `json:"batch_start"`
	BatchEnd        time.Time `json:"batch_end"`
	UploadTimestamp time.Time `json:"upload_timestamp"`
}

type StampedRecord struct {
	Report Report `json:"report"`
	Record
	Stamp
}
