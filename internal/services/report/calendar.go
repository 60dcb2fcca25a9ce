package report

import (
	"fmt"
	"time"

	"law-reports-backend/internal/models"
)

type Week struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// MonthBounds returns the first and last day of the month.
func MonthBounds(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, -1)
}

// ClampToToday caps end at today's date.
func ClampToToday(end, now time.Time) time.Time {
	today := models.Day(now)
	if models.Day(end).After(today) {
		return today
	}
	return end
}

// WeeksForMonth splits a month into reporting weeks. Week 1 runs from the 1st
// through the first Sunday; later weeks run Monday to Sunday, the last one
// cut at month end.
func WeeksForMonth(year int, month time.Month) []Week {
	start, last := MonthBounds(year, month)

	toSunday := (7 - int(start.Weekday())) % 7
	end := minDay(start.AddDate(0, 0, toSunday), last)
	weeks := []Week{{Label: "Week 1", Start: start, End: end}}

	for n, s := 2, end.AddDate(0, 0, 1); !s.After(last); n++ {
		e := minDay(s.AddDate(0, 0, 6), last)
		weeks = append(weeks, Week{Label: fmt.Sprintf("Week %d", n), Start: s, End: e})
		s = e.AddDate(0, 0, 1)
	}
	return weeks
}

func minDay(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
