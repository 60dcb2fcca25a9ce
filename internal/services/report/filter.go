// Package report filters, aggregates and exports stored records.
package report

import (
	"strings"
	"time"

	"github.com/samber/lo"

	"law-reports-backend/internal/apperr"
	"law-reports-backend/internal/models"
)

// Filter narrows records before aggregation. From and To accept a period key
// ("2024-01") or a date ("2024-01-15"); empty means unbounded.
type Filter struct {
	From       string   `form:"from" json:"from,omitempty"`
	To         string   `form:"to" json:"to,omitempty"`
	Categories []string `form:"category" json:"categories,omitempty"`
	Names      []string `form:"name" json:"names,omitempty"`
}

type bound struct {
	period string
	date   *time.Time
}

func parseBound(s string) (bound, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return bound{}, nil
	}
	if t, err := time.Parse(models.DateLayout, s); err == nil {
		return bound{period: models.PeriodKey(t), date: &t}, nil
	}
	if t, err := time.Parse("2006-01", s); err == nil {
		return bound{period: models.PeriodKey(t)}, nil
	}
	return bound{}, apperr.Validation("invalid filter bound %q: want YYYY-MM or YYYY-MM-DD", s)
}

type compiled struct {
	from, to   bound
	categories map[string]struct{}
	names      map[string]struct{}
}

func (f Filter) compile() (compiled, error) {
	var c compiled
	var err error
	if c.from, err = parseBound(f.From); err != nil {
		return c, err
	}
	if c.to, err = parseBound(f.To); err != nil {
		return c, err
	}
	if c.from.period != "" && c.to.period != "" && c.from.period > c.to.period {
		return c, apperr.Validation("filter range %s..%s is reversed", f.From, f.To)
	}
	c.categories = keySet(f.Categories)
	c.names = keySet(f.Names)
	return c, nil
}

func keySet(values []string) map[string]struct{} {
	values = lo.Compact(lo.Map(values, func(v string, _ int) string {
		return strings.ToLower(strings.TrimSpace(v))
	}))
	if len(values) == 0 {
		return nil
	}
	return lo.SliceToMap(values, func(v string) (string, struct{}) { return v, struct{}{} })
}

func (c compiled) match(r models.Record) bool {
	if c.from.period != "" && r.Period < c.from.period {
		return false
	}
	if c.to.period != "" && r.Period > c.to.period {
		return false
	}
	// Day bounds only apply to records that carry a date.
	if r.RecordDate != nil {
		d := models.Day(*r.RecordDate)
		if c.from.date != nil && d.Before(*c.from.date) {
			return false
		}
		if c.to.date != nil && d.After(*c.to.date) {
			return false
		}
	}
	if c.categories != nil {
		if _, ok := c.categories[strings.ToLower(r.Category)]; !ok {
			return false
		}
	}
	if c.names != nil {
		if _, ok := c.names[strings.ToLower(r.Name)]; !ok {
			return false
		}
	}
	return true
}

// Apply returns the records matching f, in their original order.
func Apply(records []models.Record, f Filter) ([]models.Record, error) {
	c, err := f.compile()
	if err != nil {
		return nil, err
	}
	return lo.Filter(records, func(r models.Record, _ int) bool { return c.match(r) }), nil
}
