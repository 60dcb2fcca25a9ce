package models

// Dimension is a grouping key for aggregation.
type Dimension string

const (
	DimPeriod   Dimension = "period"
	DimCategory Dimension = "category"
	DimName     Dimension = "name"
)

func ParseDimension(s string) (Dimension, bool) {
	switch Dimension(s) {
	case DimPeriod, DimCategory, DimName:
		return Dimension(s), true
	}
	return "", false
}

// AggregateRow is derived on demand from records and never persisted.
type AggregateRow struct {
	Period   string `json:"period,omitempty"`
	Category string `json:"category,omitempty"`
	Name     string `json:"name,omitempty"`
	Records  int    `json:"records"`

	Total           int `json:"total"`
	Completed       int `json:"completed"`
	Outgoing        int `json:"outgoing"`
	Received        int `json:"received"`
	Voicemail       int `json:"voicemail"`
	AnsweredByOther int `json:"answered_by_other"`
	Missed          int `json:"missed"`

	TotalSeconds int     `json:"total_seconds"`
	HoldSeconds  int     `json:"hold_seconds"`
	AvgSeconds   float64 `json:"avg_seconds"`

	// CompletionPct is completed/total*100, zero when total is zero.
	CompletionPct float64 `json:"completion_pct"`
}
