package normalizer

import (
	"regexp"
	"strings"

	"github.com/samber/lo"

	"law-reports-backend/internal/models"
)

// Field keys for conversion reports. Calls fields use the models column names.
const (
	fieldName      = "Name"
	fieldDate      = "Date"
	fieldStage     = "Stage"
	fieldSubStatus = "Sub Status"
	fieldOutcome   = "Outcome"
)

// field lists the normalized header spellings that map to one canonical column.
// Tokens is a looser fallback: a header containing every token matches.
type field struct {
	Canonical string
	Synonyms  []string
	Tokens    []string
}

type rosterKind int

const (
	staffRoster rosterKind = iota
	attorneyRoster
)

// completion decides Completed for a conversion row from the outcome cell.
type completion func(outcome string) bool

// schema describes how one report's uploads are read.
type schema struct {
	fields   []field
	required []string
	roster   rosterKind
	initials bool
	// dated reports drop rows whose date lies outside the upload period
	dated     bool
	completed completion
}

var schemas = map[models.Report]schema{
	models.ReportCalls: {
		fields: []field{
			{Canonical: models.ColName, Synonyms: []string{"name", "user name", "username", "display name"}},
			{Canonical: models.ColTotalCalls, Synonyms: []string{"total calls", "calls total", "total number of calls", "total call count", "total"}},
			{Canonical: models.ColCompletedCalls, Synonyms: []string{"completed calls", "completed", "answered calls", "handled calls", "calls answered"}},
			{Canonical: models.ColOutgoing, Synonyms: []string{"outgoing", "outgoing calls", "outbound", "outbound calls"}},
			{Canonical: models.ColReceived, Synonyms: []string{"received", "incoming", "incoming calls"}},
			{Canonical: models.ColVoicemail, Synonyms: []string{"forwarded to voicemail", "to voicemail", "voicemail forwarded", "voicemail"}},
			{Canonical: models.ColAnsweredByOther, Synonyms: []string{"answered by other", "answered by others", "answered by other member", "answered by other user", "answered by other extension"}},
			{Canonical: models.ColMissed, Synonyms: []string{"missed", "missed calls", "abandoned", "ring no answer"}},
			{Canonical: models.ColAvgCallTime, Synonyms: []string{"avg call time", "average call time", "avg call duration", "average call duration", "avg talk time", "average talk time", "duration"}},
			{Canonical: models.ColTotalCallTime, Synonyms: []string{"total call time", "total call duration", "total talk time"}},
			{Canonical: models.ColTotalHoldTime, Synonyms: []string{"total hold time", "hold time total", "total on hold"}},
		},
		required: []string{models.ColName, models.ColTotalCalls, models.ColCompletedCalls, models.ColAvgCallTime},
		roster:   staffRoster,
	},
	models.ReportLeads: {
		fields: []field{
			{Canonical: fieldName, Synonyms: []string{"assigned intake specialist", "intake specialist", "intake"}},
			{Canonical: fieldDate, Synonyms: []string{"create date", "created date", "date created", "created", "lead date"}},
			{Canonical: fieldStage, Synonyms: []string{"stage", "status"}},
			{Canonical: fieldOutcome, Synonyms: []string{"initial consultation with pji law", "initial consultation", "ic date"}},
		},
		required:  []string{fieldName, fieldStage},
		roster:    staffRoster,
		completed: nonBlank,
	},
	models.ReportInitial: {
		fields: []field{
			{Canonical: fieldName, Synonyms: []string{"lead attorney", "attorney"}},
			{Canonical: fieldDate, Synonyms: []string{"initial consultation with pji law", "initial consultation", "ic date"}},
			{Canonical: fieldSubStatus, Synonyms: []string{"sub status", "substatus"}},
			{Canonical: fieldOutcome, Synonyms: []string{"reason for rescheduling"}, Tokens: []string{"reason"}},
		},
		required:  []string{fieldName, fieldDate},
		roster:    attorneyRoster,
		dated:     true,
		completed: blank,
	},
	models.ReportDiscovery: {
		fields: []field{
			{Canonical: fieldName, Synonyms: []string{"lead attorney", "attorney"}},
			{Canonical: fieldDate, Synonyms: []string{"discovery meeting with pji law", "discovery meeting", "dm date"}},
			{Canonical: fieldSubStatus, Synonyms: []string{"sub status", "substatus"}},
			{Canonical: fieldOutcome, Synonyms: []string{"reason for rescheduling"}, Tokens: []string{"reason"}},
		},
		required:  []string{fieldName, fieldDate},
		roster:    attorneyRoster,
		dated:     true,
		completed: blank,
	},
	models.ReportClients: {
		fields: []field{
			{Canonical: fieldName, Synonyms: []string{"responsible attorney", "attorney"}, Tokens: []string{"responsible", "attorney"}},
			{Canonical: fieldDate, Synonyms: []string{"date we had both the signed cla and full payment"}, Tokens: []string{"date", "signed", "payment"}},
			{Canonical: fieldOutcome, Synonyms: []string{"retained with consult yn", "retained with consult"}, Tokens: []string{"retained"}},
		},
		required:  []string{fieldName, fieldDate},
		roster:    attorneyRoster,
		initials:  true,
		dated:     true,
		completed: notNo,
	},
}

func nonBlank(v string) bool { return strings.TrimSpace(v) != "" }

func blank(v string) bool { return strings.TrimSpace(v) == "" }

func notNo(v string) bool { return !strings.EqualFold(strings.TrimSpace(v), "n") }

// split call-count columns summed into Received and Outgoing
var (
	splitIncoming = []string{"incoming internal", "incoming external"}
	splitOutgoing = []string{"outgoing internal", "outgoing external"}
)

var (
	wsUnderscore = regexp.MustCompile(`[\s_]+`)
	nonAlnum     = regexp.MustCompile(`[^a-z0-9 ]`)
)

// normalizeHeader lowercases, collapses whitespace and underscores, and strips punctuation.
func normalizeHeader(h string) string {
	s := wsUnderscore.ReplaceAllString(strings.ToLower(strings.TrimSpace(h)), " ")
	return strings.TrimSpace(nonAlnum.ReplaceAllString(s, ""))
}

// columnMapping is resolved once per upload: canonical column -> header index.
type columnMapping struct {
	index    map[string]int
	incoming []int
	outgoing []int
}

func mapColumns(s schema, header []string) columnMapping {
	norm := make([]string, len(header))
	for i, h := range header {
		norm[i] = normalizeHeader(h)
	}

	m := columnMapping{index: make(map[string]int, len(s.fields))}
	used := make(map[int]bool, len(header))

	// exact synonyms first so token fallbacks never steal an exact match
	for _, f := range s.fields {
		for _, syn := range f.Synonyms {
			if i := find(norm, used, func(n string) bool { return n == syn }); i >= 0 {
				m.index[f.Canonical] = i
				used[i] = true
				break
			}
		}
	}
	for _, f := range s.fields {
		if _, ok := m.index[f.Canonical]; ok || len(f.Tokens) == 0 {
			continue
		}
		if i := find(norm, used, func(n string) bool { return containsAll(n, f.Tokens) }); i >= 0 {
			m.index[f.Canonical] = i
			used[i] = true
		}
	}

	for i, n := range norm {
		if used[i] {
			continue
		}
		switch {
		case lo.Contains(splitIncoming, n):
			m.incoming = append(m.incoming, i)
		case lo.Contains(splitOutgoing, n):
			m.outgoing = append(m.outgoing, i)
		}
	}
	return m
}

// missing lists required columns that were not resolved.
func (m columnMapping) missing(required []string) []string {
	var out []string
	for _, c := range required {
		if _, ok := m.index[c]; ok {
			continue
		}
		if c == models.ColReceived && len(m.incoming) > 0 {
			continue
		}
		if c == models.ColOutgoing && len(m.outgoing) > 0 {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (m columnMapping) cell(row []string, canonical string) string {
	i, ok := m.index[canonical]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (m columnMapping) has(canonical string) bool {
	_, ok := m.index[canonical]
	return ok
}

func find(norm []string, used map[int]bool, match func(string) bool) int {
	for i, n := range norm {
		if !used[i] && match(n) {
			return i
		}
	}
	return -1
}

func containsAll(s string, tokens []string) bool {
	return lo.EveryBy(tokens, func(t string) bool { return strings.Contains(s, t) })
}
