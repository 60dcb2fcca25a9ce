package normalizer

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"law-reports-backend/internal/config"
)

// Roster canonicalizes people names against an allow-list.
// Lookups are case-insensitive and ignore repeated whitespace.
type Roster struct {
	allowed    map[string]string // folded -> spelling as configured
	aliases    map[string]string // folded -> canonical
	initials   map[string]string // upper-case initials -> canonical
	categories map[string]string // folded canonical -> category
}

func NewRoster(cfg config.RosterConfig) *Roster {
	r := &Roster{
		allowed:    make(map[string]string, len(cfg.Allowed)),
		aliases:    make(map[string]string, len(cfg.Aliases)),
		initials:   make(map[string]string, len(cfg.Initials)),
		categories: make(map[string]string, len(cfg.Categories)),
	}
	for _, n := range cfg.Allowed {
		r.allowed[r.key(n)] = collapse(n)
	}
	for from, to := range cfg.Aliases {
		r.aliases[r.key(from)] = collapse(to)
	}
	for ini, full := range cfg.Initials {
		r.initials[strings.ToUpper(strings.TrimSpace(ini))] = collapse(full)
	}
	for name, cat := range cfg.Categories {
		r.categories[r.key(name)] = strings.TrimSpace(cat)
	}
	return r
}

var nonUpper = regexp.MustCompile(`[^A-Z]`)

// Canonical returns the canonical name for raw, or false when raw is not on the roster.
func (r *Roster) Canonical(raw string) (string, bool) {
	k := r.key(raw)
	if k == "" {
		return "", false
	}
	if to, ok := r.aliases[k]; ok {
		return to, true
	}
	if name, ok := r.allowed[k]; ok {
		return name, true
	}
	return "", false
}

// CanonicalInitials resolves "CW" or "c.w." style tokens, falling back to Canonical.
func (r *Roster) CanonicalInitials(raw string) (string, bool) {
	if token := nonUpper.ReplaceAllString(strings.ToUpper(raw), ""); token != "" && len(token) <= 4 {
		if full, ok := r.initials[token]; ok {
			return r.Canonical(full)
		}
	}
	return r.Canonical(raw)
}

// Names lists the canonical spellings on the roster, sorted.
func (r *Roster) Names() []string {
	seen := make(map[string]bool, len(r.allowed))
	for _, n := range r.allowed {
		seen[n] = true
	}
	for _, n := range r.aliases {
		seen[n] = true
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Category returns the category of a canonical name.
func (r *Roster) Category(name string) (string, bool) {
	c, ok := r.categories[r.key(name)]
	return c, ok && c != ""
}

func (r *Roster) key(s string) string {
	// Casers hold state, so each lookup gets its own.
	return cases.Fold().String(collapse(s))
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
