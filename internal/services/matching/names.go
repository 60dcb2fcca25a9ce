// Package matching scores free-text names against a roster so uploads with
// unlisted spellings can point at the roster entry they probably meant.
package matching

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

type Status string

const (
	StatusStrong      Status = "strong"
	StatusNeedsReview Status = "needs_review"
	StatusUnmatched   Status = "unmatched"
)

// Suggestion is the best roster candidate for a raw name.
type Suggestion struct {
	Raw       string  `json:"raw"`
	Candidate string  `json:"candidate,omitempty"`
	Score     float64 `json:"score"`
	Status    Status  `json:"status"`
}

// Suggest picks the highest scoring candidate. Ties go to the
// alphabetically first candidate so results are stable.
func Suggest(raw string, candidates []string) Suggestion {
	s := Suggestion{Raw: raw, Status: StatusUnmatched}
	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)

	for _, c := range sorted {
		if score := Similarity(raw, c); score > s.Score {
			s.Candidate, s.Score = c, score
		}
	}
	switch {
	case s.Score >= 95:
		s.Status = StatusStrong
	case s.Score >= 60:
		s.Status = StatusNeedsReview
	default:
		s.Candidate = ""
	}
	return s
}

// Similarity is a 0-100 score: word overlap against the candidate, with a
// bonus for a shared first name and a penalty for extra words in raw.
func Similarity(raw, candidate string) float64 {
	a := words(raw)
	b := words(candidate)
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	matches := 0
	used := make([]bool, len(b))
	for _, w := range a {
		for j, v := range b {
			if !used[j] && (w == v || initialOf(w, v) || initialOf(v, w)) {
				used[j] = true
				matches++
				break
			}
		}
	}
	score := float64(matches) / math.Max(float64(len(b)), 1) * 100
	if a[0] == b[0] {
		score += 5
	}
	if extra := len(a) - matches; extra > 0 {
		score -= 10 * float64(extra)
	}
	return math.Max(0, math.Min(100, score))
}

func words(name string) []string {
	n := strings.ToUpper(name)
	n = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			return r
		}
		if r == '-' {
			return ' '
		}
		return -1
	}, n)
	return strings.Fields(n)
}

// initialOf reports whether w is a single-letter initial of v.
func initialOf(w, v string) bool {
	return len(w) == 1 && strings.HasPrefix(v, w)
}
