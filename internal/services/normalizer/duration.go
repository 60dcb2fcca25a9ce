package normalizer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// "0 days 00:05:00" and "1 day, 2:03:04" as written by spreadsheet exports
	daysClock = regexp.MustCompile(`^(\d+)\s*days?,?\s+(.+)$`)
	unitSpan  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([a-z]+)`)
)

// Spans past this are treated as garbage rather than wrapped into a negative int.
const maxDurationSeconds = math.MaxInt32

var unitSeconds = map[string]float64{
	"d": 86400, "day": 86400, "days": 86400,
	"h": 3600, "hr": 3600, "hrs": 3600, "hour": 3600, "hours": 3600,
	"m": 60, "min": 60, "mins": 60, "minute": 60, "minutes": 60,
	"s": 1, "sec": 1, "secs": 1, "second": 1, "seconds": 1,
}

// ParseDuration converts a free-text time span to whole seconds.
// Accepted: "", "90", "1.5", "5:30", "1:02:03", "0 days 00:05:00", "12m 34s", "2h 3m 4s", "1.5 min".
// Bare numbers are seconds. Blank is zero.
func ParseDuration(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "nan" || s == "-" {
		return 0, nil
	}

	var days float64
	if m := daysClock.FindStringSubmatch(s); m != nil {
		days, _ = strconv.ParseFloat(m[1], 64)
		s = strings.TrimSpace(m[2])
	}

	secs, err := parseSpan(s)
	if err != nil {
		return 0, fmt.Errorf("unparsable duration %q", s)
	}
	total := days*86400 + secs
	if total < 0 || math.IsNaN(total) || math.IsInf(total, 0) || total > maxDurationSeconds {
		return 0, fmt.Errorf("unparsable duration %q", s)
	}
	return int(math.Round(total)), nil
}

func parseSpan(s string) (float64, error) {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	}
	if strings.Contains(s, ":") {
		return parseClock(s)
	}
	return parseUnits(s)
}

// parseClock reads H:MM:SS or M:SS; fractional seconds are allowed.
func parseClock(s string) (float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("bad clock %q", s)
	}
	var total float64
	for i, p := range parts {
		p = strings.TrimSpace(p)
		var (
			v   float64
			err error
		)
		if i == len(parts)-1 {
			v, err = strconv.ParseFloat(p, 64)
		} else {
			var n int
			n, err = strconv.Atoi(p)
			v = float64(n)
		}
		if err != nil || v < 0 {
			return 0, fmt.Errorf("bad clock %q", s)
		}
		total = total*60 + v
	}
	return total, nil
}

func parseUnits(s string) (float64, error) {
	matches := unitSpan.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("no units in %q", s)
	}

	var total float64
	consumed := 0
	for _, m := range matches {
		// only whitespace or commas may separate the spans
		if strings.Trim(s[consumed:m[0]], " ,") != "" {
			return 0, fmt.Errorf("unexpected text in %q", s)
		}
		n, err := strconv.ParseFloat(s[m[2]:m[3]], 64)
		if err != nil {
			return 0, err
		}
		mult, ok := unitSeconds[s[m[4]:m[5]]]
		if !ok {
			return 0, fmt.Errorf("unknown unit %q", s[m[4]:m[5]])
		}
		total += n * mult
		consumed = m[1]
	}
	if strings.TrimSpace(s[consumed:]) != "" {
		return 0, fmt.Errorf("unexpected text in %q", s)
	}
	return total, nil
}
