package profile

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01",
	"2006/01/02",
	"2006/01",
	"01/2006",
	"1/2006",
	"Jan 2006",
	"January 2006",
	"2006",
}

var ongoing = map[string]struct{}{"present": {}, "current": {}, "now": {}, "ongoing": {}}

func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// yearsBetween counts calendar years from start to end (end year minus
// start year). Unparseable dates contribute nothing.
func yearsBetween(start, end string, current bool, now time.Time) float64 {
	from, ok := parseDate(start)
	if !ok {
		return 0
	}

	to := now
	if _, stillThere := ongoing[strings.ToLower(strings.TrimSpace(end))]; !current && !stillThere {
		parsed, ok := parseDate(end)
		if !ok {
			return 0
		}
		to = parsed
	}

	years := to.Year() - from.Year()
	if years < 0 {
		return 0
	}
	return float64(years)
}
