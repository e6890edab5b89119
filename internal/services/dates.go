package services

import (
	"strings"
	"time"
)

const apiDate = "2006-01-02"

var dateLayouts = []string{apiDate, "02/01/2006", "2006/01/02", time.RFC3339}

// parseDate reads the date formats the client sends. ok is false for empty
// or unparseable input.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// apiDateOf normalises s to YYYY-MM-DD, or "" when it is not a date.
func apiDateOf(s string) string {
	t, ok := parseDate(s)
	if !ok {
		return ""
	}
	return t.Format(apiDate)
}
