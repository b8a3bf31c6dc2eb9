package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical calendar-day format used for API dates,
// frame file names and published keys.
const DateLayout = "2006-01-02"

// CaseRecord is one notified case.
type CaseRecord struct {
	Date       time.Time
	RegionCode string
	RegionName string
}

// ParseDate parses a calendar day in any of the given layouts, falling back
// to DateLayout, and returns it at UTC midnight.
func ParseDate(s string, layouts ...string) (time.Time, error) {
	s = strings.TrimSpace(s)
	layouts = append(layouts[:len(layouts):len(layouts)], DateLayout)
	var firstErr error
	for _, l := range layouts {
		t, err := time.Parse(l, s)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, fmt.Errorf("parse date %q: %w", s, firstErr)
}
