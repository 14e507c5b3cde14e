package service

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// parseDate parses a YYYY-MM-DD string into a midnight-UTC time.
func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}

// parseOptionalDate returns nil for the empty string.
func parseOptionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := parseDate(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}

// today truncates now to midnight UTC so date comparisons ignore clock time.
func today() time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysInclusive counts calendar days in the closed [start, end] interval.
// Same-day rentals count as one day.
func daysInclusive(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}

// addMonths shifts a date by whole months, normalizing overflow the way
// time.AddDate does (Jan 31 + 1 month lands on Mar 2 or 3).
func addMonths(t time.Time, months int) time.Time {
	return t.AddDate(0, months, 0)
}
