package repository

import "time"

// parseDateColumn recovers a date from an aggregate column scanned as text.
// Postgres casts a date to plain "2006-01-02"; sqlite hands back the full
// stored timestamp, so only the date prefix is parsed.
func parseDateColumn(value string) *time.Time {
	if len(value) < 10 {
		return nil
	}
	d, err := time.Parse("2006-01-02", value[:10])
	if err != nil {
		return nil
	}
	return &d
}
