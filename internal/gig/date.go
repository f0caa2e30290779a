package gig

import (
	"strings"
	"time"
)

// ParseDate attempts to parse a sheet date cell into a time.Time.
// Returns time.Time{} (zero value) if parsing fails.
// Day-first forms are assumed for slash dates, matching the gig guide sheets.
// Supports formats: "2026-08-29", "29/08/2026", "29/8/26", "29 Aug 2026",
// "Saturday 29 August 2026" and ISO datetimes as exported by spreadsheets.
func ParseDate(text string) time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}
	}

	// Try ISO date first
	t, err := time.Parse("2006-01-02", text)
	if err == nil {
		return t
	}

	// Try ISO datetime forms from spreadsheet exports, keeping the date part
	t, err = time.Parse("2006-01-02T15:04:05", text)
	if err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	t, err = time.Parse("2006-01-02 15:04:05", text)
	if err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}

	// Try day-first slash formats
	t, err = time.Parse("02/01/2006", text)
	if err == nil {
		return t
	}
	t, err = time.Parse("2/1/2006", text)
	if err == nil {
		return t
	}
	t, err = time.Parse("2/1/06", text)
	if err == nil {
		return t
	}

	// Try written-out forms
	t, err = time.Parse("2 Jan 2006", text)
	if err == nil {
		return t
	}
	t, err = time.Parse("2 January 2006", text)
	if err == nil {
		return t
	}
	t, err = time.Parse("Monday 2 January 2006", text)
	if err == nil {
		return t
	}

	// Could not parse, return zero time
	return time.Time{}
}

// ParseTime attempts to parse a time-of-day cell and reports whether it
// succeeded. On success the value is normalized to HH:MM:SS.
func ParseTime(text string) (string, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(text))
	if cleaned == "" {
		return "", false
	}

	layouts := []string{
		"15:04:05",
		"15:04",
		"3:04pm",
		"3:04 pm",
		"3pm",
		"3 pm",
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t.Format("15:04:05"), true
		}
	}

	return "", false
}
