package gig

import "time"

// Slot limits for the repeated clipper fields.
const (
	MaxSets   = 6
	MaxPrices = 2
	MaxGenres = 4
)

// Field is a pass-through key/value pair from an unmodeled sheet column.
type Field struct {
	Key   string
	Value string
}

// Record represents a single gig listing row.
type Record struct {
	// Row is the 1-based data row number in the source sheet.
	Row int

	VenueID string
	Name    string

	// Date is the parsed gig date; zero when DateRaw could not be parsed.
	Date    time.Time
	DateRaw string

	// TimeRaw is the time-of-day display text; empty when absent.
	TimeRaw string

	Tickets             string
	InternalDescription string
	VenueName           string
	Status              string

	// Information is always serialized, even when empty.
	Information string

	Sets   [MaxSets]string
	Prices [MaxPrices]string
	Genres [MaxGenres]string

	// Extras are pass-through fields in source column order.
	Extras []Field

	// Duplicate marks the record as a suspected duplicate of an existing
	// remote gig. Duplicate records are excluded from the upload batch.
	Duplicate bool
}

// HasValidDate reports whether the record carries a parseable calendar date.
func (r *Record) HasValidDate() bool {
	return !r.Date.IsZero()
}

// DateISO returns the record date as YYYY-MM-DD, or "" when the date is
// missing or unparseable.
func (r *Record) DateISO() string {
	if r.Date.IsZero() {
		return ""
	}
	return r.Date.Format("2006-01-02")
}
