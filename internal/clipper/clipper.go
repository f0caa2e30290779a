package clipper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gigclip/gigclip/internal/gig"
)

// Terminator ends every serialized block.
const Terminator = "---"

// FieldError reports a record that cannot be serialized. Row is the 1-based
// source row when known.
type FieldError struct {
	Row    int
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
	}
	return e.Reason
}

// Validate checks that a record carries the fields required by the import
// format: a venue id, a valid calendar date, and a name, checked in that
// order.
func Validate(rec *gig.Record) error {
	if rec.VenueID == "" {
		return &FieldError{Row: rec.Row, Field: "venue_id", Reason: "venue id is required"}
	}
	if rec.DateRaw == "" {
		return &FieldError{Row: rec.Row, Field: "date", Reason: "date is required"}
	}
	if !rec.HasValidDate() {
		return &FieldError{Row: rec.Row, Field: "date", Reason: fmt.Sprintf("date %q is not a valid calendar date", rec.DateRaw)}
	}
	if rec.Name == "" {
		return &FieldError{Row: rec.Row, Field: "name", Reason: "name is required"}
	}
	return nil
}

// Serialize renders one record as a clipper block. The record is validated
// first.
func Serialize(rec *gig.Record) (string, error) {
	if err := Validate(rec); err != nil {
		return "", err
	}

	var b strings.Builder
	writeField := func(key, value string) {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\n")
	}

	writeField("venue_id", rec.VenueID)
	if rec.Tickets != "" {
		writeField("tickets", rec.Tickets)
	}
	writeField("date", rec.DateISO())
	if rec.TimeRaw != "" {
		writeField("time", timeValue(rec.TimeRaw))
	}
	writeField("name", rec.Name)
	if rec.InternalDescription != "" {
		writeField("internal_description", rec.InternalDescription)
	}
	if rec.VenueName != "" {
		writeField("venue", rec.VenueName)
	}
	if rec.Status != "" {
		writeField("status", rec.Status)
	}
	writeField("information", rec.Information)

	for _, f := range rec.Extras {
		writeField(f.Key, f.Value)
	}

	for _, set := range rec.Sets {
		if set != "" {
			writeField("set", set)
		}
	}
	for _, price := range rec.Prices {
		if price != "" {
			writeField("price", "| "+price)
		}
	}
	for _, genre := range rec.Genres {
		if genre != "" {
			writeField("genre", genre)
		}
	}

	b.WriteString(Terminator)
	return b.String(), nil
}

// timeValue normalizes a parseable time-of-day to HH:MM:SS and passes
// anything else through as entered.
func timeValue(raw string) string {
	if normalized, ok := gig.ParseTime(raw); ok {
		return normalized
	}
	return raw
}

// Aggregate serializes records in input order and joins the blocks with
// newlines. The first invalid record aborts the whole batch; no partial
// payload is returned.
func Aggregate(records []*gig.Record) (string, error) {
	blocks := make([]string, 0, len(records))

	for i, rec := range records {
		block, err := Serialize(rec)
		if err != nil {
			var fieldErr *FieldError
			if errors.As(err, &fieldErr) && fieldErr.Row == 0 {
				fieldErr.Row = i + 1
			}
			return "", err
		}
		blocks = append(blocks, block)
	}

	return strings.Join(blocks, "\n"), nil
}
