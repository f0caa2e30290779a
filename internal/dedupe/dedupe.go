// Package dedupe flags listing records that already appear in the
// live gig guide.
//
// Detection is fuzzy on purpose: two listings count as the same gig
// when they share a venue, fall on the same date, and one name
// contains the other after normalization (lowercased, punctuation
// collapsed to spaces). That catches "The Amplifiers" against
// "the amplifiers (album launch)" without needing exact titles.
//
// Example usage:
//
//	existing, err := client.QueryGigs("melbourne", from, to)
//	if err != nil {
//		return err
//	}
//	det := dedupe.NewDetector(existing)
//	for _, r := range records {
//		if matches := det.Match(r); len(matches) > 0 {
//			r.Duplicate = true
//		}
//	}
package dedupe

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gigclip/gigclip/internal/gig"
	"github.com/gigclip/gigclip/internal/lml"
)

// ErrEmptyWindow means no record carries a usable date, so there is
// no range to query existing gigs over. Callers treat it as "skip
// detection", not as a fatal error.
var ErrEmptyWindow = errors.New("no records with a valid date")

var nonAlphanumeric = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Normalize prepares a gig name for comparison: lowercase, every run
// of non-alphanumeric characters collapsed to a single space, outer
// whitespace trimmed.
func Normalize(name string) string {
	collapsed := nonAlphanumeric.ReplaceAllString(strings.ToLower(name), " ")
	return strings.TrimSpace(collapsed)
}

// Window returns the inclusive date range covering every valid record
// date, extended past the latest by lookaheadDays. Records without a
// parsed date are ignored; if none remain, ErrEmptyWindow is returned.
func Window(records []*gig.Record, lookaheadDays int) (time.Time, time.Time, error) {
	var from, to time.Time
	for _, r := range records {
		if !r.HasValidDate() {
			continue
		}
		if from.IsZero() || r.Date.Before(from) {
			from = r.Date
		}
		if to.IsZero() || r.Date.After(to) {
			to = r.Date
		}
	}
	if from.IsZero() {
		return time.Time{}, time.Time{}, ErrEmptyWindow
	}
	return from, to.AddDate(0, 0, lookaheadDays), nil
}

// Detector matches records against a snapshot of existing gigs.
type Detector struct {
	existing []lml.ExistingGig
}

// NewDetector creates a detector over the given existing gigs.
func NewDetector(existing []lml.ExistingGig) *Detector {
	return &Detector{existing: existing}
}

// Match returns every existing gig that looks like the same event as
// the record: same venue ID, same date, and one normalized name
// containing the other.
func (d *Detector) Match(r *gig.Record) []lml.ExistingGig {
	venueID := strings.TrimSpace(r.VenueID)
	date := r.DateISO()
	name := Normalize(r.Name)

	var matches []lml.ExistingGig
	for _, g := range d.existing {
		if strings.TrimSpace(g.Venue.ID) != venueID {
			continue
		}
		if strings.TrimSpace(g.Date) != date {
			continue
		}
		existingName := Normalize(g.Name)
		if strings.Contains(existingName, name) || strings.Contains(name, existingName) {
			matches = append(matches, g)
		}
	}
	return matches
}

// StatusText renders the row annotation for a suspected duplicate,
// listing the names of the matching gigs.
func StatusText(matches []lml.ExistingGig, date string) string {
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.Name
	}
	return fmt.Sprintf("Suspected Duplicate: %s on %s", strings.Join(names, "; "), date)
}
