// Package sheet provides the CSV-backed row store for gig listings.
//
// The first row of the file is the header. Header names are matched
// case-insensitively, trimmed, with spaces treated as underscores, so
// "Venue ID" and "venue_id" address the same column. Recognized columns map
// onto gig.Record fields; any other column passes through as an extra
// key/value pair. Three dedicated feedback columns (upload_status, upload_id,
// upload_error) are written back by the pipeline and appended to the header
// when missing.
package sheet
