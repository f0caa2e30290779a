// Package gig provides the gig listing record type and parsing helpers.
//
// A Record carries one row of the gig sheet on its way to the remote content
// system: the venue, date, name and descriptive fields, the capped set/price/
// genre slots, and any pass-through columns. Records keep their 1-based
// source row number so feedback can be written back to the right row.
package gig
