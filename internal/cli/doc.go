// Package cli implements the command-line interface for gigclip.
//
// The cli package provides the Cobra-based CLI that drives a full upload run:
// loading the CSV sheet, checking the live guide for duplicates, formatting
// the clipper payload, submitting it, and writing per-row feedback. It also
// manages the stored session credential and formats the run summary as text
// or JSON.
package cli
