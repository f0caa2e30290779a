package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gigclip/gigclip/internal/pipeline"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// WriteOutput writes the run summary in the specified format
func WriteOutput(w io.Writer, summary *pipeline.Summary, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, summary)
	case FormatText:
		return writeText(w, summary, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs the summary as JSON
func writeJSON(w io.Writer, summary *pipeline.Summary) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(summary)
}

// writeText outputs the summary as human-readable text
func writeText(w io.Writer, summary *pipeline.Summary, verbose bool) error {
	if summary.DetectionSkipped {
		fmt.Fprintln(w, "Duplicate detection skipped.")
	}
	if summary.Duplicates > 0 {
		fmt.Fprintf(w, "Suspected duplicates: %d of %d rows (see the sheet's upload_status column).\n",
			summary.Duplicates, summary.RowsRead)
	}

	if summary.Included == 0 {
		fmt.Fprintln(w, "Nothing to upload.")
		return nil
	}

	if summary.DryRun {
		fmt.Fprintf(w, "Dry run: %d rows would be uploaded as %q.\n\n", summary.Included, summary.SourceLabel)
		fmt.Fprintln(w, summary.Payload)
		return nil
	}
	if summary.CheckOnly {
		fmt.Fprintf(w, "Check passed: %d rows ready to upload.\n", summary.Included)
		return nil
	}

	if summary.Result != nil && summary.Result.Success {
		if summary.Result.UploadID != "" {
			fmt.Fprintf(w, "Uploaded %d rows as %q (upload %s).\n",
				summary.Included, summary.SourceLabel, summary.Result.UploadID)
		} else {
			fmt.Fprintf(w, "Uploaded %d rows as %q.\n", summary.Included, summary.SourceLabel)
		}
	} else if summary.Result != nil {
		fmt.Fprintf(w, "Upload failed: %s\n", summary.Result.Error)
	}

	if verbose {
		fmt.Fprintf(w, "\nRows read: %d (blank rows skipped: %d)\n", summary.RowsRead, summary.BlankRows)
	}

	return nil
}
