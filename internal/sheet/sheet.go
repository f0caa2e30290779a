package sheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/gigclip/gigclip/internal/gig"
)

// Recognized column names in normalized form.
const (
	ColVenueID             = "venue_id"
	ColDate                = "date"
	ColTime                = "time"
	ColName                = "name"
	ColTickets             = "tickets"
	ColInternalDescription = "internal_description"
	ColVenue               = "venue"
	ColStatus              = "status"
	ColInformation         = "information"

	ColUploadStatus = "upload_status"
	ColUploadID     = "upload_id"
	ColUploadError  = "upload_error"
)

var recognized = buildRecognized()

func buildRecognized() map[string]bool {
	cols := map[string]bool{
		ColVenueID:             true,
		ColDate:                true,
		ColTime:                true,
		ColName:                true,
		ColTickets:             true,
		ColInternalDescription: true,
		ColVenue:               true,
		ColStatus:              true,
		ColInformation:         true,
		ColUploadStatus:        true,
		ColUploadID:            true,
		ColUploadError:         true,
	}
	for n := 1; n <= gig.MaxSets; n++ {
		cols[fmt.Sprintf("set_%d", n)] = true
		cols[fmt.Sprintf("set%d", n)] = true
	}
	for n := 1; n <= gig.MaxPrices; n++ {
		cols[fmt.Sprintf("price_%d", n)] = true
		cols[fmt.Sprintf("price%d", n)] = true
	}
	for n := 1; n <= gig.MaxGenres; n++ {
		cols[fmt.Sprintf("genre_%d", n)] = true
		cols[fmt.Sprintf("genre%d", n)] = true
	}
	return cols
}

// Sheet is a loaded CSV gig sheet. Data rows are addressed 1-based, matching
// gig.Record.Row.
type Sheet struct {
	path   string
	header []string
	rows   [][]string
	index  map[string]int
}

// NormalizeColumn maps a header cell to its canonical column name:
// lowercased, trimmed, spaces replaced with underscores.
func NormalizeColumn(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// Load reads a CSV sheet from path. The first row must be the header.
func Load(path string) (*Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sheet: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing sheet: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("sheet %s has no header row", path)
	}

	header := records[0]
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[NormalizeColumn(h)] = i
	}

	rows := records[1:]
	for i := range rows {
		for len(rows[i]) < len(header) {
			rows[i] = append(rows[i], "")
		}
	}

	return &Sheet{
		path:   path,
		header: header,
		rows:   rows,
		index:  index,
	}, nil
}

// Len returns the number of data rows, blank rows included.
func (s *Sheet) Len() int {
	return len(s.rows)
}

// Display returns the cell value as entered, or "" for unknown columns and
// out-of-range rows.
func (s *Sheet) Display(row int, column string) string {
	col, ok := s.index[column]
	if !ok {
		return ""
	}
	if row < 1 || row > len(s.rows) {
		return ""
	}
	cells := s.rows[row-1]
	if col >= len(cells) {
		return ""
	}
	return cells[col]
}

// Value returns the trimmed cell value.
func (s *Sheet) Value(row int, column string) string {
	return strings.TrimSpace(s.Display(row, column))
}

// slotValue reads numbered slot columns, accepting "set_1" and "set1" forms.
func (s *Sheet) slotValue(row int, prefix string, n int) string {
	if v := s.Value(row, fmt.Sprintf("%s_%d", prefix, n)); v != "" {
		return v
	}
	return s.Value(row, fmt.Sprintf("%s%d", prefix, n))
}

// isBlank reports whether a data row has no content outside the feedback
// columns.
func (s *Sheet) isBlank(row int) bool {
	cells := s.rows[row-1]
	for i, h := range s.header {
		norm := NormalizeColumn(h)
		if norm == ColUploadStatus || norm == ColUploadID || norm == ColUploadError {
			continue
		}
		if i < len(cells) && strings.TrimSpace(cells[i]) != "" {
			return false
		}
	}
	return true
}

// Records builds gig records from the data rows in order. Blank rows are
// skipped; their row numbers are never handed out, so they receive no
// feedback.
func (s *Sheet) Records() ([]*gig.Record, error) {
	records := make([]*gig.Record, 0, len(s.rows))

	for i := range s.rows {
		row := i + 1
		if s.isBlank(row) {
			continue
		}

		dateRaw := s.Value(row, ColDate)
		rec := &gig.Record{
			Row:                 row,
			VenueID:             s.Value(row, ColVenueID),
			Name:                s.Value(row, ColName),
			Date:                gig.ParseDate(dateRaw),
			DateRaw:             dateRaw,
			TimeRaw:             s.Value(row, ColTime),
			Tickets:             s.Value(row, ColTickets),
			InternalDescription: s.Value(row, ColInternalDescription),
			VenueName:           s.Value(row, ColVenue),
			Status:              s.Value(row, ColStatus),
			Information:         s.Value(row, ColInformation),
		}

		for n := 1; n <= gig.MaxSets; n++ {
			rec.Sets[n-1] = s.slotValue(row, "set", n)
		}
		for n := 1; n <= gig.MaxPrices; n++ {
			rec.Prices[n-1] = s.slotValue(row, "price", n)
		}
		for n := 1; n <= gig.MaxGenres; n++ {
			rec.Genres[n-1] = s.slotValue(row, "genre", n)
		}

		rec.Extras = s.extras(row)
		records = append(records, rec)
	}

	return records, nil
}

// extras collects unrecognized columns as pass-through fields in source
// column order.
func (s *Sheet) extras(row int) []gig.Field {
	cells := s.rows[row-1]

	var extras []gig.Field
	for i, h := range s.header {
		norm := NormalizeColumn(h)
		if norm == "" || recognized[norm] {
			continue
		}
		if i >= len(cells) {
			continue
		}
		value := strings.TrimSpace(cells[i])
		if value == "" {
			continue
		}
		extras = append(extras, gig.Field{Key: norm, Value: value})
	}
	return extras
}

// ensureFeedbackColumns appends any missing feedback columns to the header.
func (s *Sheet) ensureFeedbackColumns() {
	for _, col := range []string{ColUploadStatus, ColUploadID, ColUploadError} {
		if _, ok := s.index[col]; ok {
			continue
		}
		s.index[col] = len(s.header)
		s.header = append(s.header, col)
	}
}

func (s *Sheet) setCell(row int, column, value string) {
	col := s.index[column]
	cells := s.rows[row-1]
	for len(cells) <= col {
		cells = append(cells, "")
	}
	cells[col] = value
	s.rows[row-1] = cells
}

// SetFeedback writes the status, upload id, and error cells for a data row.
// Later writes overwrite earlier ones.
func (s *Sheet) SetFeedback(row int, status, uploadID, errText string) {
	if row < 1 || row > len(s.rows) {
		return
	}
	s.ensureFeedbackColumns()
	s.setCell(row, ColUploadStatus, status)
	s.setCell(row, ColUploadID, uploadID)
	s.setCell(row, ColUploadError, errText)
}

// ClearFeedback blanks the feedback columns for every data row.
func (s *Sheet) ClearFeedback() {
	s.ensureFeedbackColumns()
	for row := 1; row <= len(s.rows); row++ {
		s.setCell(row, ColUploadStatus, "")
		s.setCell(row, ColUploadID, "")
		s.setCell(row, ColUploadError, "")
	}
}

// Save writes the sheet back to its file, keeping rows rectangular.
func (s *Sheet) Save() error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(s.header); err != nil {
		return fmt.Errorf("encoding header: %w", err)
	}
	for _, cells := range s.rows {
		row := cells
		for len(row) < len(s.header) {
			row = append(row, "")
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("encoding row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encoding sheet: %w", err)
	}

	if err := os.WriteFile(s.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing sheet: %w", err)
	}
	return nil
}
