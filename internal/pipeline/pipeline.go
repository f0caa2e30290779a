// Package pipeline wires the sheet, duplicate detection, clipper
// formatting, and submission into one sequential run.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/gigclip/gigclip/internal/clipper"
	"github.com/gigclip/gigclip/internal/config"
	"github.com/gigclip/gigclip/internal/dedupe"
	"github.com/gigclip/gigclip/internal/gig"
	"github.com/gigclip/gigclip/internal/lml"
	"github.com/gigclip/gigclip/internal/logger"
)

// Row feedback statuses written back to the sheet.
const (
	StatusUploaded = "Uploaded"
	StatusFailed   = "Upload Failed"
	StatusError    = "Error"
)

// Source supplies listing records.
type Source interface {
	Records() ([]*gig.Record, error)
	Len() int
}

// Feedback receives per-row outcomes and persists them.
type Feedback interface {
	SetFeedback(row int, status, uploadID, errText string)
	ClearFeedback()
	Save() error
}

// GigFinder queries the live guide for existing gigs.
type GigFinder interface {
	QueryGigs(location string, from, to time.Time) ([]lml.ExistingGig, error)
}

// Submitter sends one aggregated payload upstream.
type Submitter interface {
	Upload(source, content string) (*lml.Result, error)
}

// Summary is the outcome of one run, shaped for the output layer.
// Result is nil until a submission response was interpreted.
type Summary struct {
	CheckedAt        time.Time   `json:"checked_at"`
	SourceLabel      string      `json:"source_label,omitempty"`
	RowsRead         int         `json:"rows_read"`
	BlankRows        int         `json:"blank_rows"`
	Duplicates       int         `json:"duplicates"`
	Included         int         `json:"included"`
	DetectionSkipped bool        `json:"detection_skipped,omitempty"`
	DryRun           bool        `json:"dry_run,omitempty"`
	CheckOnly        bool        `json:"check_only,omitempty"`
	Submitted        bool        `json:"submitted"`
	Result           *lml.Result `json:"result,omitempty"`
	Payload          string      `json:"payload,omitempty"`
}

// Pipeline runs the upload sequence end to end.
type Pipeline struct {
	cfg      *config.Config
	source   Source
	feedback Feedback
	finder   GigFinder
	uploader Submitter
}

// New assembles a pipeline. uploader may be nil for dry-run and
// check-only invocations, which stop before submission.
func New(cfg *config.Config, source Source, feedback Feedback, finder GigFinder, uploader Submitter) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		source:   source,
		feedback: feedback,
		finder:   finder,
		uploader: uploader,
	}
}

// Run executes the sequence: read records, clear old feedback, detect
// duplicates, format the payload, submit it, and fan the one result
// out to every included row. A failed upload is a normal outcome
// reported in the summary; an error return means the run could not
// complete.
func (p *Pipeline) Run() (*Summary, error) {
	summary := &Summary{
		CheckedAt: time.Now().UTC(),
		DryRun:    p.cfg.DryRun,
		CheckOnly: p.cfg.CheckOnly,
	}

	records, err := p.source.Records()
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	summary.RowsRead = len(records)
	summary.BlankRows = p.source.Len() - len(records)
	logger.SetGauge("rows.read", float64(len(records)))
	logger.Info("loaded listing records", logger.Fields{
		"rows":  summary.RowsRead,
		"blank": summary.BlankRows,
	})

	// Stale annotations from earlier runs go first, so anything left
	// on the sheet afterwards came from this run.
	p.feedback.ClearFeedback()
	if err := p.feedback.Save(); err != nil {
		return nil, fmt.Errorf("clearing feedback: %w", err)
	}

	if err := p.detectDuplicates(records, summary); err != nil {
		return nil, err
	}

	included := make([]*gig.Record, 0, len(records))
	for _, r := range records {
		if !r.Duplicate {
			included = append(included, r)
		}
	}
	summary.Included = len(included)

	if len(included) == 0 {
		logger.Info("nothing to upload", logger.Fields{
			"rows":       summary.RowsRead,
			"duplicates": summary.Duplicates,
		})
		return summary, nil
	}

	payload, err := clipper.Aggregate(included)
	if err != nil {
		var fieldErr *clipper.FieldError
		if errors.As(err, &fieldErr) && fieldErr.Row > 0 {
			p.feedback.SetFeedback(fieldErr.Row, StatusError, "", fieldErr.Error())
			if saveErr := p.feedback.Save(); saveErr != nil {
				logger.Error("failed to record formatting error", nil, saveErr)
			}
		}
		return nil, fmt.Errorf("formatting payload: %w", err)
	}

	summary.SourceLabel = p.cfg.SourceLabel(time.Now())

	if p.cfg.DryRun {
		summary.Payload = payload
		return summary, nil
	}
	if p.cfg.CheckOnly {
		return summary, nil
	}

	if p.uploader == nil {
		return nil, fmt.Errorf("no uploader configured")
	}

	logger.Info("submitting upload", logger.Fields{
		"source": summary.SourceLabel,
		"rows":   len(included),
	})
	start := time.Now()
	result, err := p.uploader.Upload(summary.SourceLabel, payload)
	logger.RecordTiming("upload.submit", time.Since(start))
	if err != nil {
		// Transport or auth failure: the batch outcome is unknown, so
		// no row feedback is written.
		return nil, fmt.Errorf("uploading batch: %w", err)
	}

	summary.Submitted = true
	summary.Result = result

	status := StatusUploaded
	errText := ""
	if !result.Success {
		status = StatusFailed
		errText = result.Error
	}
	for _, r := range included {
		p.feedback.SetFeedback(r.Row, status, result.UploadID, errText)
	}
	if err := p.feedback.Save(); err != nil {
		return nil, fmt.Errorf("saving feedback: %w", err)
	}

	if result.Success {
		logger.Info("upload accepted", logger.Fields{
			"upload_id": result.UploadID,
			"rows":      len(included),
		})
	} else {
		logger.Warn("upload rejected", logger.Fields{
			"error": result.Error,
		})
	}

	return summary, nil
}

// detectDuplicates queries the live guide over the records' date range
// and flags rows that already appear there. An empty window skips
// detection; an API failure aborts the run.
func (p *Pipeline) detectDuplicates(records []*gig.Record, summary *Summary) error {
	if p.cfg.SkipDuplicateCheck {
		summary.DetectionSkipped = true
		logger.Info("duplicate detection skipped", logger.Fields{"reason": "disabled"})
		return nil
	}

	from, to, err := dedupe.Window(records, p.cfg.LookaheadDays)
	if err != nil {
		if errors.Is(err, dedupe.ErrEmptyWindow) {
			summary.DetectionSkipped = true
			logger.Warn("duplicate detection skipped", logger.Fields{
				"reason": "no records with a valid date",
			})
			return nil
		}
		return fmt.Errorf("computing query window: %w", err)
	}

	start := time.Now()
	existing, err := p.finder.QueryGigs(p.cfg.Location, from, to)
	logger.RecordTiming("api.query", time.Since(start))
	if err != nil {
		return fmt.Errorf("querying existing gigs: %w", err)
	}
	logger.Info("queried existing gigs", logger.Fields{
		"location":  p.cfg.Location,
		"date_from": from.Format("2006-01-02"),
		"date_to":   to.Format("2006-01-02"),
		"count":     len(existing),
	})

	det := dedupe.NewDetector(existing)
	for _, r := range records {
		matches := det.Match(r)
		if len(matches) == 0 {
			continue
		}
		r.Duplicate = true
		summary.Duplicates++
		logger.IncrCounter("duplicates.found")
		p.feedback.SetFeedback(r.Row, dedupe.StatusText(matches, r.DateISO()), "", "")
		logger.Debug("suspected duplicate", logger.Fields{
			"row":  r.Row,
			"name": r.Name,
			"date": r.DateISO(),
		})
	}

	if summary.Duplicates > 0 {
		if err := p.feedback.Save(); err != nil {
			return fmt.Errorf("saving duplicate annotations: %w", err)
		}
	}
	return nil
}
