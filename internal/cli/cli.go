package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gigclip/gigclip/internal/config"
	"github.com/gigclip/gigclip/internal/lml"
	"github.com/gigclip/gigclip/internal/logger"
	"github.com/gigclip/gigclip/internal/pipeline"
	"github.com/gigclip/gigclip/internal/session"
	"github.com/gigclip/gigclip/internal/sheet"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess         = 0
	ExitError           = 1
	ExitNothingToUpload = 2
)

var (
	flagFormat  string
	flagVerbose bool
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gigclip",
		Short: "Push gig listings from a CSV sheet to the live gig guide",
		Long: `gigclip reads gig listings from a CSV sheet, flags rows that already
appear in the live guide, formats the rest as one clipper bulk import, and
submits the batch through the admin upload form. The outcome is written back
to each row's upload_status, upload_id and upload_error columns.`,
		RunE: runUpload,
	}

	cmd.Flags().String("csv", "", "Path of the CSV gig sheet (or env: GIGCLIP_CSV)")
	cmd.Flags().String("url", config.DefaultBaseURL, "Base URL of the content system")
	cmd.Flags().String("location", config.DefaultLocation, "Location filter for the duplicate query")
	cmd.Flags().Int("lookahead", config.DefaultLookahead, "Days past the latest listing date covered by the duplicate query")
	cmd.Flags().String("source", "", "Full source label for the upload (overrides --source-prefix)")
	cmd.Flags().String("source-prefix", config.DefaultSourcePrefix, "Prefix of the generated source label")
	cmd.Flags().String("session", "", "Session cookie value (overrides --session-file)")
	cmd.Flags().String("session-file", config.DefaultSessionFile, "File holding the session cookie")
	cmd.Flags().String("session-key", "", "Passphrase for an encrypted session file")
	cmd.Flags().Duration("timeout", config.DefaultTimeout, "HTTP request timeout")
	cmd.Flags().Bool("dry-run", false, "Print the clipper payload instead of uploading")
	cmd.Flags().Bool("check-only", false, "Run duplicate detection and validation without uploading")
	cmd.Flags().Bool("skip-duplicate-check", false, "Skip the duplicate query against the live guide")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging")

	cmd.AddCommand(newSessionCmd())

	return cmd
}

// runUpload is the main command logic
func runUpload(cmd *cobra.Command, args []string) error {
	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}

	level := logger.LevelInfo
	if flagVerbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, os.Stderr))

	cfg, err := config.New(cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	sht, err := sheet.Load(cfg.CSVPath)
	if err != nil {
		return fmt.Errorf("loading sheet: %w", err)
	}

	client := lml.NewClient(cfg.BaseURL, cfg.Timeout)

	// Dry-run and check-only stop before submission, so they need no
	// session credential at all.
	var uploader pipeline.Submitter
	if !cfg.DryRun && !cfg.CheckOnly {
		sess := cfg.Session
		if sess == "" {
			sess, err = session.Load(cfg.SessionFile, cfg.SessionKey)
			if err != nil {
				return err
			}
		}
		up, err := lml.NewUploader(cfg.BaseURL, sess, cfg.Timeout)
		if err != nil {
			return fmt.Errorf("initializing uploader: %w", err)
		}
		uploader = up
	}

	summary, err := pipeline.New(cfg, sht, sht, client, uploader).Run()
	if err != nil {
		return err
	}

	if err := WriteOutput(os.Stdout, summary, format, flagVerbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if flagVerbose {
		logger.Debug("run metrics", logger.Fields(logger.GetMetricsSnapshot()))
	}

	os.Exit(exitCode(summary))
	return nil
}

// exitCode maps a run summary onto the process exit code.
func exitCode(s *pipeline.Summary) int {
	if s.Result != nil && !s.Result.Success {
		return ExitError
	}
	if s.Included == 0 {
		return ExitNothingToUpload
	}
	return ExitSuccess
}

// newSessionCmd creates the session management command
func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage the stored session credential",
	}
	cmd.AddCommand(newSessionImportCmd())
	return cmd
}

// newSessionImportCmd creates the session import command
func newSessionImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Read a session cookie value from stdin and store it",
		Long: `Reads an _lml_session cookie value from stdin and writes it to the
session file. With --session-key the stored value is encrypted.

Example:
  pbpaste | gigclip session import
  gigclip session import --session-key "$GIGCLIP_SESSION_KEY" < cookie.txt`,
		RunE: runSessionImport,
	}
	cmd.Flags().String("session-file", config.DefaultSessionFile, "File to write the session cookie to")
	cmd.Flags().String("session-key", "", "Passphrase to encrypt the stored cookie")
	return cmd
}

// runSessionImport reads one cookie value from stdin and persists it.
func runSessionImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.New(cmd.Flags())
	if err != nil {
		return err
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("reading cookie from stdin: %w", err)
	}
	value := strings.TrimSpace(line)
	if value == "" {
		return fmt.Errorf("no cookie value on stdin")
	}

	if err := session.Save(cfg.SessionFile, value, cfg.SessionKey); err != nil {
		return err
	}

	fmt.Printf("Session saved to %s\n", cfg.SessionFile)
	return nil
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
