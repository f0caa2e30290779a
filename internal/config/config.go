// Package config builds the consolidated run configuration from defaults,
// an optional gigclip.yaml file, GIGCLIP_* environment variables, and
// command-line flags, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrInvalidConfig is wrapped by all validation failures.
var ErrInvalidConfig = errors.New("invalid configuration")

const envPrefix = "GIGCLIP"

// Defaults for the remote content system and the upload batch.
const (
	DefaultBaseURL      = "https://api.lml.live"
	DefaultLocation     = "melbourne"
	DefaultLookahead    = 14
	DefaultSourcePrefix = "Gig Guide"
	DefaultSessionFile  = ".lml_session_id"
	DefaultTimeout      = 30 * time.Second
)

// Config holds everything a pipeline run needs. It is assembled once in the
// CLI layer and passed down; no package performs its own lookups.
type Config struct {
	// BaseURL is the root of the remote content system, no trailing slash.
	BaseURL string
	// Location is the read API location filter for duplicate queries.
	Location string
	// LookaheadDays extends the duplicate query window past the latest
	// input date.
	LookaheadDays int
	// Source, when set, overrides the generated source label entirely.
	Source string
	// SourcePrefix is the fixed prefix of the generated source label.
	SourcePrefix string
	// Session is the raw _lml_session cookie value. When empty it is
	// loaded from SessionFile.
	Session string
	// SessionFile is the path of the stored session credential.
	SessionFile string
	// SessionKey is the optional passphrase for an encrypted SessionFile.
	SessionKey string
	// CSVPath is the tabular row source.
	CSVPath string
	// Timeout bounds each HTTP request.
	Timeout time.Duration

	DryRun             bool
	CheckOnly          bool
	SkipDuplicateCheck bool
}

// New assembles a Config. When flags is non-nil, set flags take precedence
// over environment variables and the config file.
func New(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("url", DefaultBaseURL)
	v.SetDefault("location", DefaultLocation)
	v.SetDefault("lookahead", DefaultLookahead)
	v.SetDefault("source", "")
	v.SetDefault("source_prefix", DefaultSourcePrefix)
	v.SetDefault("session", "")
	v.SetDefault("session_file", DefaultSessionFile)
	v.SetDefault("session_key", "")
	v.SetDefault("csv", "")
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("dry_run", false)
	v.SetDefault("check_only", false)
	v.SetDefault("skip_duplicate_check", false)

	// Optional gigclip.yaml alongside the sheet; absence is not an error
	v.SetConfigName("gigclip")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if flags != nil {
		bindings := map[string]string{
			"url":                  "url",
			"location":             "location",
			"lookahead":            "lookahead",
			"source":               "source",
			"source_prefix":        "source-prefix",
			"session":              "session",
			"session_file":         "session-file",
			"session_key":          "session-key",
			"csv":                  "csv",
			"timeout":              "timeout",
			"dry_run":              "dry-run",
			"check_only":           "check-only",
			"skip_duplicate_check": "skip-duplicate-check",
		}
		for key, flagName := range bindings {
			if f := flags.Lookup(flagName); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", flagName, err)
				}
			}
		}
	}

	return &Config{
		BaseURL:            strings.TrimRight(strings.TrimSpace(v.GetString("url")), "/"),
		Location:           strings.TrimSpace(v.GetString("location")),
		LookaheadDays:      v.GetInt("lookahead"),
		Source:             strings.TrimSpace(v.GetString("source")),
		SourcePrefix:       strings.TrimSpace(v.GetString("source_prefix")),
		Session:            strings.TrimSpace(v.GetString("session")),
		SessionFile:        v.GetString("session_file"),
		SessionKey:         v.GetString("session_key"),
		CSVPath:            v.GetString("csv"),
		Timeout:            v.GetDuration("timeout"),
		DryRun:             v.GetBool("dry_run"),
		CheckOnly:          v.GetBool("check_only"),
		SkipDuplicateCheck: v.GetBool("skip_duplicate_check"),
	}, nil
}

// Validate checks that the configuration can drive a pipeline run.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL is required", ErrInvalidConfig)
	}
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return fmt.Errorf("%w: base URL %q is not a valid URL", ErrInvalidConfig, c.BaseURL)
	}
	if c.Location == "" {
		return fmt.Errorf("%w: location is required", ErrInvalidConfig)
	}
	if c.LookaheadDays < 0 {
		return fmt.Errorf("%w: lookahead days must not be negative", ErrInvalidConfig)
	}
	if c.CSVPath == "" {
		return fmt.Errorf("%w: csv path is required (--csv or GIGCLIP_CSV)", ErrInvalidConfig)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// SourceLabel returns the label recorded against the upload: the explicit
// Source override when set, otherwise "<prefix> - <date>" for the given day.
func (c *Config) SourceLabel(now time.Time) string {
	if c.Source != "" {
		return c.Source
	}
	return fmt.Sprintf("%s - %s", c.SourcePrefix, now.Format("2006-01-02"))
}
