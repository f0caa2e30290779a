package config

import (
	"errors"
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	cfg, err := New(nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.Location != DefaultLocation {
		t.Errorf("Location = %q, want %q", cfg.Location, DefaultLocation)
	}
	if cfg.LookaheadDays != DefaultLookahead {
		t.Errorf("LookaheadDays = %d, want %d", cfg.LookaheadDays, DefaultLookahead)
	}
	if cfg.SourcePrefix != DefaultSourcePrefix {
		t.Errorf("SourcePrefix = %q, want %q", cfg.SourcePrefix, DefaultSourcePrefix)
	}
	if cfg.SessionFile != DefaultSessionFile {
		t.Errorf("SessionFile = %q, want %q", cfg.SessionFile, DefaultSessionFile)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, DefaultTimeout)
	}
	if cfg.DryRun || cfg.CheckOnly || cfg.SkipDuplicateCheck {
		t.Error("boolean modes should default to false")
	}
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv("GIGCLIP_URL", "https://staging.lml.live/")
	t.Setenv("GIGCLIP_LOCATION", "castlemaine")
	t.Setenv("GIGCLIP_LOOKAHEAD", "7")

	cfg, err := New(nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Trailing slash is trimmed so URL joins stay predictable
	if cfg.BaseURL != "https://staging.lml.live" {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, "https://staging.lml.live")
	}
	if cfg.Location != "castlemaine" {
		t.Errorf("Location = %q, want %q", cfg.Location, "castlemaine")
	}
	if cfg.LookaheadDays != 7 {
		t.Errorf("LookaheadDays = %d, want 7", cfg.LookaheadDays)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			BaseURL:       DefaultBaseURL,
			Location:      DefaultLocation,
			LookaheadDays: 14,
			SourcePrefix:  DefaultSourcePrefix,
			CSVPath:       "gigs.csv",
			Timeout:       DefaultTimeout,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing base URL",
			mutate:  func(c *Config) { c.BaseURL = "" },
			wantErr: true,
		},
		{
			name:    "malformed base URL",
			mutate:  func(c *Config) { c.BaseURL = "not a url" },
			wantErr: true,
		},
		{
			name:    "missing location",
			mutate:  func(c *Config) { c.Location = "" },
			wantErr: true,
		},
		{
			name:    "negative lookahead",
			mutate:  func(c *Config) { c.LookaheadDays = -1 },
			wantErr: true,
		},
		{
			name:    "missing csv path",
			mutate:  func(c *Config) { c.CSVPath = "" },
			wantErr: true,
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Timeout = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error should wrap ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestSourceLabel(t *testing.T) {
	now := time.Date(2026, time.August, 23, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "generated from prefix and date",
			cfg:  Config{SourcePrefix: "Gig Guide"},
			want: "Gig Guide - 2026-08-23",
		},
		{
			name: "explicit source overrides",
			cfg:  Config{Source: "Manual catch-up batch", SourcePrefix: "Gig Guide"},
			want: "Manual catch-up batch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.SourceLabel(now); got != tt.want {
				t.Errorf("SourceLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}
