package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/aluiziolira/fapool/models"
)

// RetryPolicy bounds the attempts made for a single request.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Factor      float64
	MaxDelay    time.Duration
}

// Config holds fetcher configuration.
type Config struct {
	APIURL        string
	PageURL       string
	Referer       string
	Mode          models.Mode
	Season        int // 0 keeps the roster's season
	RosterFile    string
	OutputDir     string
	OutputFormat  string // json, csv, or dual
	Timeout       time.Duration
	JobDelay      time.Duration // json mode
	HTMLJobDelay  time.Duration
	JSONRetry     RetryPolicy
	HTMLRetry     RetryPolicy
	FailurePolicy models.FailurePolicy
	UserAgent     string
	MetricsAddr   string
	Verbose       bool
}

// DefaultConfig returns the settings the dashboard job runs with.
func DefaultConfig() *Config {
	return &Config{
		APIURL:       "https://www.fangraphs.com/api/leaders/major-league/data",
		PageURL:      "https://www.fangraphs.com/leaders/major-league",
		Referer:      "https://www.fangraphs.com/leaders/major-league",
		Mode:         models.ModeJSON,
		OutputDir:    "data/fa",
		OutputFormat: "json",
		Timeout:      60 * time.Second,
		JobDelay:     1200 * time.Millisecond,
		HTMLJobDelay: time.Second,
		JSONRetry: RetryPolicy{
			MaxAttempts: 6,
			BaseDelay:   2 * time.Second,
			Factor:      1.8,
			MaxDelay:    20 * time.Second,
		},
		HTMLRetry: RetryPolicy{
			MaxAttempts: 1,
			BaseDelay:   2 * time.Second,
			Factor:      1.8,
			MaxDelay:    20 * time.Second,
		},
		FailurePolicy: models.HaltOnFailure,
		UserAgent:     "Mozilla/5.0 (CBL dashboard bot)",
	}
}

// Pace returns the spacing between job starts for the given mode.
func (c *Config) Pace(mode models.Mode) time.Duration {
	if mode == models.ModeHTML {
		return c.HTMLJobDelay
	}
	return c.JobDelay
}

// Retry returns the policy for the given mode.
func (c *Config) Retry(mode models.Mode) RetryPolicy {
	if mode == models.ModeHTML {
		return c.HTMLRetry
	}
	return c.JSONRetry
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if err := validateURL("api URL", c.APIURL); err != nil {
		return err
	}
	if err := validateURL("page URL", c.PageURL); err != nil {
		return err
	}
	if _, err := models.ParseMode(string(c.Mode)); err != nil {
		return err
	}
	if c.Season < 0 {
		return fmt.Errorf("season cannot be negative")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output dir cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.JobDelay < 0 {
		return fmt.Errorf("job delay cannot be negative")
	}
	if c.HTMLJobDelay < 0 {
		return fmt.Errorf("html job delay cannot be negative")
	}
	if err := c.JSONRetry.validate("json"); err != nil {
		return err
	}
	if err := c.HTMLRetry.validate("html"); err != nil {
		return err
	}
	if c.FailurePolicy != models.HaltOnFailure && c.FailurePolicy != models.ContinueOnFailure {
		return fmt.Errorf("failure policy must be halt or continue")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	return nil
}

func (p RetryPolicy) validate(mode string) error {
	if p.MaxAttempts <= 0 {
		return fmt.Errorf("%s retry: max attempts must be positive", mode)
	}
	if p.BaseDelay < 0 {
		return fmt.Errorf("%s retry: base delay cannot be negative", mode)
	}
	if p.Factor < 1 {
		return fmt.Errorf("%s retry: backoff factor must be at least 1", mode)
	}
	if p.MaxDelay < 0 {
		return fmt.Errorf("%s retry: max delay cannot be negative", mode)
	}
	if p.MaxDelay > 0 && p.BaseDelay > p.MaxDelay {
		return fmt.Errorf("%s retry: base delay (%s) cannot exceed max delay (%s)", mode, p.BaseDelay, p.MaxDelay)
	}
	return nil
}

func validateURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host", name)
	}
	return nil
}
