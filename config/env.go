package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aluiziolira/fapool/models"
)

// EnvString returns a trimmed, non-empty environment value.
func EnvString(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return "", false
	}
	return v, true
}

// EnvInt parses an integer environment value. ok is false when unset.
func EnvInt(key string) (int, bool, error) {
	v, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return n, true, nil
}

// ApplyEnv overlays FAPOOL_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	if v, ok := EnvString("FAPOOL_API_URL"); ok {
		cfg.APIURL = v
	}
	if v, ok := EnvString("FAPOOL_PAGE_URL"); ok {
		cfg.PageURL = v
	}
	if v, ok := EnvString("FAPOOL_MODE"); ok {
		cfg.Mode = models.Mode(strings.ToLower(v))
	}
	if v, ok := EnvString("FAPOOL_ROSTER"); ok {
		cfg.RosterFile = v
	}
	if v, ok := EnvString("FAPOOL_OUTPUT_DIR"); ok {
		cfg.OutputDir = v
	}
	if v, ok := EnvString("FAPOOL_METRICS_ADDR"); ok {
		cfg.MetricsAddr = v
	}
	if v, ok := EnvString("FAPOOL_FAILURE_POLICY"); ok {
		cfg.FailurePolicy = models.FailurePolicy(strings.ToLower(v))
	}

	season, ok, err := EnvInt("FAPOOL_SEASON")
	if err != nil {
		return err
	} else if ok {
		cfg.Season = season
	}
	delayMs, ok, err := EnvInt("FAPOOL_JOB_DELAY_MS")
	if err != nil {
		return err
	} else if ok {
		cfg.JobDelay = time.Duration(delayMs) * time.Millisecond
		cfg.HTMLJobDelay = cfg.JobDelay
	}
	attempts, ok, err := EnvInt("FAPOOL_HTML_ATTEMPTS")
	if err != nil {
		return err
	} else if ok {
		cfg.HTMLRetry.MaxAttempts = attempts
	}
	return nil
}
