package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aluiziolira/fapool/config"
	"github.com/aluiziolira/fapool/models"
	"github.com/aluiziolira/fapool/parser"
	"github.com/aluiziolira/fapool/pipeline"
	"github.com/aluiziolira/fapool/scraper"
)

// errJobsFailed marks a run whose failures were already reported.
var errJobsFailed = errors.New("one or more jobs failed")

func runCmd(cfg *config.Config) *cobra.Command {
	var (
		mode            string
		htmlAttempts    int
		jobDelay        time.Duration
		continueOnError bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch every job in the roster and write its artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := models.ParseMode(strings.ToLower(mode))
			if err != nil {
				return err
			}
			cfg.Mode = parsed
			cfg.OutputFormat = strings.ToLower(cfg.OutputFormat)
			if cmd.Flags().Changed("job-delay") {
				cfg.JobDelay = jobDelay
				cfg.HTMLJobDelay = jobDelay
			}
			if cmd.Flags().Changed("html-attempts") {
				cfg.HTMLRetry.MaxAttempts = htmlAttempts
			}
			if continueOnError {
				cfg.FailurePolicy = models.ContinueOnFailure
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return runJobs(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&mode, "mode", string(cfg.Mode), "Fetch mode: json or html")
	flags.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "Output directory for artifacts")
	flags.StringVar(&cfg.OutputFormat, "format", cfg.OutputFormat, "Output format: json, csv, or dual")
	flags.IntVar(&cfg.Season, "season", cfg.Season, "Season year (default: the roster's season)")
	flags.DurationVar(&jobDelay, "job-delay", cfg.Pace(cfg.Mode), "Minimum spacing between job starts (html mode defaults to 1s)")
	flags.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Per-request timeout")
	flags.IntVar(&htmlAttempts, "html-attempts", cfg.HTMLRetry.MaxAttempts, "Attempts per request in html mode")
	flags.BoolVar(&continueOnError, "continue-on-error", cfg.FailurePolicy == models.ContinueOnFailure, "Keep running after a job fails")
	flags.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	return cmd
}

func runJobs(parent context.Context, cfg *config.Config) error {
	roster, err := config.LoadRoster(cfg.RosterFile)
	if err != nil {
		return err
	}
	season := roster.Season
	if cfg.Season > 0 {
		season = cfg.Season
	}

	metrics := scraper.NewMetrics()
	fetcher, err := scraper.NewFetcher(cfg, metrics)
	if err != nil {
		return fmt.Errorf("initialising fetcher: %w", err)
	}
	normalizer, err := parser.ForMode(cfg.Mode)
	if err != nil {
		return err
	}
	writer, err := pipeline.NewArtifactWriter(cfg.OutputFormat, cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("creating writer: %w", err)
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		server := &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown failed", slog.Any("error", err))
			}
		}()
	}

	slog.Info("starting run",
		slog.String("mode", string(cfg.Mode)),
		slog.Int("season", season),
		slog.Int("jobs", len(roster.Jobs)),
		slog.String("output_dir", cfg.OutputDir),
		slog.String("failure_policy", string(cfg.FailurePolicy)),
	)

	builder := scraper.NewBuilder(cfg.Mode, season, cfg.PageURL, roster.Segments)
	runner := pipeline.NewRunner(builder, fetcher, normalizer, writer, pipeline.Options{
		JobDelay: cfg.Pace(cfg.Mode),
		Policy:   cfg.FailurePolicy,
		Metrics:  metrics,
	})

	result, runErr := runner.Run(ctx, roster.Jobs)
	printSummary(os.Stdout, result, len(roster.Jobs))
	if runErr != nil {
		slog.Error("run finished with failures", slog.Any("error", runErr))
		return errJobsFailed
	}
	return nil
}
