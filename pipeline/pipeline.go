// Package pipeline runs the job list: build, fetch, normalize, persist.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/aluiziolira/fapool/models"
	"github.com/aluiziolira/fapool/parser"
	"github.com/aluiziolira/fapool/scraper"
)

// Fetcher retrieves the raw body for a descriptor.
type Fetcher interface {
	Fetch(ctx context.Context, d models.Descriptor) ([]byte, error)
}

// Options tunes a Runner.
type Options struct {
	// JobDelay is the minimum spacing between the starts of successive jobs.
	JobDelay time.Duration
	Policy   models.FailurePolicy
	Metrics  *scraper.Metrics
}

// Runner executes jobs one at a time in list order.
type Runner struct {
	builder    *scraper.Builder
	fetcher    Fetcher
	normalizer parser.Normalizer
	writer     ArtifactWriter
	pacer      *rate.Limiter
	policy     models.FailurePolicy
	metrics    *scraper.Metrics
}

// NewRunner wires the stages together.
func NewRunner(builder *scraper.Builder, fetcher Fetcher, normalizer parser.Normalizer, writer ArtifactWriter, opts Options) *Runner {
	limit := rate.Inf
	if opts.JobDelay > 0 {
		limit = rate.Every(opts.JobDelay)
	}
	policy := opts.Policy
	if policy == "" {
		policy = models.HaltOnFailure
	}
	return &Runner{
		builder:    builder,
		fetcher:    fetcher,
		normalizer: normalizer,
		writer:     writer,
		pacer:      rate.NewLimiter(limit, 1),
		policy:     policy,
		metrics:    opts.Metrics,
	}
}

// Run processes jobs in order. Under HaltOnFailure it stops at the first
// failed job; under ContinueOnFailure it runs every job. Either way the
// returned result lists the outcome of each attempted job, and the error
// joins every failure.
func (r *Runner) Run(ctx context.Context, jobs []models.Job) (*models.RunResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	result := &models.RunResult{StartTime: time.Now()}
	var errs []error

	for _, job := range jobs {
		if err := r.pacer.Wait(ctx); err != nil {
			errs = append(errs, fmt.Errorf("pace job %s: %w", job.Output, err))
			break
		}

		outcome := r.runJob(ctx, job)
		result.Outcomes = append(result.Outcomes, outcome)
		r.metrics.IncJob(string(outcome.Status))

		if outcome.Err != nil {
			slog.Error("job failed",
				slog.String("output", job.Output),
				slog.Duration("duration", outcome.Duration),
				slog.Any("error", outcome.Err),
			)
			errs = append(errs, fmt.Errorf("job %s: %w", job.Output, outcome.Err))
			if r.policy == models.ContinueOnFailure && ctx.Err() == nil {
				continue
			}
			break
		}

		slog.Info("saved artifact",
			slog.String("output", job.Output),
			slog.Int("rows", outcome.Rows),
			slog.Bool("schema_drift", outcome.SchemaDrift),
			slog.String("path", outcome.Path),
		)
	}

	result.EndTime = time.Now()
	return result, errors.Join(errs...)
}

func (r *Runner) runJob(ctx context.Context, job models.Job) models.JobOutcome {
	start := time.Now()
	outcome := models.JobOutcome{Job: job, Status: models.JobFailed}
	finish := func(err error) models.JobOutcome {
		outcome.Duration = time.Since(start)
		outcome.Err = err
		if err == nil {
			outcome.Status = models.JobSucceeded
		}
		return outcome
	}

	descriptor, err := r.builder.BuildJob(job)
	if err != nil {
		return finish(fmt.Errorf("build request: %w", err))
	}
	normalized, err := r.collect(ctx, job, descriptor)
	if err != nil {
		return finish(err)
	}
	if normalized.Drifted() {
		r.metrics.IncSchemaDrift()
		outcome.SchemaDrift = true
		slog.Warn("response shape did not match, writing empty artifact",
			slog.String("output", job.Output),
			slog.String("mode", string(descriptor.Mode)),
		)
	}

	path, err := r.writer.WriteArtifact(job.Output, normalized.Rows)
	if err != nil {
		return finish(fmt.Errorf("write artifact: %w", err))
	}
	outcome.Path = path
	outcome.Rows = len(normalized.Rows)
	r.metrics.AddRows(outcome.Rows)
	return finish(nil)
}

// collect fetches and normalizes one job's rows. A segment with no players
// yields zero rows without contacting the provider.
func (r *Runner) collect(ctx context.Context, job models.Job, descriptor models.Descriptor) (models.Normalized, error) {
	if descriptor.Empty {
		slog.Info("segment has no players, skipping fetch",
			slog.String("output", job.Output),
			slog.String("segment", job.Segment),
		)
		return models.Normalized{Status: models.StatusRows, Rows: []models.Row{}}, nil
	}

	slog.Debug("fetching", slog.String("output", job.Output), slog.String("mode", string(descriptor.Mode)))
	body, err := r.fetcher.Fetch(ctx, descriptor)
	if err != nil {
		return models.Normalized{}, err
	}

	normalized, err := r.normalizer.Normalize(body)
	if err != nil {
		return models.Normalized{}, fmt.Errorf("normalize: %w", err)
	}
	return normalized, nil
}
