package models

import "time"

// Row is one player's statistical line keyed by provider field name.
type Row map[string]any

// NormalizeStatus distinguishes a real row set from a shape mismatch.
type NormalizeStatus string

const (
	StatusRows        NormalizeStatus = "rows"
	StatusSchemaDrift NormalizeStatus = "schema_drift"
)

// Normalized is the result of converting a provider payload into rows.
// A schema drift result always carries zero rows.
type Normalized struct {
	Status NormalizeStatus
	Rows   []Row
}

// Drifted reports whether the payload no longer matched the expected shape.
func (n Normalized) Drifted() bool {
	return n.Status == StatusSchemaDrift
}

// FailurePolicy decides what the runner does after a job fails.
type FailurePolicy string

const (
	// HaltOnFailure stops at the first failed job.
	HaltOnFailure FailurePolicy = "halt"
	// ContinueOnFailure records the failure and moves on.
	ContinueOnFailure FailurePolicy = "continue"
)

// JobStatus is the terminal state of a job.
type JobStatus string

const (
	JobSucceeded JobStatus = "success"
	JobFailed    JobStatus = "failed"
)

// JobOutcome records how a single job ended.
type JobOutcome struct {
	Job         Job
	Status      JobStatus
	Rows        int
	SchemaDrift bool
	Path        string
	Duration    time.Duration
	Err         error
}

// RunResult holds the overall result of a run.
type RunResult struct {
	Outcomes  []JobOutcome
	StartTime time.Time
	EndTime   time.Time
}

// Succeeded counts successful jobs.
func (r *RunResult) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == JobSucceeded {
			n++
		}
	}
	return n
}

// Failed returns the failed outcomes in run order.
func (r *RunResult) Failed() []JobOutcome {
	var out []JobOutcome
	for _, o := range r.Outcomes {
		if o.Status == JobFailed {
			out = append(out, o)
		}
	}
	return out
}

// TotalRows sums rows written across successful jobs.
func (r *RunResult) TotalRows() int {
	n := 0
	for _, o := range r.Outcomes {
		n += o.Rows
	}
	return n
}
