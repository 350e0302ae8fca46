package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aluiziolira/fapool/models"
)

//go:embed roster.yaml
var defaultRoster []byte

// Roster is the static segment registry and ordered job list for a run.
type Roster struct {
	Season   int             `yaml:"season"`
	Segments models.Registry `yaml:"segments"`
	Jobs     []models.Job    `yaml:"jobs"`
}

// LoadRoster reads a YAML roster from path, or the built-in roster when path
// is empty.
func LoadRoster(path string) (*Roster, error) {
	data := defaultRoster
	source := "built-in roster"
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read roster %s: %w", path, err)
		}
		data = raw
		source = path
	}
	r, err := ParseRoster(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return r, nil
}

// ParseRoster decodes and validates a YAML roster document.
func ParseRoster(data []byte) (*Roster, error) {
	var r Roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate rejects rosters that would produce ambiguous or unbuildable jobs.
func (r *Roster) Validate() error {
	if r.Season <= 0 {
		return fmt.Errorf("season must be positive")
	}
	if len(r.Jobs) == 0 {
		return fmt.Errorf("roster has no jobs")
	}

	seen := make(map[string]struct{}, len(r.Jobs))
	for i, job := range r.Jobs {
		if job.Output == "" {
			return fmt.Errorf("job %d: output name cannot be empty", i)
		}
		if strings.ContainsAny(job.Output, `/\`) || job.Output == "." || job.Output == ".." {
			return fmt.Errorf("job %d: output name %q is not a plain file name", i, job.Output)
		}
		if _, dup := seen[job.Output]; dup {
			return fmt.Errorf("job %d: duplicate output name %q", i, job.Output)
		}
		seen[job.Output] = struct{}{}

		if _, ok := r.Segments.Lookup(job.Segment); !ok {
			return fmt.Errorf("job %s: unknown segment %q", job.Output, job.Segment)
		}
		if !job.Stats.Valid() {
			return fmt.Errorf("job %s: stats must be bat or pit, got %q", job.Output, job.Stats)
		}
		if _, ok := job.Split.MonthCode(); !ok {
			return fmt.Errorf("job %s: split must be all, vs_left, or vs_right, got %q", job.Output, job.Split)
		}
	}
	return nil
}
