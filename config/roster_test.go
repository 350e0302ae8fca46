package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aluiziolira/fapool/models"
)

func TestLoadRosterBuiltIn(t *testing.T) {
	r, err := LoadRoster("")
	if err != nil {
		t.Fatalf("load built-in roster: %v", err)
	}
	if r.Season != 2025 {
		t.Fatalf("season = %d, want 2025", r.Season)
	}
	if len(r.Segments) != 5 {
		t.Fatalf("segments = %d, want 5", len(r.Segments))
	}
	if len(r.Jobs) != 15 {
		t.Fatalf("jobs = %d, want 15", len(r.Jobs))
	}

	first := r.Jobs[0]
	want := models.Job{Output: "hit_am_bat_all", Segment: "hit_am", Stats: models.Batting, Split: models.SplitAll}
	if first != want {
		t.Fatalf("first job = %+v, want %+v", first, want)
	}
	ids, _ := r.Segments.Lookup("hit_am")
	if len(ids) != 40 || ids[0] != 26546 || ids[39] != 24605 {
		t.Fatalf("hit_am ids not in registry order: len=%d", len(ids))
	}
}

func TestLoadRosterFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	doc := `
season: 2024
segments:
  closers: [101, 102]
  empty: []
jobs:
  - {output: closers_all, segment: closers, stats: pit, split: all}
  - {output: empty_all, segment: empty, stats: pit, split: vs_right}
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write roster: %v", err)
	}

	r, err := LoadRoster(path)
	if err != nil {
		t.Fatalf("load roster: %v", err)
	}
	if ids, ok := r.Segments.Lookup("empty"); !ok || len(ids) != 0 {
		t.Fatalf("empty segment = %v (ok=%v), want present and empty", ids, ok)
	}
}

func TestRosterValidate(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "missing season",
			doc:     "segments: {a: [1]}\njobs: [{output: a, segment: a, stats: bat, split: all}]",
			wantErr: "season",
		},
		{
			name:    "no jobs",
			doc:     "season: 2025\nsegments: {a: [1]}",
			wantErr: "no jobs",
		},
		{
			name:    "duplicate output",
			doc:     "season: 2025\nsegments: {a: [1]}\njobs: [{output: x, segment: a, stats: bat, split: all}, {output: x, segment: a, stats: bat, split: vs_left}]",
			wantErr: "duplicate output",
		},
		{
			name:    "unknown segment",
			doc:     "season: 2025\nsegments: {a: [1]}\njobs: [{output: x, segment: b, stats: bat, split: all}]",
			wantErr: "unknown segment",
		},
		{
			name:    "bad stats",
			doc:     "season: 2025\nsegments: {a: [1]}\njobs: [{output: x, segment: a, stats: fld, split: all}]",
			wantErr: "stats",
		},
		{
			name:    "bad split",
			doc:     "season: 2025\nsegments: {a: [1]}\njobs: [{output: x, segment: a, stats: bat, split: vs_switch}]",
			wantErr: "split",
		},
		{
			name:    "path in output",
			doc:     "season: 2025\nsegments: {a: [1]}\njobs: [{output: ../x, segment: a, stats: bat, split: all}]",
			wantErr: "plain file name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRoster([]byte(tt.doc))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
