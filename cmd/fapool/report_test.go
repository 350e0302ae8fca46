package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aluiziolira/fapool/config"
	"github.com/aluiziolira/fapool/models"
)

func TestPrintSummary(t *testing.T) {
	start := time.Date(2025, 11, 4, 13, 0, 0, 0, time.UTC)
	result := &models.RunResult{
		StartTime: start,
		EndTime:   start.Add(3 * time.Second),
		Outcomes: []models.JobOutcome{
			{Job: models.Job{Output: "hit_am_bat_all"}, Status: models.JobSucceeded, Rows: 40, Path: "data/fa/hit_am_bat_all.json"},
			{Job: models.Job{Output: "hit_am_bat_lhp"}, Status: models.JobFailed, Err: errors.New("fetch exhausted")},
		},
	}

	var buf bytes.Buffer
	printSummary(&buf, result, 15)
	out := buf.String()

	for _, want := range []string{"hit_am_bat_all", "data/fa/hit_am_bat_all.json", "fetch exhausted", "1/15 ok", "1 failed, 13 skipped", "3s"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestPrintJobsBuiltInRoster(t *testing.T) {
	roster, err := config.LoadRoster("")
	if err != nil {
		t.Fatalf("load roster: %v", err)
	}
	var buf bytes.Buffer
	printJobs(&buf, roster)
	if !strings.Contains(buf.String(), "rp_nz_pit_rhb") {
		t.Fatalf("jobs listing missing last job:\n%s", buf.String())
	}
}

func TestShorten(t *testing.T) {
	if got := shorten("a\nb", 10); got != "a; b" {
		t.Fatalf("shorten = %q", got)
	}
	if got := shorten(strings.Repeat("x", 12), 10); got != strings.Repeat("x", 10)+"..." {
		t.Fatalf("shorten = %q", got)
	}
}
