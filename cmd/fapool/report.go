package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/aluiziolira/fapool/config"
	"github.com/aluiziolira/fapool/models"
)

func jobsCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "List the roster's jobs in run order",
		RunE: func(cmd *cobra.Command, args []string) error {
			roster, err := config.LoadRoster(cfg.RosterFile)
			if err != nil {
				return err
			}
			printJobs(os.Stdout, roster)
			return nil
		},
	}
}

func segmentsCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "segments",
		Short: "List the roster's segments and their sizes",
		RunE: func(cmd *cobra.Command, args []string) error {
			roster, err := config.LoadRoster(cfg.RosterFile)
			if err != nil {
				return err
			}
			printSegments(os.Stdout, roster.Segments)
			return nil
		},
	}
}

func printJobs(out io.Writer, roster *config.Roster) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle(fmt.Sprintf("Season %d", roster.Season))
	t.AppendHeader(table.Row{"#", "Output", "Segment", "Stats", "Split", "Players"})
	for i, job := range roster.Jobs {
		ids, _ := roster.Segments.Lookup(job.Segment)
		t.AppendRow(table.Row{i + 1, job.Output, job.Segment, job.Stats, job.Split, len(ids)})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func printSegments(out io.Writer, segments models.Registry) {
	keys := make([]string, 0, len(segments))
	for key := range segments {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Segment", "Players"})
	for _, key := range keys {
		t.AppendRow(table.Row{key, len(segments[key])})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func printSummary(out io.Writer, result *models.RunResult, planned int) {
	if result == nil {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle("Run summary")
	t.AppendHeader(table.Row{"Output", "Status", "Rows", "Drift", "Duration", "Detail"})
	for _, o := range result.Outcomes {
		detail := o.Path
		if o.Err != nil {
			detail = shorten(o.Err.Error(), 80)
		}
		drift := ""
		if o.SchemaDrift {
			drift = "yes"
		}
		t.AppendRow(table.Row{o.Job.Output, o.Status, o.Rows, drift, o.Duration.Round(time.Millisecond), detail})
	}
	skipped := planned - len(result.Outcomes)
	t.AppendFooter(table.Row{
		fmt.Sprintf("%d/%d ok", result.Succeeded(), planned),
		fmt.Sprintf("%d failed, %d skipped", len(result.Failed()), skipped),
		result.TotalRows(),
		"",
		result.EndTime.Sub(result.StartTime).Round(time.Millisecond),
		"",
	})
	t.SetStyle(table.StyleRounded)
	// Footer cells hold counts and a duration; keep them as written.
	t.Style().Format.Footer = text.FormatDefault
	t.Render()
}

func shorten(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", "; ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
