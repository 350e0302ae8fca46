// Command fapool fetches free-agent leaderboards and writes one artifact per
// job.
//
// Usage:
//
//	fapool run
//	fapool run --mode html --out data/fa --continue-on-error
//	fapool jobs --roster roster.yaml
//	fapool segments
package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/aluiziolira/fapool/config"
)

func main() {
	_ = godotenv.Load(".env")

	cfg := config.DefaultConfig()
	if err := config.ApplyEnv(cfg); err != nil {
		logger, _ := newLogger(false)
		logger.Error("invalid environment", slog.Any("error", err))
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:           "fapool",
		Short:         "Free-agent pool leaderboard fetcher",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger, level := newLogger(cfg.Verbose)
			slog.SetDefault(logger)
			slog.SetLogLoggerLevel(level.Level())
		},
	}
	root.PersistentFlags().StringVar(&cfg.RosterFile, "roster", cfg.RosterFile, "Roster YAML file (default: built-in roster)")
	root.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Enable verbose logging")

	root.AddCommand(runCmd(cfg))
	root.AddCommand(jobsCmd(cfg))
	root.AddCommand(segmentsCmd(cfg))

	if err := root.Execute(); err != nil {
		if !errors.Is(err, errJobsFailed) {
			slog.Error("fapool failed", slog.Any("error", err))
		}
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
