package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/okian/csvpage/internal/smoke"
	"github.com/okian/csvpage/pkg/logger"
)

// Default configuration constants.
const (
	defaultRunTimeout = 5 * time.Minute
)

// CLI output formatters
var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgBlue, color.Bold)
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := smoke.DefaultConfig()
	var (
		noColor    bool
		runTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Check the HTTP contract of a running csvpage server",
		Long: `Runs rounds of contract checks against a live server: health, CSRF
rejection without a token, token issue, the hello route and the data route.
Each worker keeps its own cookie jar.`,
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if noColor {
				color.NoColor = true
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			if cfg.Verbose {
				_ = logger.SetLevelString("debug")
			}
			cfg.Logger = logger.Named("smoke")

			ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
			defer cancel()

			rep, err := smoke.Run(ctx, cfg)
			if rep != nil {
				printSummary(rep)
			}
			if errors.Is(err, smoke.ErrChecksFailed) {
				errorColor.Fprintln(os.Stderr, "✗ smoke checks failed")
				return err
			}
			if err != nil {
				errorColor.Fprintln(os.Stderr, "✗ "+err.Error())
				return err
			}
			successColor.Println("✓ all checks passed")
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", smoke.DefaultBaseURL, "Base URL of the service")
	f.IntVar(&cfg.Rounds, "rounds", smoke.DefaultRounds, "Number of check rounds")
	f.IntVar(&cfg.Workers, "workers", runtime.NumCPU(), "Number of concurrent workers")
	f.DurationVar(&cfg.Timeout, "timeout", smoke.DefaultTimeout, "HTTP request timeout")
	f.StringVar(&cfg.ReportFile, "report", "", "Write a JSON report to this path")
	f.BoolVar(&cfg.Verbose, "verbose", false, "Log every check result")
	f.DurationVar(&runTimeout, "run-timeout", defaultRunTimeout, "Overall time limit")
	f.BoolVar(&noColor, "no-color", false, "Disable colored output")

	return cmd
}

func printSummary(rep *smoke.Report) {
	headerColor.Println("Smoke summary")
	infoColor.Printf("  target:   %s\n", rep.BaseURL)
	infoColor.Printf("  duration: %s\n", rep.Duration.Round(time.Millisecond))
	fmt.Printf("  rounds:   %d (passed %s, failed %s, %.1f%%)\n",
		rep.Rounds,
		successColor.Sprint(rep.Passed),
		errorColor.Sprint(rep.Failed),
		rep.SuccessRate())

	names := make([]string, 0, len(rep.Checks))
	for name := range rep.Checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		st := rep.Checks[name]
		mark := successColor.Sprint("ok")
		if st.Failed > 0 {
			mark = errorColor.Sprint("FAIL")
		}
		fmt.Printf("  %-22s %s  %d/%d\n", name, mark, st.Passed, st.Passed+st.Failed)
	}
	for _, f := range rep.Failures {
		errorColor.Printf("  round %d %s: %s\n", f.Round, f.Check, f.Error)
	}
}
