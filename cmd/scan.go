package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lodestar-research/satwatch/internal/detect"
	"github.com/lodestar-research/satwatch/internal/model"
	"github.com/lodestar-research/satwatch/internal/scan"
	"github.com/lodestar-research/satwatch/internal/signal"
	"github.com/lodestar-research/satwatch/pkg/anthropic"
)

var (
	scanDryRun    bool
	scanDetectors []string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run all detectors once and store new signals",
	Long:  "Runs the configured detectors against the data store. Individual detector failures are logged and skipped; only a missing store configuration fails the run.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		detectors, err := selectDetectors(scanDetectors)
		if err != nil {
			return err
		}

		llm := anthropic.NewClient(cfg.Anthropic.Key, cfg.Anthropic.Model)
		if !llm.Enabled() {
			zap.L().Warn("anthropic key not set, using template descriptions")
		}

		deps := detect.Deps{
			Store:     st,
			LLM:       llm,
			Cfg:       cfg.Scan,
			MaxTokens: cfg.Anthropic.MaxTokens,
		}
		sink := signal.NewSink(st, scanDryRun)
		runner := scan.NewRunner(detectors, deps, sink)

		summary, err := runner.Run(ctx)
		if err != nil {
			return err
		}

		formatSummary(os.Stdout, summary, scanDryRun)
		return nil
	},
}

// selectDetectors resolves --detector flags against the registry; with no
// flags, every detector runs.
func selectDetectors(names []string) ([]detect.Detector, error) {
	if len(names) == 0 {
		return detect.Registry(), nil
	}
	detectors := make([]detect.Detector, 0, len(names))
	for _, name := range names {
		d := detect.Lookup(name)
		if d == nil {
			return nil, fmt.Errorf("unknown detector %q (available: %v)", name, detect.Names())
		}
		detectors = append(detectors, d)
	}
	return detectors, nil
}

func formatSummary(w io.Writer, summary scan.Summary, dryRun bool) {
	verb := "stored"
	if dryRun {
		verb = "would store"
	}
	fmt.Fprintf(w, "Scan %s: %s %d signals in %s\n", summary.RunID, verb, summary.Stored(), summary.Duration.Round(time.Millisecond))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DETECTOR\tEMITTED\tSTORED\tDUPLICATES\tSTATUS")
	for _, d := range summary.Detectors {
		status := "ok"
		if d.Err != nil {
			status = "failed"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n", d.Name, d.Emitted, d.Stored, d.Duplicates, status)
	}
	tw.Flush()

	if len(summary.BySeverity) > 0 {
		fmt.Fprint(w, "By severity:")
		for _, sev := range []model.Severity{model.SeverityCritical, model.SeverityHigh, model.SeverityMedium, model.SeverityLow} {
			if n := summary.BySeverity[sev]; n > 0 {
				fmt.Fprintf(w, " %s=%d", sev, n)
			}
		}
		fmt.Fprintln(w)
	}
}

func init() {
	scanCmd.Flags().BoolVar(&scanDryRun, "dry-run", false, "evaluate detectors without storing signals")
	scanCmd.Flags().StringSliceVar(&scanDetectors, "detector", nil, "run only the named detectors (repeatable)")
	rootCmd.AddCommand(scanCmd)
}
