package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/lodestar-research/satwatch/internal/model"
	"github.com/lodestar-research/satwatch/internal/store"
)

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Inspect stored signals",
}

var signalsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored signals, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		sigType, _ := cmd.Flags().GetString("type")
		severity, _ := cmd.Flags().GetString("severity")
		limit, _ := cmd.Flags().GetInt("limit")

		filter := store.SignalFilter{
			Type:     model.SignalType(sigType),
			Severity: model.Severity(severity),
			Limit:    limit,
		}
		signals, err := st.ListSignals(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "signals list")
		}

		if len(signals) == 0 {
			fmt.Fprintln(os.Stderr, "No signals found.")
			return nil
		}

		formatSignalsList(os.Stdout, signals)
		return nil
	},
}

func formatSignalsList(w io.Writer, signals []model.Signal) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DETECTED\tTYPE\tSEVERITY\tTITLE")
	for _, sig := range signals {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			sig.DetectedAt.Format(time.DateOnly), sig.Type, sig.Severity, sig.Title)
	}
	tw.Flush()
}

func init() {
	signalsListCmd.Flags().String("type", "", "filter by signal type")
	signalsListCmd.Flags().String("severity", "", "filter by severity")
	signalsListCmd.Flags().Int("limit", 50, "maximum signals to list")
	signalsCmd.AddCommand(signalsListCmd)
	rootCmd.AddCommand(signalsCmd)
}
