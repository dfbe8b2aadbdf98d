package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Guliveer/sysinv/internal/config"
	"github.com/Guliveer/sysinv/internal/pipeline"
)

var (
	flagOutput     string
	flagCategories []string
	flagSequential bool
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect a snapshot of this host and store it",
	Long: `Collect every configured category once, write the snapshot to a JSON file in
the data directory and upsert it into the database.

The exit status is 0 when the snapshot was stored and 1 otherwise. Categories
that cannot be collected on this host are recorded in the snapshot and do not
fail the run.`,
	Args: cobra.NoArgs,
	RunE: runCollect,
}

func init() {
	collectCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Snapshot file name (default: system_info_YYYYMMDD_HHMMSS.json)")
	collectCmd.Flags().StringSliceVar(&flagCategories, "categories", nil, "Categories to collect: cpu, memory, storage, gpu, network, os")
	collectCmd.Flags().BoolVar(&flagSequential, "sequential", false, "Collect categories one at a time")
	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, args []string) error {
	a, err := setup(config.CLIOverrides{Categories: flagCategories, Sequential: flagSequential})
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signalContext()
	defer stop()

	metrics := pipeline.NewMetrics()
	o, err := a.newOrchestrator(flagOutput, metrics)
	if err != nil {
		return err
	}

	out := o.Run(ctx)
	a.exportMetrics(metrics)

	w := cmd.OutOrStdout()
	if !out.Success() {
		fmt.Fprintf(cmd.ErrOrStderr(), "Failed: %s\n", out.Cause())
		if out.Path != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Snapshot file: %s\n", out.Path)
		}
		return errFailed
	}

	fmt.Fprintf(w, "Host:     %s\n", out.Record.Snapshot.Hostname)
	fmt.Fprintf(w, "Record:   %d (updated %s)\n", out.Record.ID, out.Record.UpdatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Snapshot: %s\n", out.Path)
	for _, f := range out.Snapshot.Facts {
		fmt.Fprintf(w, "  %-8s %s\n", f.Category, f.Status)
	}
	return nil
}
