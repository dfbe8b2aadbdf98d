package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Guliveer/sysinv/internal/config"
	"github.com/Guliveer/sysinv/internal/sink"
)

var flagPruneRecords bool

var readCmd = &cobra.Command{
	Use:   "read <file>",
	Short: "Validate a snapshot file and summarize it",
	Args:  cobra.ExactArgs(1),
	RunE:  runRead,
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove snapshot files older than data.retention_days",
	Args:  cobra.NoArgs,
	RunE:  runPrune,
}

func init() {
	pruneCmd.Flags().BoolVar(&flagPruneRecords, "records", false, "Also delete database records not updated within the retention window")
	rootCmd.AddCommand(readCmd, pruneCmd)
}

func runRead(cmd *cobra.Command, args []string) error {
	snap, err := sink.ReadFile(args[0])
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Host:      %s\n", snap.Hostname)
	fmt.Fprintf(w, "Collected: %s\n", snap.CollectedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Schema:    %d\n", snap.SchemaVersion)
	for _, f := range snap.Facts {
		fmt.Fprintf(w, "  %-8s %s\n", f.Category, f.Status)
	}
	return nil
}

func runPrune(cmd *cobra.Command, args []string) error {
	a, err := setup(config.CLIOverrides{})
	if err != nil {
		return err
	}
	defer a.close()

	retention := a.cfg.Retention()
	if retention <= 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Retention is disabled (data.retention_days = 0)")
		return nil
	}
	cutoff := time.Now().Add(-retention)

	files, err := a.newSink()
	if err != nil {
		return err
	}
	removed, err := files.Prune(cutoff)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d snapshot files older than %s from %s\n", removed, cutoff.Format(timeFormat), files.Dir())

	if !flagPruneRecords {
		return nil
	}

	ctx, stop := signalContext()
	defer stop()

	s := a.newStore()
	if err := s.Connect(ctx); err != nil {
		return err
	}
	defer s.Disconnect()

	stale, err := s.DeleteStale(ctx, cutoff)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d stale records\n", stale)
	return nil
}
