package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Guliveer/sysinv/internal/config"
	"github.com/Guliveer/sysinv/internal/models"
	"github.com/Guliveer/sysinv/internal/sink"
	"github.com/Guliveer/sysinv/internal/store"
)

const timeFormat = "2006-01-02 15:04:05"

var showCmd = &cobra.Command{
	Use:   "show [hostname]",
	Short: "Print the stored snapshot of a host as JSON",
	Long:  `Print the stored snapshot of a host. Without an argument the configured hostname is used.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runShow,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored hosts",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <hostname>",
	Short: "Delete the stored record of a host",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the database is reachable",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(showCmd, listCmd, deleteCmd, healthCmd)
}

// withStore connects to the configured database, runs fn and disconnects.
func withStore(fn func(ctx context.Context, a *app, s *store.Store) error) error {
	a, err := setup(config.CLIOverrides{})
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signalContext()
	defer stop()

	s := a.newStore()
	if err := s.Connect(ctx); err != nil {
		return err
	}
	defer s.Disconnect()

	return fn(ctx, a, s)
}

func runShow(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, a *app, s *store.Store) error {
		hostname := ""
		if len(args) == 1 {
			hostname = args[0]
		} else {
			h, err := a.cfg.ResolveHostname()
			if err != nil {
				return err
			}
			hostname = h
		}

		rec, err := s.Get(ctx, hostname)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no record for %s", hostname)
		}
		if err != nil {
			return err
		}

		data, err := sink.Encode(rec.Snapshot)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Record %d, created %s, updated %s\n",
			rec.ID, rec.CreatedAt.Format(timeFormat), rec.UpdatedAt.Format(timeFormat))
		_, err = cmd.OutOrStdout().Write(data)
		return err
	})
}

func runList(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, a *app, s *store.Store) error {
		records, err := s.List(ctx)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tHOSTNAME\tCOLLECTED\tUPDATED\tSTATUS")
		for _, rec := range records {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
				rec.ID,
				rec.Snapshot.Hostname,
				rec.Snapshot.CollectedAt.Format(timeFormat),
				rec.UpdatedAt.Format(timeFormat),
				statusSummary(rec.Snapshot))
		}
		return tw.Flush()
	})
}

// statusSummary counts facts by status, e.g. "5 ok, 1 unavailable".
func statusSummary(snap models.Snapshot) string {
	counts := map[models.StatusCode]int{}
	for _, f := range snap.Facts {
		counts[f.Status.Code]++
	}
	summary := ""
	for _, code := range []models.StatusCode{models.StatusOK, models.StatusUnavailable, models.StatusPartialError} {
		if counts[code] == 0 {
			continue
		}
		if summary != "" {
			summary += ", "
		}
		summary += fmt.Sprintf("%d %s", counts[code], code)
	}
	return summary
}

func runDelete(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, a *app, s *store.Store) error {
		deleted, err := s.Delete(ctx, args[0])
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("no record for %s", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	})
}

func runHealth(cmd *cobra.Command, args []string) error {
	a, err := setup(config.CLIOverrides{})
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signalContext()
	defer stop()

	s := a.newStore()
	start := time.Now()
	if err := s.Connect(ctx); err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Database: unreachable: %v\n", err)
		return errFailed
	}
	defer s.Disconnect()

	h := s.HealthCheck(ctx)
	fmt.Fprintf(cmd.OutOrStdout(), "Database: %s (%s, %s)\n", h, a.cfg.Database.Type, time.Since(start).Round(time.Millisecond))
	if !h.Healthy {
		return errFailed
	}
	return nil
}
