package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Guliveer/sysinv/internal/config"
	"github.com/Guliveer/sysinv/internal/pipeline"
	"github.com/Guliveer/sysinv/internal/scheduler"
	"github.com/Guliveer/sysinv/internal/service"
	"github.com/Guliveer/sysinv/internal/sink"
)

var flagInterval time.Duration

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect and store snapshots on a schedule",
	Long: `Run a collection immediately and then once per collection.interval until
interrupted. Expired snapshot files are pruned after each run when
data.retention_days is set. Under the Windows service manager the same loop
runs as the sysinv service.`,
	Args: cobra.NoArgs,
	RunE: runScheduled,
}

func init() {
	runCmd.Flags().DurationVar(&flagInterval, "interval", 0, "Override collection.interval (e.g. 30m)")
	rootCmd.AddCommand(runCmd)
}

func runScheduled(cmd *cobra.Command, args []string) error {
	a, err := setup(config.CLIOverrides{})
	if err != nil {
		return err
	}
	defer a.close()

	if flagInterval > 0 {
		a.cfg.Collection.Interval = config.Duration{Duration: flagInterval}
	}

	metrics := pipeline.NewMetrics()
	o, err := a.newOrchestrator("", metrics)
	if err != nil {
		return err
	}
	files, err := a.newSink()
	if err != nil {
		return err
	}

	sched := scheduler.New(o, a.cfg.Collection.Interval.Duration, a.logger.Named("scheduler"))
	sched.OnOutcome(func(_ context.Context, _ pipeline.Outcome) {
		a.exportMetrics(metrics)
		pruneFiles(a, files)
	})

	start := func(ctx context.Context) {
		a.logger.Info("Starting scheduled collection",
			zap.String("version", rootCmd.Version),
			zap.Duration("interval", a.cfg.Collection.Interval.Duration),
			zap.String("database", a.cfg.Database.Type))
		sched.Start(ctx)
	}

	// Check if running as Windows service
	if service.IsWindowsService() {
		a.logger.Info("Running as Windows service")
		return service.New(a.logger, start).Run(context.Background())
	}

	ctx, stop := signalContext()
	defer stop()
	return service.New(a.logger, start).Run(ctx)
}

// pruneFiles removes snapshot files older than the retention window.
func pruneFiles(a *app, files *sink.JSONSink) {
	retention := a.cfg.Retention()
	if retention <= 0 {
		return
	}
	if _, err := files.Prune(time.Now().Add(-retention)); err != nil {
		a.logger.Warn("Failed to prune snapshot files", zap.Error(err))
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
