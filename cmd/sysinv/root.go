package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Guliveer/sysinv/internal/collector"
	"github.com/Guliveer/sysinv/internal/config"
	"github.com/Guliveer/sysinv/internal/logging"
	"github.com/Guliveer/sysinv/internal/pipeline"
	"github.com/Guliveer/sysinv/internal/platform"
	"github.com/Guliveer/sysinv/internal/sink"
	"github.com/Guliveer/sysinv/internal/store"
)

var (
	// Flags
	flagConfig           string
	flagLogLevel         string
	flagHostname         string
	flagDatabaseType     string
	flagConnectionString string
	flagDataDir          string
)

// errFailed signals a command failure that has already been reported.
var errFailed = errors.New("failed")

var rootCmd = &cobra.Command{
	Use:   "sysinv",
	Short: "Host hardware and OS inventory collector",
	Long: `sysinv collects this host's CPU, memory, storage, GPU, network and OS facts,
writes them to a timestamped JSON snapshot and upserts them into a database
keyed by hostname (sqlite, postgres, mysql or sqlserver).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: auto-discover sysinv.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (env: ITAD_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&flagHostname, "hostname", "", "Hostname to record under (env: ITAD_HOSTNAME)")
	rootCmd.PersistentFlags().StringVar(&flagDatabaseType, "db-type", "", "Database type: sqlite, postgres, mysql, sqlserver (env: ITAD_DATABASE_TYPE)")
	rootCmd.PersistentFlags().StringVar(&flagConnectionString, "db", "", "Database connection string (env: ITAD_DATABASE_CONNECTION_STRING)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "Snapshot file directory (env: ITAD_DATA_DIRECTORY)")
}

// Execute runs the root command and exits non-zero on failure.
func Execute(version string) {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("sysinv %s\n", version))
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// app holds what every command needs: the validated config and a logger.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	closeLog func()
}

// setup loads configuration with the full precedence chain and builds the logger.
func setup(extra config.CLIOverrides) (*app, error) {
	cli := extra
	cli.Hostname = flagHostname
	cli.DatabaseType = flagDatabaseType
	cli.ConnectionString = flagConnectionString
	cli.DataDirectory = flagDataDir
	cli.LogLevel = flagLogLevel

	var (
		cfg *config.Config
		err error
	)
	if flagConfig != "" {
		cfg, err = config.LoadLayered(cli, embeddedConfig, flagConfig)
	} else {
		cfg, err = config.LoadLayered(cli, embeddedConfig)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, closeLog, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, closeLog: closeLog}, nil
}

func (a *app) close() { a.closeLog() }

func (a *app) newStore() *store.Store {
	return store.New(store.Config{
		Type:             a.cfg.Database.Type,
		ConnectionString: a.cfg.Database.ConnectionString,
		Timeout:          a.cfg.Database.Timeout.Duration,
	}, a.logger.Named("store"))
}

func (a *app) newSink() (*sink.JSONSink, error) {
	return sink.New(a.cfg.Data.Directory, a.logger.Named("sink"))
}

// newOrchestrator wires collector, sink and store into a pipeline.
func (a *app) newOrchestrator(fileName string, metrics *pipeline.Metrics) (*pipeline.Orchestrator, error) {
	hostname, err := a.cfg.ResolveHostname()
	if err != nil {
		return nil, err
	}
	categories, err := a.cfg.CategoryList()
	if err != nil {
		return nil, err
	}
	w, err := a.newSink()
	if err != nil {
		return nil, err
	}

	registry := collector.NewDefaultRegistry(a.logger.Named("collector"), platform.New(), collector.Options{
		Timeout:    a.cfg.Collection.Timeout.Duration,
		Sequential: !a.cfg.Collection.Parallel,
	})

	return pipeline.New(registry, w, a.newStore(), pipeline.Options{
		Hostname:      hostname,
		Categories:    categories,
		FileName:      fileName,
		MaxRetries:    a.cfg.Database.MaxRetries,
		RetryInterval: a.cfg.Database.RetryInterval.Duration,
	}, a.logger.Named("pipeline"), pipeline.WithMetrics(metrics)), nil
}

// exportMetrics writes the metrics textfile if one is configured.
func (a *app) exportMetrics(m *pipeline.Metrics) {
	if a.cfg.Metrics.Textfile == "" {
		return
	}
	if err := m.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		a.logger.Warn("Failed to write metrics textfile",
			zap.String("path", a.cfg.Metrics.Textfile),
			zap.Error(err))
	}
}
