package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Guliveer/sysinv/internal/config"
)

const defaultConfigPath = "sysinv.yaml"

var flagForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create or check configuration files",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration to a file (default: sysinv.yaml)",
	Long: `Write the built-in configuration, with any ITAD_* environment overrides
applied, to path. An existing file is only replaced with --force.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Check a configuration file (default: the auto-discovered one)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigValidate,
}

func init() {
	configInitCmd.Flags().BoolVar(&flagForce, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configValidateCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := defaultConfigPath
	if len(args) == 1 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil && !flagForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	cfg, err := config.LoadFromBytes(embeddedConfig)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := config.WriteConfig(cfg, path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := config.Locate()
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		return errors.New("no configuration file found")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (database %s, %d categories)\n",
		path, cfg.Database.Type, len(cfg.Collection.Categories))
	return nil
}
