package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Guliveer/sysinv/internal/service"
)

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage the Windows service running scheduled collection",
}

var serviceInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Register and start sysinv as an automatically started service",
	Args:  cobra.NoArgs,
	RunE:  runServiceInstall,
}

var serviceUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Stop and remove the sysinv service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := service.Uninstall(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed service %s\n", service.Name)
		return nil
	},
}

func init() {
	serviceCmd.AddCommand(serviceInstallCmd, serviceUninstallCmd)
	rootCmd.AddCommand(serviceCmd)
}

func runServiceInstall(cmd *cobra.Command, args []string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locating executable: %w", err)
	}
	runArgs, err := serviceArgs()
	if err != nil {
		return err
	}
	if err := service.Install(exe, runArgs...); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Installed service %s\n", service.Name)
	return nil
}

// serviceArgs carries --config into the service command line as an absolute
// path, since services start in the system directory.
func serviceArgs() ([]string, error) {
	if flagConfig == "" {
		return nil, nil
	}
	abs, err := filepath.Abs(flagConfig)
	if err != nil {
		return nil, err
	}
	return []string{"--config", abs}, nil
}
