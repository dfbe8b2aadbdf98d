//go:build !windows

package config

import (
	"os"
	"path/filepath"
)

func configSearchPaths() []string {
	home, _ := os.UserHomeDir()
	return []string{
		"sysinv.yaml",
		filepath.Join(home, ".config", "sysinv", "config.yaml"),
		"/etc/sysinv/config.yaml",
	}
}
