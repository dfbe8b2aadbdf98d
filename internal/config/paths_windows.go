//go:build windows

package config

import (
	"os"
	"path/filepath"
)

func configSearchPaths() []string {
	local := os.Getenv("LOCALAPPDATA")
	programData := os.Getenv("ProgramData")
	return []string{
		"sysinv.yaml",
		filepath.Join(local, "sysinv", "config.yaml"),
		filepath.Join(programData, "sysinv", "config.yaml"),
	}
}
