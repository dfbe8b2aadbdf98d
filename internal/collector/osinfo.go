// OS info collector gathers OS identity, kernel and boot information.
// gopsutil provides the structured fields; the human-readable name comes
// from platform-specific sources:
//   - Linux: /etc/os-release, falling back to lsb_release
//   - macOS: sw_vers
//   - Windows: Win32_OperatingSystem caption via PowerShell
package collector

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/Guliveer/sysinv/internal/models"
)

// OSInfoCollector collects OS information.
// The pretty name is cached after the first lookup since it does not change
// during runtime.
type OSInfoCollector struct {
	info func(ctx context.Context) (*host.InfoStat, error)

	prettyName string
	once       sync.Once
}

// NewOSInfoCollector creates a new OS info collector.
func NewOSInfoCollector() *OSInfoCollector {
	return &OSInfoCollector{info: host.InfoWithContext}
}

// Category returns the collector category.
func (c *OSInfoCollector) Category() models.Category { return models.CategoryOS }

// Collect gathers OS facts.
func (c *OSInfoCollector) Collect(ctx context.Context) (models.FactValues, error) {
	info, err := c.info(ctx)
	if err != nil {
		return nil, err
	}

	c.once.Do(func() {
		c.prettyName = osPrettyName(ctx)
	})

	facts := models.OSFacts{
		Family:         info.OS,
		Platform:       info.Platform,
		PlatformFamily: info.PlatformFamily,
		Version:        info.PlatformVersion,
		Name:           c.prettyName,
		KernelVersion:  info.KernelVersion,
		Arch:           info.KernelArch,
		Hostname:       info.Hostname,
	}
	if facts.Family == "" {
		facts.Family = runtime.GOOS
	}
	if facts.Arch == "" {
		facts.Arch = runtime.GOARCH
	}
	if facts.Name == "" {
		facts.Name = strings.TrimSpace(info.Platform + " " + info.PlatformVersion)
	}
	if info.BootTime > 0 {
		facts.BootTime = time.Unix(int64(info.BootTime), 0).UTC()
	}
	return facts, nil
}

// IsAvailable returns true: OS info is available on all platforms.
func (c *OSInfoCollector) IsAvailable() bool { return true }

// osPrettyName dispatches to the platform-specific name lookup.
// An empty result means no better name than gopsutil's platform is known.
func osPrettyName(ctx context.Context) string {
	switch runtime.GOOS {
	case "linux":
		return linuxPrettyName(ctx)
	case "darwin":
		return darwinPrettyName(ctx)
	case "windows":
		return windowsPrettyName(ctx)
	default:
		return ""
	}
}

// linuxPrettyName reads /etc/os-release, falling back to lsb_release.
func linuxPrettyName(ctx context.Context) string {
	if data, err := os.ReadFile("/etc/os-release"); err == nil {
		fields := parseKeyValueFile(string(data))
		if pretty := fields["PRETTY_NAME"]; pretty != "" {
			return pretty
		}
		if name := fields["NAME"]; name != "" {
			return strings.TrimSpace(name + " " + fields["VERSION_ID"])
		}
	}

	out, err := exec.CommandContext(ctx, "lsb_release", "-d", "-s").Output()
	if err != nil {
		return ""
	}
	return strings.Trim(strings.TrimSpace(string(out)), "\"")
}

// darwinPrettyName joins sw_vers product name and version, e.g. "macOS 14.2.1".
func darwinPrettyName(ctx context.Context) string {
	name, err := exec.CommandContext(ctx, "sw_vers", "-productName").Output()
	if err != nil {
		return ""
	}
	version, _ := exec.CommandContext(ctx, "sw_vers", "-productVersion").Output()
	return strings.TrimSpace(strings.TrimSpace(string(name)) + " " + strings.TrimSpace(string(version)))
}

// windowsPrettyName returns the OS caption, e.g. "Microsoft Windows 11 Pro".
func windowsPrettyName(ctx context.Context) string {
	out, err := exec.CommandContext(ctx, "powershell", "-NoProfile", "-Command",
		"(Get-CimInstance Win32_OperatingSystem).Caption").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// parseKeyValueFile parses KEY=VALUE lines (like /etc/os-release), stripping
// surrounding quotes from values.
func parseKeyValueFile(content string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		fields[key] = strings.Trim(value, "\"'")
	}
	return fields
}
