package platform

import (
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/Guliveer/sysinv/internal/models"
)

// runner executes a command and returns its standard output.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// isMissingTool reports whether err means the probe binary is not installed.
func isMissingTool(err error) bool {
	return errors.Is(err, exec.ErrNotFound)
}

// queryNvidiaSMI lists NVIDIA adapters through nvidia-smi.
func queryNvidiaSMI(ctx context.Context, run runner) ([]models.GPUDevice, error) {
	out, err := run(ctx, "nvidia-smi",
		"--query-gpu=name,driver_version,memory.total,temperature.gpu",
		"--format=csv,noheader,nounits")
	if err != nil {
		return nil, err
	}
	return parseNvidiaSMI(string(out)), nil
}

// parseNvidiaSMI parses `nvidia-smi --format=csv,noheader,nounits` output with
// the columns name, driver_version, memory.total (MiB), temperature.gpu.
func parseNvidiaSMI(output string) []models.GPUDevice {
	var devices []models.GPUDevice
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cols := strings.Split(line, ",")
		for i := range cols {
			cols[i] = strings.TrimSpace(cols[i])
		}
		if len(cols) < 1 || cols[0] == "" {
			continue
		}
		dev := models.GPUDevice{Name: cols[0], Vendor: "NVIDIA"}
		if len(cols) > 1 && !isNotAvailable(cols[1]) {
			dev.DriverVersion = cols[1]
		}
		if len(cols) > 2 {
			if mib, err := strconv.ParseUint(cols[2], 10, 64); err == nil {
				dev.MemoryBytes = mib * 1024 * 1024
			}
		}
		if len(cols) > 3 {
			if temp, err := strconv.ParseFloat(cols[3], 64); err == nil {
				dev.TemperatureC = &temp
			}
		}
		devices = append(devices, dev)
	}
	return devices
}

func isNotAvailable(s string) bool {
	return s == "" || strings.EqualFold(s, "[N/A]") || strings.EqualFold(s, "N/A")
}

// displayClasses are the PCI class names that identify graphics adapters.
var displayClasses = map[string]bool{
	"vga compatible controller": true,
	"3d controller":             true,
	"display controller":        true,
}

// parseLspci parses `lspci -mm` output and keeps display-class devices.
// Each line looks like:
//
//	00:02.0 "VGA compatible controller" "Intel Corporation" "UHD Graphics 620" -r07 "Lenovo" "Device 2258"
func parseLspci(output string) []models.GPUDevice {
	var devices []models.GPUDevice
	for _, line := range strings.Split(output, "\n") {
		fields := splitQuoted(line)
		if len(fields) < 4 {
			continue
		}
		if !displayClasses[strings.ToLower(fields[1])] {
			continue
		}
		devices = append(devices, models.GPUDevice{
			Name:   fields[3],
			Vendor: fields[2],
		})
	}
	return devices
}

// splitQuoted splits a line on spaces, treating double-quoted runs as one field.
func splitQuoted(line string) []string {
	var (
		fields  []string
		current strings.Builder
		quoted  bool
		started bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
			started = true
		case r == ' ' && !quoted:
			if started {
				fields = append(fields, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
			started = true
		}
	}
	if started {
		fields = append(fields, current.String())
	}
	return fields
}

// videoControllerQuery prints one Win32_VideoController per line as
// Name|AdapterCompatibility|DriverVersion|AdapterRAM.
const videoControllerQuery = `Get-CimInstance Win32_VideoController | ForEach-Object { "$($_.Name)|$($_.AdapterCompatibility)|$($_.DriverVersion)|$($_.AdapterRAM)" }`

// parseVideoControllers parses the output of videoControllerQuery.
func parseVideoControllers(output string) []models.GPUDevice {
	var devices []models.GPUDevice
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cols := strings.Split(line, "|")
		if cols[0] == "" {
			continue
		}
		dev := models.GPUDevice{Name: cols[0]}
		if len(cols) > 1 {
			dev.Vendor = cols[1]
		}
		if len(cols) > 2 {
			dev.DriverVersion = cols[2]
		}
		if len(cols) > 3 {
			if n, err := strconv.ParseUint(cols[3], 10, 64); err == nil {
				dev.MemoryBytes = n
			}
		}
		devices = append(devices, dev)
	}
	return devices
}

type displaysReport struct {
	Displays []struct {
		Model  string `json:"sppci_model"`
		Vendor string `json:"spdisplays_vendor"`
		VRAM   string `json:"spdisplays_vram"`
	} `json:"SPDisplaysDataType"`
}

// parseSystemProfiler parses `system_profiler SPDisplaysDataType -json` output.
func parseSystemProfiler(data []byte) ([]models.GPUDevice, error) {
	var report displaysReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, err
	}
	var devices []models.GPUDevice
	for _, d := range report.Displays {
		if d.Model == "" {
			continue
		}
		devices = append(devices, models.GPUDevice{
			Name:        d.Model,
			Vendor:      strings.TrimPrefix(d.Vendor, "sppci_vendor_"),
			MemoryBytes: parseSize(d.VRAM),
		})
	}
	return devices, nil
}

// parseSize converts strings like "1536 MB" or "8 GB" to bytes. Unknown
// formats yield 0.
func parseSize(s string) uint64 {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return 0
	}
	n, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return 0
	}
	switch strings.ToUpper(fields[1]) {
	case "KB":
		return n << 10
	case "MB":
		return n << 20
	case "GB":
		return n << 30
	default:
		return 0
	}
}

// sortDevices orders devices by name for stable output.
func sortDevices(devices []models.GPUDevice) {
	sort.SliceStable(devices, func(i, j int) bool {
		return devices[i].Name < devices[j].Name
	})
}
