package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// FactValues is the typed payload of a HostFact. The set of implementations
// is closed: one struct per Category.
type FactValues interface {
	// Category returns the category this payload belongs to.
	Category() Category
	factValues()
}

// CPUFacts describes the host processor.
type CPUFacts struct {
	Model         string   `json:"model"`
	Vendor        string   `json:"vendor,omitempty"`
	LogicalCores  int      `json:"logical_cores"`
	PhysicalCores *int     `json:"physical_cores,omitempty"`
	ClockMHz      *float64 `json:"clock_mhz,omitempty"`
}

// MemoryFacts holds memory sizes in bytes.
type MemoryFacts struct {
	TotalBytes     uint64 `json:"total_bytes"`
	AvailableBytes uint64 `json:"available_bytes"`
	UsedBytes      uint64 `json:"used_bytes"`
}

// Volume represents a single mounted filesystem.
type Volume struct {
	Device     string `json:"device"`
	Mountpoint string `json:"mountpoint"`
	FSType     string `json:"fs_type"`
	TotalBytes uint64 `json:"total_bytes"`
	FreeBytes  uint64 `json:"free_bytes"`
	UsedBytes  uint64 `json:"used_bytes"`
}

// StorageFacts lists local volumes ordered by mountpoint.
type StorageFacts struct {
	Volumes []Volume `json:"volumes"`
}

// GPUDevice describes one graphics adapter. Fields the probe could not
// determine are left at their zero value.
type GPUDevice struct {
	Name          string   `json:"name"`
	Vendor        string   `json:"vendor,omitempty"`
	DriverVersion string   `json:"driver_version,omitempty"`
	MemoryBytes   uint64   `json:"memory_bytes,omitempty"`
	TemperatureC  *float64 `json:"temperature_c,omitempty"`
}

// GPUFacts lists the detected graphics adapters.
type GPUFacts struct {
	Devices []GPUDevice `json:"devices"`
}

// NetworkInterface describes one interface and its addresses in CIDR form.
type NetworkInterface struct {
	Name      string   `json:"name"`
	MAC       string   `json:"mac,omitempty"`
	MTU       int      `json:"mtu"`
	Flags     []string `json:"flags,omitempty"`
	Addresses []string `json:"addresses,omitempty"`
}

// NetworkFacts lists the host's network interfaces.
type NetworkFacts struct {
	Interfaces []NetworkInterface `json:"interfaces"`
}

// OSFacts identifies the operating system.
type OSFacts struct {
	Family         string    `json:"family"`          // e.g., "linux", "darwin", "windows"
	Platform       string    `json:"platform"`        // e.g., "ubuntu"
	PlatformFamily string    `json:"platform_family"` // e.g., "debian"
	Version        string    `json:"version"`         // e.g., "22.04", "14.2.1"
	Name           string    `json:"name"`            // e.g., "Ubuntu 22.04.4 LTS"
	KernelVersion  string    `json:"kernel_version"`
	Arch           string    `json:"arch"`
	Hostname       string    `json:"hostname"`
	BootTime       time.Time `json:"boot_time"`
}

func (CPUFacts) Category() Category     { return CategoryCPU }
func (MemoryFacts) Category() Category  { return CategoryMemory }
func (StorageFacts) Category() Category { return CategoryStorage }
func (GPUFacts) Category() Category     { return CategoryGPU }
func (NetworkFacts) Category() Category { return CategoryNetwork }
func (OSFacts) Category() Category      { return CategoryOS }

func (CPUFacts) factValues()     {}
func (MemoryFacts) factValues()  {}
func (StorageFacts) factValues() {}
func (GPUFacts) factValues()     {}
func (NetworkFacts) factValues() {}
func (OSFacts) factValues()      {}

// DecodeValues parses the JSON payload of a fact for the given category.
// A JSON null (or empty input) decodes to nil values.
func DecodeValues(c Category, raw json.RawMessage) (FactValues, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	switch c {
	case CategoryCPU:
		return decodeInto[CPUFacts](raw)
	case CategoryMemory:
		return decodeInto[MemoryFacts](raw)
	case CategoryStorage:
		return decodeInto[StorageFacts](raw)
	case CategoryGPU:
		return decodeInto[GPUFacts](raw)
	case CategoryNetwork:
		return decodeInto[NetworkFacts](raw)
	case CategoryOS:
		return decodeInto[OSFacts](raw)
	default:
		return nil, fmt.Errorf("unknown category %q", c)
	}
}

func decodeInto[T FactValues](raw json.RawMessage) (FactValues, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
