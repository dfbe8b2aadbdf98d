// CPU collector gathers processor model, core counts and clock speed.
// Uses gopsutil for cross-platform CPU information.
package collector

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/Guliveer/sysinv/internal/models"
)

// CPUCollector collects processor identity and topology.
type CPUCollector struct{}

// NewCPUCollector creates a new CPU collector.
func NewCPUCollector() *CPUCollector {
	return &CPUCollector{}
}

// Category returns the collector category.
func (c *CPUCollector) Category() models.Category { return models.CategoryCPU }

// Collect gathers the CPU model, logical/physical core counts and clock speed.
// Physical cores and clock speed are omitted when the platform does not expose them.
func (c *CPUCollector) Collect(ctx context.Context) (models.FactValues, error) {
	logical, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("logical core count: %w", err)
	}

	result := models.CPUFacts{LogicalCores: logical}

	// Non-fatal: some VMs and containers hide the physical topology
	if physical, err := cpu.CountsWithContext(ctx, false); err == nil && physical > 0 {
		result.PhysicalCores = &physical
	}

	infos, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("cpu info: %w", err)
	}
	if len(infos) > 0 {
		result.Model = strings.TrimSpace(infos[0].ModelName)
		result.Vendor = infos[0].VendorID
		if infos[0].Mhz > 0 {
			mhz := infos[0].Mhz
			result.ClockMHz = &mhz
		}
	}
	if result.Model == "" {
		result.Model = "unknown"
	}

	return result, nil
}

// IsAvailable returns true: CPU information is available on all platforms.
func (c *CPUCollector) IsAvailable() bool { return true }
