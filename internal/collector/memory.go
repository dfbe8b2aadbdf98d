// RAM collector gathers total, available and used memory in bytes.
// Uses gopsutil for cross-platform memory metrics.
package collector

import (
	"context"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/Guliveer/sysinv/internal/models"
)

// MemoryCollector collects RAM sizes.
type MemoryCollector struct{}

// NewMemoryCollector creates a new memory collector.
func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{}
}

// Category returns the collector category.
func (c *MemoryCollector) Category() models.Category { return models.CategoryMemory }

// Collect gathers memory sizes as integer byte counts.
func (c *MemoryCollector) Collect(ctx context.Context) (models.FactValues, error) {
	v, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return models.MemoryFacts{
		TotalBytes:     v.Total,
		AvailableBytes: v.Available,
		UsedBytes:      v.Used,
	}, nil
}

// IsAvailable returns true: memory metrics are available on all platforms.
func (c *MemoryCollector) IsAvailable() bool { return true }
