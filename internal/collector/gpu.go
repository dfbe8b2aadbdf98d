// GPU collector lists graphics adapters through the platform layer.
// Many hosts have no generic GPU API; those report the category as unavailable.
package collector

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Guliveer/sysinv/internal/models"
	"github.com/Guliveer/sysinv/internal/platform"
)

// GPUCollector collects graphics adapter information.
type GPUCollector struct {
	platform platform.Platform
	logger   *zap.Logger
}

// NewGPUCollector creates a new GPU collector. Pass a nil platform to always
// report the category as unavailable.
func NewGPUCollector(p platform.Platform, logger *zap.Logger) *GPUCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GPUCollector{platform: p, logger: logger}
}

// Category returns the collector category.
func (c *GPUCollector) Category() models.Category { return models.CategoryGPU }

// Collect returns the detected adapters. No probe or no adapter yields ErrUnavailable.
func (c *GPUCollector) Collect(ctx context.Context) (models.FactValues, error) {
	devices, err := c.platform.GPUs(ctx)
	if errors.Is(err, platform.ErrNotSupported) {
		if errors.Unwrap(err) != nil {
			return nil, fmt.Errorf("no usable GPU probe on %s (%v): %w", c.platform.Name(), err, ErrUnavailable)
		}
		return nil, fmt.Errorf("no GPU probe on %s: %w", c.platform.Name(), ErrUnavailable)
	}
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("no GPU detected: %w", ErrUnavailable)
	}

	c.logger.Debug("GPUs detected", zap.Int("count", len(devices)))
	return models.GPUFacts{Devices: devices}, nil
}

// IsAvailable reports whether a platform probe is configured.
func (c *GPUCollector) IsAvailable() bool { return c.platform != nil }
