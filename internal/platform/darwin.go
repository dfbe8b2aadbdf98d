//go:build darwin

// macOS Platform implementation backed by system_profiler.
package platform

import (
	"context"

	"github.com/Guliveer/sysinv/internal/models"
)

// DarwinPlatform implements Platform for macOS.
type DarwinPlatform struct {
	run runner
}

// New creates a new macOS platform instance.
func New() Platform {
	return &DarwinPlatform{run: execRunner}
}

// Name returns the platform identifier.
func (p *DarwinPlatform) Name() string { return "darwin" }

// GPUs lists graphics adapters reported by system_profiler.
func (p *DarwinPlatform) GPUs(ctx context.Context) ([]models.GPUDevice, error) {
	out, err := p.run(ctx, "system_profiler", "SPDisplaysDataType", "-json")
	if err != nil {
		if isMissingTool(err) {
			return nil, ErrNotSupported
		}
		return nil, err
	}
	devices, err := parseSystemProfiler(out)
	if err != nil {
		return nil, err
	}
	sortDevices(devices)
	return devices, nil
}
