//go:build windows

// Windows-specific Platform implementation.
// Uses nvidia-smi when present, otherwise Win32_VideoController via PowerShell.
package platform

import (
	"context"

	"github.com/Guliveer/sysinv/internal/models"
)

// WindowsPlatform implements Platform for Windows systems.
type WindowsPlatform struct {
	run runner
}

// New creates a new Windows platform instance.
func New() Platform {
	return &WindowsPlatform{run: execRunner}
}

// Name returns the platform identifier.
func (p *WindowsPlatform) Name() string { return "windows" }

// GPUs lists graphics adapters.
func (p *WindowsPlatform) GPUs(ctx context.Context) ([]models.GPUDevice, error) {
	if devices, err := queryNvidiaSMI(ctx, p.run); err == nil && len(devices) > 0 {
		sortDevices(devices)
		return devices, nil
	}

	out, err := p.run(ctx, "powershell", "-NoProfile", "-Command", videoControllerQuery)
	if err != nil {
		if isMissingTool(err) {
			return nil, ErrNotSupported
		}
		return nil, err
	}
	devices := parseVideoControllers(string(out))
	sortDevices(devices)
	return devices, nil
}
