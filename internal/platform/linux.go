//go:build linux

// Linux Platform implementation.
// Prefers nvidia-smi for NVIDIA adapters and falls back to lspci.
package platform

import (
	"context"
	"fmt"

	"github.com/Guliveer/sysinv/internal/models"
)

// LinuxPlatform implements Platform for Linux systems.
type LinuxPlatform struct {
	run runner
}

// New creates a new Linux platform instance.
func New() Platform {
	return &LinuxPlatform{run: execRunner}
}

// Name returns the platform identifier.
func (p *LinuxPlatform) Name() string { return "linux" }

// GPUs lists graphics adapters. nvidia-smi is tried first since it reports
// driver, memory and temperature; lspci covers every other vendor.
func (p *LinuxPlatform) GPUs(ctx context.Context) ([]models.GPUDevice, error) {
	devices, nvErr := queryNvidiaSMI(ctx, p.run)
	if nvErr == nil && len(devices) > 0 {
		sortDevices(devices)
		return devices, nil
	}

	// A missing nvidia-smi is expected; any other failure is kept for context.
	if nvErr != nil && isMissingTool(nvErr) {
		nvErr = nil
	}

	out, err := p.run(ctx, "lspci", "-mm")
	if err != nil {
		if isMissingTool(err) {
			if nvErr != nil {
				return nil, fmt.Errorf("%w: lspci not installed, nvidia-smi: %v", ErrNotSupported, nvErr)
			}
			return nil, ErrNotSupported
		}
		if nvErr != nil {
			return nil, fmt.Errorf("lspci: %w (nvidia-smi: %v)", err, nvErr)
		}
		return nil, fmt.Errorf("lspci: %w", err)
	}
	devices = parseLspci(string(out))
	sortDevices(devices)
	return devices, nil
}
