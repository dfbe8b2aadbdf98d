//go:build !linux && !windows && !darwin

// Stub Platform implementation for operating systems without a generic GPU API.
// Only nvidia-smi is attempted.
package platform

import (
	"context"

	"github.com/Guliveer/sysinv/internal/models"
)

// StubPlatform is a minimal Platform for other operating systems.
type StubPlatform struct {
	run runner
}

// New creates a stub platform instance.
func New() Platform {
	return &StubPlatform{run: execRunner}
}

// Name returns the platform identifier.
func (p *StubPlatform) Name() string { return "stub" }

// GPUs returns NVIDIA adapters when nvidia-smi is installed and
// ErrNotSupported otherwise.
func (p *StubPlatform) GPUs(ctx context.Context) ([]models.GPUDevice, error) {
	devices, err := queryNvidiaSMI(ctx, p.run)
	if err != nil {
		if isMissingTool(err) {
			return nil, ErrNotSupported
		}
		return nil, err
	}
	sortDevices(devices)
	return devices, nil
}
