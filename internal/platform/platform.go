// Package platform provides an OS abstraction layer for facts that gopsutil
// cannot provide, currently graphics adapter discovery.
// Each supported OS implements the Platform interface.
package platform

import (
	"context"
	"errors"

	"github.com/Guliveer/sysinv/internal/models"
)

// ErrNotSupported is returned when the platform has no way to answer a query.
var ErrNotSupported = errors.New("not supported on this platform")

// Platform provides OS-specific functionality beyond what gopsutil offers.
type Platform interface {
	// GPUs returns the graphics adapters visible to the OS.
	// An empty result means no adapter was found; ErrNotSupported means
	// the platform offers no probe at all.
	GPUs(ctx context.Context) ([]models.GPUDevice, error)

	// Name returns the platform name (windows, linux, darwin, stub).
	Name() string
}
