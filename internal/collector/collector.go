// Package collector defines the Collector interface and provides
// implementations for each host fact category.
package collector

import (
	"context"
	"errors"
	"strings"

	"github.com/Guliveer/sysinv/internal/models"
)

// ErrUnavailable marks a category the current platform cannot provide.
// Collectors wrap it to record an Unavailable fact instead of a PartialError.
var ErrUnavailable = errors.New("unavailable on this platform")

// Collector is the interface that all fact collectors must implement.
// Each collector gathers exactly one category.
type Collector interface {
	// Category returns the category this collector produces.
	Category() models.Category

	// Collect gathers the facts for the category.
	// The context allows for cancellation and timeout control.
	Collect(ctx context.Context) (models.FactValues, error)

	// IsAvailable checks if this collector can run on the current platform.
	// Unavailable collectors yield an Unavailable fact without being called.
	IsAvailable() bool
}

// isUnavailable reports whether err means "no such capability" rather than a failure.
// gopsutil signals unsupported calls with an unexported "not implemented yet" error.
func isUnavailable(err error) bool {
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	return strings.Contains(err.Error(), "not implemented yet")
}
