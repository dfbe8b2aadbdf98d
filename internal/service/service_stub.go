//go:build !windows

// Package service provides a stub implementation for non-Windows platforms.
// On macOS and Linux sysinv runs as a foreground process (or under systemd
// or launchd); the Windows service wrapper is not needed.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Name is the service name.
const Name = "sysinv"

// InventoryService is a pass-through service wrapper for non-Windows platforms.
type InventoryService struct {
	logger  *zap.Logger
	startFn func(ctx context.Context)
}

// New creates a stub service wrapper for non-Windows platforms.
func New(logger *zap.Logger, startFn func(ctx context.Context)) *InventoryService {
	return &InventoryService{
		logger:  logger,
		startFn: startFn,
	}
}

// IsWindowsService always returns false on non-Windows platforms.
func IsWindowsService() bool {
	return false
}

// Run executes startFn directly until ctx is cancelled.
func (s *InventoryService) Run(ctx context.Context) error {
	s.logger.Debug("Running in foreground")
	s.startFn(ctx)
	return nil
}

// ErrNotSupported is returned by Install and Uninstall outside Windows.
var ErrNotSupported = errors.New("service management is only supported on Windows")

// Install is only supported on Windows. The error names the command line to
// run under systemd or launchd instead.
func Install(exePath string, args ...string) error {
	cmdline := strings.Join(append([]string{exePath, "run"}, args...), " ")
	return fmt.Errorf("%w; run %q under systemd or launchd instead", ErrNotSupported, cmdline)
}

// Uninstall is only supported on Windows.
func Uninstall() error {
	return ErrNotSupported
}
