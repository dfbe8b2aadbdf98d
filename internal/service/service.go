//go:build windows

// Package service provides Windows Service integration.
// When running as a Windows service, scheduled collection runs inside the
// SCM control loop. When running from a terminal, it runs in foreground.
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"
)

// Name is the Windows service name.
const Name = "sysinv"

const (
	displayName = "sysinv Inventory Collector"
	description = "Collects host hardware and OS facts into JSON snapshots and a database"
)

// stopTimeout bounds how long a stop request waits for the current run.
const stopTimeout = 30 * time.Second

// InventoryService implements the Windows service interface (svc.Handler).
type InventoryService struct {
	logger  *zap.Logger
	startFn func(ctx context.Context)
}

// New creates a new Windows service wrapper.
// The startFn is called with a cancellable context when the service starts
// and must return once the context is cancelled.
func New(logger *zap.Logger, startFn func(ctx context.Context)) *InventoryService {
	return &InventoryService{
		logger:  logger,
		startFn: startFn,
	}
}

// IsWindowsService checks if the process is running as a Windows service.
func IsWindowsService() bool {
	isService, err := svc.IsWindowsService()
	if err != nil {
		return false
	}
	return isService
}

// Run starts the Windows service control loop. ctx is unused: the SCM
// controls the service lifetime.
func (s *InventoryService) Run(_ context.Context) error {
	return svc.Run(Name, s)
}

// Execute implements the svc.Handler interface for Windows SCM integration.
// It manages the service lifecycle: start, running, stop/shutdown.
func (s *InventoryService) Execute(args []string, r <-chan svc.ChangeRequest, changes chan<- svc.Status) (ssec bool, errno uint32) {
	changes <- svc.Status{State: svc.StartPending}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.startFn(ctx)
	}()

	changes <- svc.Status{
		State:   svc.Running,
		Accepts: svc.AcceptStop | svc.AcceptShutdown,
	}
	s.logger.Info("Windows service started")

	for {
		select {
		case <-done:
			s.logger.Warn("Scheduler exited, stopping service")
			changes <- svc.Status{State: svc.StopPending}
			return false, 0
		case c := <-r:
			switch c.Cmd {
			case svc.Interrogate:
				changes <- c.CurrentStatus
			case svc.Stop, svc.Shutdown:
				s.logger.Info("Windows service stopping")
				changes <- svc.Status{State: svc.StopPending}
				cancel()
				select {
				case <-done:
				case <-time.After(stopTimeout):
					s.logger.Warn("Run did not finish before stop timeout")
				}
				return false, 0
			default:
				s.logger.Warn("Unexpected service control request",
					zap.Uint32("cmd", uint32(c.Cmd)))
			}
		}
	}
}

// Install registers exePath with the Service Control Manager as an
// automatically started service running `run` with args, then starts it.
func Install(exePath string, args ...string) error {
	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("connecting to SCM: %w", err)
	}
	defer m.Disconnect()

	if s, err := m.OpenService(Name); err == nil {
		s.Close()
		return fmt.Errorf("service %s is already installed", Name)
	}

	s, err := m.CreateService(Name, exePath, mgr.Config{
		DisplayName: displayName,
		Description: description,
		StartType:   mgr.StartAutomatic,
	}, append([]string{"run"}, args...)...)
	if err != nil {
		return fmt.Errorf("creating service: %w", err)
	}
	defer s.Close()

	if err := s.Start(); err != nil {
		return fmt.Errorf("starting service: %w", err)
	}
	return nil
}

// Uninstall stops and deletes the service.
func Uninstall() error {
	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("connecting to SCM: %w", err)
	}
	defer m.Disconnect()

	s, err := m.OpenService(Name)
	if err != nil {
		return fmt.Errorf("opening service: %w", err)
	}
	defer s.Close()

	// Already stopped is fine.
	_, _ = s.Control(svc.Stop)

	if err := s.Delete(); err != nil {
		return fmt.Errorf("deleting service: %w", err)
	}
	return nil
}
