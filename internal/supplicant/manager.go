// Package supplicant manages the wpa_supplicant daemon process for the
// station interface.
package supplicant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wavelan/wifid/internal/process"
)

// Config holds wpa_supplicant manager settings.
type Config struct {
	// Binary is the path to the wpa_supplicant executable.
	Binary string

	// ConfigFile is the supplicant configuration file path.
	ConfigFile string

	// ControlDir is the control socket directory.
	ControlDir string

	// GracefulTimeout is how long to wait for the daemon to exit after
	// SIGTERM before it is killed.
	GracefulTimeout time.Duration
}

// Logger defines the logging interface for the manager.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Manager owns one wpa_supplicant process bound to one interface.
// Start and Stop are single attempts.
type Manager struct {
	cfg    Config
	logger Logger

	mu   sync.Mutex
	proc *process.Manager
}

// NewManager creates a supplicant manager.
func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:    cfg,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the manager.
func (m *Manager) SetLogger(logger Logger) {
	m.logger = logger
}

// Start launches wpa_supplicant for the given interface.
func (m *Manager) Start(ctx context.Context, ifaceName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.proc != nil && m.proc.IsRunning() {
		return fmt.Errorf("supplicant: already running")
	}

	args := []string{
		"-i", ifaceName,
		"-c", m.cfg.ConfigFile,
		"-O", m.cfg.ControlDir,
	}

	proc := process.NewManager(process.Config{
		Name:            "wpa_supplicant",
		Binary:          m.cfg.Binary,
		Args:            args,
		GracefulTimeout: m.cfg.GracefulTimeout,
	})
	proc.SetLogger(m.logger)

	if err := proc.Start(ctx); err != nil {
		return fmt.Errorf("starting wpa_supplicant: %w", err)
	}

	m.proc = proc
	m.logger.Info("wpa_supplicant started", "interface", ifaceName, "pid", proc.PID())
	return nil
}

// Stop terminates the wpa_supplicant process. Stopping when not running
// is a no-op.
func (m *Manager) Stop() error {
	m.mu.Lock()
	proc := m.proc
	m.mu.Unlock()

	if proc == nil {
		return nil
	}
	if err := proc.Stop(); err != nil {
		return fmt.Errorf("stopping wpa_supplicant: %w", err)
	}
	return nil
}

// IsRunning reports whether the supplicant process is currently running.
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	proc := m.proc
	m.mu.Unlock()
	return proc != nil && proc.IsRunning()
}
