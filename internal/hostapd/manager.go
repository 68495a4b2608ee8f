package hostapd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/wavelan/wifid/internal/process"
)

// configFileMode is the permission mode for the generated config file.
// The file carries the network passphrase.
const configFileMode = 0600

// Config holds hostapd manager settings.
type Config struct {
	// Binary is the path to the hostapd executable.
	Binary string

	// ConfigPath is where generated configuration is written.
	ConfigPath string

	// ControlDir is the hostapd control interface directory, emitted
	// into the generated configuration.
	ControlDir string

	// GracefulTimeout is how long to wait for hostapd to exit after
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

// Manager owns one hostapd process and its configuration file.
//
// The lifecycle is: BuildConfig (pure), WriteConfig, Start, Stop.
// All methods are single attempts; failures are returned to the caller
// without retries.
type Manager struct {
	cfg    Config
	logger Logger

	mu      sync.Mutex
	proc    *process.Manager
	written bool
}

// NewManager creates a hostapd manager.
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

// BuildConfig generates configuration text for the given interface and
// settings, using the manager's control directory.
func (m *Manager) BuildConfig(ifaceName string, s Settings) (string, error) {
	return BuildConfig(ifaceName, m.cfg.ControlDir, s)
}

// WriteConfig persists generated configuration text to the configured
// path. The next Start picks it up.
func (m *Manager) WriteConfig(text string) error {
	if text == "" {
		return fmt.Errorf("hostapd: refusing to write empty config")
	}

	dir := filepath.Dir(m.cfg.ConfigPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(m.cfg.ConfigPath, []byte(text), configFileMode); err != nil {
		return fmt.Errorf("writing hostapd config: %w", err)
	}

	m.mu.Lock()
	m.written = true
	m.mu.Unlock()

	m.logger.Debug("hostapd config written", "path", m.cfg.ConfigPath)
	return nil
}

// Start launches hostapd against the previously written configuration.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.written {
		return fmt.Errorf("hostapd: no config written before start")
	}
	if m.proc != nil && m.proc.IsRunning() {
		return fmt.Errorf("hostapd: already running")
	}

	proc := process.NewManager(process.Config{
		Name:            "hostapd",
		Binary:          m.cfg.Binary,
		Args:            []string{m.cfg.ConfigPath},
		GracefulTimeout: m.cfg.GracefulTimeout,
	})
	proc.SetLogger(m.logger)

	if err := proc.Start(ctx); err != nil {
		return fmt.Errorf("starting hostapd: %w", err)
	}

	m.proc = proc
	m.logger.Info("hostapd started", "pid", proc.PID())
	return nil
}

// Stop terminates the hostapd process. Stopping when not running is a
// no-op; hostapd gets no chance to clean up interface state itself, so
// callers are responsible for resetting the interface afterwards.
func (m *Manager) Stop() error {
	m.mu.Lock()
	proc := m.proc
	m.mu.Unlock()

	if proc == nil {
		return nil
	}
	if err := proc.Stop(); err != nil {
		return fmt.Errorf("stopping hostapd: %w", err)
	}
	return nil
}

// IsRunning reports whether the hostapd process is currently running.
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	proc := m.proc
	m.mu.Unlock()
	return proc != nil && proc.IsRunning()
}
