package process

import (
	"context"
	"testing"
	"time"
)

func TestNewManager_Defaults(t *testing.T) {
	m := NewManager(Config{
		Name:   "test-proc",
		Binary: "/usr/bin/test",
		Args:   []string{"--flag"},
	})

	if m.config.Name != "test-proc" {
		t.Errorf("Name = %q, want %q", m.config.Name, "test-proc")
	}
	if m.config.GracefulTimeout != defaultGracefulTimeout {
		t.Errorf("GracefulTimeout = %v, want %v", m.config.GracefulTimeout, defaultGracefulTimeout)
	}
}

func TestManager_InitialState(t *testing.T) {
	m := NewManager(Config{Name: "test", Binary: "/bin/true"})

	if m.Status() != StatusStopped {
		t.Errorf("initial Status() = %q, want %q", m.Status(), StatusStopped)
	}
	if m.IsRunning() {
		t.Error("IsRunning() = true, want false")
	}
	if m.PID() != 0 {
		t.Errorf("PID() = %d, want 0", m.PID())
	}
	if m.Uptime() != 0 {
		t.Errorf("Uptime() = %v, want 0", m.Uptime())
	}
	if m.LastError() != nil {
		t.Errorf("LastError() = %v, want nil", m.LastError())
	}
}

func TestManager_StartMissingBinary(t *testing.T) {
	m := NewManager(Config{Name: "missing", Binary: "/nonexistent/binary"})

	if err := m.Start(context.Background()); err == nil {
		t.Fatal("Start() error = nil, want error for missing binary")
	}
	if m.Status() != StatusFailed {
		t.Errorf("Status() = %q, want %q", m.Status(), StatusFailed)
	}
}

func TestManager_StopWhenNotRunning(t *testing.T) {
	m := NewManager(Config{Name: "idle", Binary: "/bin/true"})

	if err := m.Stop(); err != nil {
		t.Errorf("Stop() on stopped manager error = %v, want nil", err)
	}
}

func TestManager_RunToCompletion(t *testing.T) {
	exited := make(chan error, 1)
	m := NewManager(Config{
		Name:   "true",
		Binary: "/bin/true",
		OnExit: func(err error) { exited <- err },
	})

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case err := <-exited:
		if err != nil {
			t.Errorf("OnExit err = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit within 5s")
	}

	if m.Status() != StatusStopped {
		t.Errorf("Status() = %q, want %q", m.Status(), StatusStopped)
	}
}

func TestManager_StopRunningProcess(t *testing.T) {
	m := NewManager(Config{
		Name:            "sleep",
		Binary:          "/bin/sleep",
		Args:            []string{"60"},
		GracefulTimeout: 2 * time.Second,
	})

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !m.IsRunning() {
		t.Fatal("IsRunning() = false after Start")
	}
	if m.PID() == 0 {
		t.Error("PID() = 0 for running process")
	}

	if err := m.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if m.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
}

func TestManager_StartTwice(t *testing.T) {
	m := NewManager(Config{
		Name:            "sleep",
		Binary:          "/bin/sleep",
		Args:            []string{"60"},
		GracefulTimeout: 2 * time.Second,
	})

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}
	defer m.Stop() //nolint:errcheck // cleanup

	if err := m.Start(context.Background()); err == nil {
		t.Error("second Start() error = nil, want already-running error")
	}
}
