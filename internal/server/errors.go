package server

import "errors"

// Domain errors for the server package. Check with errors.Is.
var (
	// ErrConflict is returned when creating a station interface while
	// one already exists.
	ErrConflict = errors.New("server: station interface already exists")

	// ErrRadioNotFound is returned when the physical radio cannot be
	// resolved from the base interface name.
	ErrRadioNotFound = errors.New("server: radio not found")

	// ErrNoUsableInterface is returned when no kernel-reported interface
	// qualifies for the requested mode.
	ErrNoUsableInterface = errors.New("server: no usable interface found")

	// ErrConfigGeneration is returned when hostapd configuration cannot
	// be generated or written.
	ErrConfigGeneration = errors.New("server: hostapd config generation failed")

	// ErrDaemonStart is returned when an external daemon fails to start.
	ErrDaemonStart = errors.New("server: daemon start failed")

	// ErrDaemonStop is returned when an external daemon fails to stop.
	ErrDaemonStop = errors.New("server: daemon stop failed")

	// ErrModeReset is returned when the interface cannot be forced back
	// to station mode after hostapd is stopped.
	ErrModeReset = errors.New("server: interface mode reset failed")

	// ErrCommandTooLong is returned for raw commands exceeding the token limit.
	ErrCommandTooLong = errors.New("server: command too long")
)

// Logger defines the logging interface used by this package.
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
