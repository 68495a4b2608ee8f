// Package softap wraps the vendor softap control tool used by the raw
// command surface. The tool is only present on vendor builds; the
// dispatcher treats every call as a single attempt and surfaces the
// result to the remote caller.
package softap

import (
	"errors"
	"fmt"
	"os/exec"
)

// ErrUnavailable is returned by the disabled tool.
var ErrUnavailable = errors.New("softap: vendor tool not available")

// Tool is the vendor softap control surface consumed by the command
// dispatcher.
type Tool interface {
	// Exec passes a raw hostapd control command through to the tool.
	Exec(args []string) error

	// AddInterface creates a vendor-managed AP interface.
	AddInterface(name string) error

	// RemoveInterface removes a vendor-managed AP interface.
	RemoveInterface(name string) error

	// ControlBridge runs a bridge control operation.
	ControlBridge(args []string) error

	// SetSoftAP applies softap parameters directly.
	SetSoftAP(args []string) error
}

// ExecTool implements Tool by invoking the vendor binary.
type ExecTool struct {
	// Binary is the path to the vendor softap tool.
	Binary string
}

// NewExecTool returns a Tool backed by the vendor binary at path.
func NewExecTool(binary string) *ExecTool {
	return &ExecTool{Binary: binary}
}

func (t *ExecTool) run(args ...string) error {
	out, err := exec.Command(t.Binary, args...).CombinedOutput() //nolint:gosec // binary path comes from validated config
	if err != nil {
		return fmt.Errorf("softap tool %v: %w (output: %s)", args, err, out)
	}
	return nil
}

// Exec passes a raw command through to the tool.
func (t *ExecTool) Exec(args []string) error {
	return t.run(append([]string{"qccmd"}, args...)...)
}

// AddInterface creates a vendor-managed AP interface.
func (t *ExecTool) AddInterface(name string) error {
	return t.run("create", name)
}

// RemoveInterface removes a vendor-managed AP interface.
func (t *ExecTool) RemoveInterface(name string) error {
	return t.run("remove", name)
}

// ControlBridge runs a bridge control operation.
func (t *ExecTool) ControlBridge(args []string) error {
	return t.run(append([]string{"bridge"}, args...)...)
}

// SetSoftAP applies softap parameters directly.
func (t *ExecTool) SetSoftAP(args []string) error {
	return t.run(append([]string{"setsoftap"}, args...)...)
}

// Disabled implements Tool for builds without the vendor tool; every
// call fails with ErrUnavailable.
type Disabled struct{}

// Exec always returns ErrUnavailable.
func (Disabled) Exec([]string) error { return ErrUnavailable }

// AddInterface always returns ErrUnavailable.
func (Disabled) AddInterface(string) error { return ErrUnavailable }

// RemoveInterface always returns ErrUnavailable.
func (Disabled) RemoveInterface(string) error { return ErrUnavailable }

// ControlBridge always returns ErrUnavailable.
func (Disabled) ControlBridge([]string) error { return ErrUnavailable }

// SetSoftAP always returns ErrUnavailable.
func (Disabled) SetSoftAP([]string) error { return ErrUnavailable }
