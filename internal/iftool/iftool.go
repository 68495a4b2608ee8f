// Package iftool changes interface administrative state.
//
// The daemon core consumes the Tool interface; the default
// implementation shells out to ip(8). Calls are single attempts.
package iftool

import (
	"fmt"
	"os/exec"
)

// Tool sets interface administrative state.
type Tool interface {
	// SetUpState brings the named interface administratively up or down.
	SetUpState(name string, up bool) error
}

// IPTool implements Tool using the ip(8) command.
type IPTool struct {
	// Binary is the path to the ip executable. Defaults to "ip" on PATH.
	Binary string
}

// NewIPTool returns a Tool backed by the ip command.
func NewIPTool() *IPTool {
	return &IPTool{Binary: "ip"}
}

// SetUpState runs "ip link set dev <name> up|down".
func (t *IPTool) SetUpState(name string, up bool) error {
	state := "down"
	if up {
		state = "up"
	}

	binary := t.Binary
	if binary == "" {
		binary = "ip"
	}

	out, err := exec.Command(binary, "link", "set", "dev", name, state).CombinedOutput() //nolint:gosec // fixed argument layout
	if err != nil {
		return fmt.Errorf("setting %s %s: %w (output: %s)", name, state, err, out)
	}
	return nil
}
