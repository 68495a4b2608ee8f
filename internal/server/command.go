package server

import (
	"context"
	"strings"
	"sync"

	"github.com/wavelan/wifid/internal/softap"
)

// maxCommandTokens bounds the raw command surface: commands with more
// whitespace-separated tokens are rejected before any parsing.
const maxCommandTokens = 10

// CommandDispatcher parses and executes raw vendor commands received
// over the control surface. It owns the single AP session created by
// "startap" or "startap dual": the matching stopap stops that session's
// daemon and tears down every registered AP interface.
//
// Dispatch returns overall success or failure; it never reports which
// step of a multi-step command failed, matching the vendor contract.
type CommandDispatcher struct {
	server *Server
	tool   softap.Tool
	logger Logger

	mu      sync.Mutex
	session *ApInterface
}

// NewCommandDispatcher creates a dispatcher bound to the server and the
// vendor softap tool.
func NewCommandDispatcher(srv *Server, tool softap.Tool) *CommandDispatcher {
	return &CommandDispatcher{
		server: srv,
		tool:   tool,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *CommandDispatcher) SetLogger(logger Logger) {
	d.logger = logger
}

// Dispatch tokenizes and executes one raw command. It reports success;
// failures are logged with the reason. Commands exceeding
// maxCommandTokens are rejected without side effects.
func (d *CommandDispatcher) Dispatch(ctx context.Context, raw []byte) bool {
	tokens := strings.Fields(string(raw))
	if len(tokens) > maxCommandTokens {
		d.logger.Error("raw command rejected",
			"reason", ErrCommandTooLong, "tokens", len(tokens))
		return false
	}
	if len(tokens) == 0 {
		d.logger.Error("raw command rejected", "reason", "empty command")
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case len(tokens) > 2:
		return d.dispatchLong(ctx, tokens)
	case len(tokens) == 2:
		return d.dispatchShort(ctx, tokens)
	default:
		d.logger.Error("unrecognized raw command", "command", tokens[0])
		return false
	}
}

// dispatchLong handles commands with three or more tokens. The verb is
// the second token; the first carries the vendor tool name and is
// ignored beyond tokenization.
func (d *CommandDispatcher) dispatchLong(ctx context.Context, tokens []string) bool {
	switch tokens[1] {
	case "qccmd":
		if err := d.tool.Exec(tokens[2:]); err != nil {
			d.logger.Error("qccmd failed", "error", err)
			return false
		}
		return true

	case "create":
		if err := d.tool.AddInterface(tokens[2]); err != nil {
			d.logger.Error("interface create failed", "interface", tokens[2], "error", err)
			return false
		}
		return true

	case "remove":
		if err := d.tool.RemoveInterface(tokens[2]); err != nil {
			d.logger.Error("interface remove failed", "interface", tokens[2], "error", err)
			return false
		}
		return true

	case "bridge":
		if err := d.tool.ControlBridge(tokens[2:]); err != nil {
			d.logger.Error("bridge control failed", "error", err)
			return false
		}
		return true

	case "startap":
		if tokens[2] != "dual" {
			d.logger.Error("unrecognized startap variant", "variant", tokens[2])
			return false
		}
		return d.startDualAP(ctx, tokens)

	case "stopap":
		if tokens[2] != "dual" {
			d.logger.Error("unrecognized stopap variant", "variant", tokens[2])
			return false
		}
		return d.stopSessionDaemon()

	case "setsoftap":
		if err := d.tool.SetSoftAP(tokens[2:]); err != nil {
			d.logger.Error("setsoftap failed", "error", err)
			return false
		}
		return true

	default:
		d.logger.Error("unrecognized raw command", "command", tokens[1])
		return false
	}
}

// dispatchShort handles two-token commands: bare startap/stopap against
// the default AP interface.
func (d *CommandDispatcher) dispatchShort(ctx context.Context, tokens []string) bool {
	switch tokens[1] {
	case "startap":
		ap, err := d.server.CreateApInterface(ctx)
		if err != nil {
			d.logger.Error("startap: creating ap interface", "error", err)
			return false
		}
		d.session = ap
		if err := ap.StartDaemon(ctx); err != nil {
			d.logger.Error("startap: starting hostapd", "error", err)
			return false
		}
		return true

	case "stopap":
		return d.stopSessionDaemon()

	default:
		d.logger.Error("unrecognized raw command", "command", tokens[1])
		return false
	}
}

// startDualAP runs the dual-AP bring-up sequence: three AP interfaces
// are claimed in order (the bridge, then the two physical interfaces),
// then the daemon starts on the bridge session. Steps run strictly in
// order; a failed step aborts the sequence but earlier completed steps
// are not rolled back, so a later stopap can still clean up what was
// registered.
func (d *CommandDispatcher) startDualAP(ctx context.Context, tokens []string) bool {
	if len(tokens) < 6 {
		d.logger.Error("startap dual: not enough arguments", "tokens", len(tokens))
		return false
	}

	bridge, err := d.server.CreateNamedApInterface(ctx, tokens[3])
	if err != nil {
		d.logger.Error("startap dual: creating bridge ap interface",
			"interface", tokens[3], "error", err)
		return false
	}
	d.session = bridge

	for _, name := range tokens[4:6] {
		if _, err := d.server.CreateNamedApInterface(ctx, name); err != nil {
			d.logger.Error("startap dual: creating ap interface",
				"interface", name, "error", err)
			return false
		}
	}

	if err := bridge.StartDaemon(ctx); err != nil {
		d.logger.Error("startap dual: starting hostapd", "error", err)
		return false
	}
	return true
}

// stopSessionDaemon stops hostapd on the dispatcher-owned session. On
// success every registered AP interface is torn down and the session
// slot is cleared, so a repeated stopap fails.
func (d *CommandDispatcher) stopSessionDaemon() bool {
	if d.session == nil {
		d.logger.Error("stopap: no active ap session")
		return false
	}
	if err := d.session.StopDaemon(); err != nil {
		d.logger.Error("stopap: stopping hostapd", "error", err)
		return false
	}

	d.server.TearDownApInterfaces()
	d.session = nil
	return true
}
