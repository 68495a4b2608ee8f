package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/wavelan/wifid/internal/event"
	"github.com/wavelan/wifid/internal/hostapd"
	"github.com/wavelan/wifid/internal/iftool"
	"github.com/wavelan/wifid/internal/nl80211"
)

// HostapdController is the hostapd lifecycle consumed by an AP
// interface. Satisfied by *hostapd.Manager.
type HostapdController interface {
	BuildConfig(ifaceName string, s hostapd.Settings) (string, error)
	WriteConfig(text string) error
	Start(ctx context.Context) error
	Stop() error
}

// ApInterface wraps one physical interface claimed in access-point
// mode. It owns the hostapd lifecycle, subscribes to station
// association events for its interface index, and maintains the
// associated-station counter.
//
// The counter is mutated only by the event delivery path and read
// concurrently through StationCount; it never goes below zero.
type ApInterface struct {
	desc     nl80211.InterfaceDescriptor
	nl       nl80211.Client
	ifTool   iftool.Tool
	hostapd  HostapdController
	registry *event.Registry
	logger   Logger

	sub      nl80211.Subscription
	stations atomic.Int32

	mu       sync.Mutex
	released bool
}

// newApInterface constructs an AP-mode controller and subscribes to
// station events for its interface index. A subscription failure fails
// the construction; no controller state is left behind.
func newApInterface(
	desc nl80211.InterfaceDescriptor,
	nl nl80211.Client,
	ifTool iftool.Tool,
	hostapdCtl HostapdController,
	registry *event.Registry,
	logger Logger,
) (*ApInterface, error) {
	a := &ApInterface{
		desc:     desc,
		nl:       nl,
		ifTool:   ifTool,
		hostapd:  hostapdCtl,
		registry: registry,
		logger:   logger,
	}

	sub, err := nl.SubscribeStationEvents(desc.Index, a)
	if err != nil {
		return nil, fmt.Errorf("subscribing to station events for %s: %w", desc.Name, err)
	}
	a.sub = sub

	a.logger.Debug("created ap interface",
		"interface", desc.Name,
		"index", desc.Index,
	)
	return a, nil
}

// Name returns the kernel interface name.
func (a *ApInterface) Name() string { return a.desc.Name }

// Index returns the kernel interface index.
func (a *ApInterface) Index() uint32 { return a.desc.Index }

// Descriptor returns a copy of the owned interface descriptor.
func (a *ApInterface) Descriptor() nl80211.InterfaceDescriptor { return a.desc }

// WriteConfig generates and persists hostapd configuration for this
// interface. An empty or failed generation is a config generation error
// and leaves the previous configuration untouched.
func (a *ApInterface) WriteConfig(s hostapd.Settings) error {
	text, err := a.hostapd.BuildConfig(a.desc.Name, s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfigGeneration, err)
	}
	if text == "" {
		return fmt.Errorf("%w: empty config text", ErrConfigGeneration)
	}
	if err := a.hostapd.WriteConfig(text); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigGeneration, err)
	}
	return nil
}

// StartDaemon launches hostapd against the previously written
// configuration.
func (a *ApInterface) StartDaemon(ctx context.Context) error {
	if err := a.hostapd.Start(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrDaemonStart, err)
	}
	a.logger.Info("hostapd running", "interface", a.desc.Name)
	return nil
}

// StopDaemon stops hostapd and restores the interface.
//
// The interface is marked down and forced back to station mode even
// when the daemon stop fails: hostapd is killed rather than asked to
// exit, so it never gets a chance to clean up after itself. A mode
// reset failure dominates the result.
func (a *ApInterface) StopDaemon() error {
	stopErr := a.hostapd.Stop()
	if stopErr != nil {
		a.logger.Warn("hostapd stop failed, continuing interface cleanup",
			"interface", a.desc.Name, "error", stopErr)
	}

	if err := a.ifTool.SetUpState(a.desc.Name, false); err != nil {
		a.logger.Warn("failed to mark interface down",
			"interface", a.desc.Name, "error", err)
	}

	if err := a.nl.SetInterfaceMode(a.desc.Index, nl80211.ModeStation); err != nil {
		return fmt.Errorf("%w: %v", ErrModeReset, err)
	}

	if stopErr != nil {
		return fmt.Errorf("%w: %v", ErrDaemonStop, stopErr)
	}
	return nil
}

// OnStationEvent implements nl80211.StationEventSink. It is invoked on
// the kernel event delivery path, concurrently with call-in operations
// but never after the controller's subscription has been cancelled.
func (a *ApInterface) OnStationEvent(kind nl80211.StationEventKind, mac net.HardwareAddr) {
	switch kind {
	case nl80211.StationJoined:
		count := a.stations.Add(1)
		a.logger.Info("station associated with hotspot",
			"interface", a.desc.Name,
			"station", macString(mac),
			"associated", count,
		)
	case nl80211.StationLeft:
		// The counter is mutated only on this delivery path, so a
		// check-then-decrement cannot race another writer.
		if a.stations.Load() <= 0 {
			a.logger.Error("station leave event with counter at zero",
				"interface", a.desc.Name,
				"station", macString(mac),
			)
			break
		}
		count := a.stations.Add(-1)
		a.logger.Info("station disassociated from hotspot",
			"interface", a.desc.Name,
			"station", macString(mac),
			"associated", count,
		)
	default:
		a.logger.Warn("unknown station event", "kind", int(kind))
		return
	}

	a.registry.Broadcast(event.Event{
		Kind:           event.KindSoftApClient,
		InterfaceName:  a.desc.Name,
		InterfaceIndex: a.desc.Index,
		MAC:            mac,
		Connected:      kind == nl80211.StationJoined,
	})
}

// StationCount returns the number of currently associated stations.
func (a *ApInterface) StationCount() int {
	return int(a.stations.Load())
}

// release tears down the controller's owned resources in order: the
// station event subscription is cancelled first (blocking until no
// further callbacks can arrive), then hostapd is stopped, then the
// interface is marked down. Failures are logged, not propagated;
// release is idempotent.
func (a *ApInterface) release() {
	a.mu.Lock()
	if a.released {
		a.mu.Unlock()
		return
	}
	a.released = true
	a.mu.Unlock()

	a.sub.Cancel()

	if err := a.hostapd.Stop(); err != nil {
		a.logger.Warn("failed to stop hostapd during teardown",
			"interface", a.desc.Name, "error", err)
	}
	if err := a.ifTool.SetUpState(a.desc.Name, false); err != nil {
		a.logger.Warn("failed to mark interface down during teardown",
			"interface", a.desc.Name, "error", err)
	}
}

// Dump writes a textual description of the controller state.
func (a *ApInterface) Dump(w io.Writer) {
	fmt.Fprintf(w, "------- Dump of AP interface with index: %d and name: %s -------\n",
		a.desc.Index, a.desc.Name)
	fmt.Fprintf(w, "Number of associated stations: %d\n", a.StationCount())
	fmt.Fprintln(w, "------- Dump End -------")
}

// macString formats a hardware address for logging.
func macString(mac net.HardwareAddr) string {
	if len(mac) == 0 {
		return "<unknown>"
	}
	return mac.String()
}
