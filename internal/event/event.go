package event

import (
	"net"
	"time"
)

// Kind identifies an interface lifecycle or station event.
type Kind string

const (
	// KindClientInterfaceReady reports a new station-mode interface.
	KindClientInterfaceReady Kind = "client_interface_ready"

	// KindApInterfaceReady reports a new AP-mode interface.
	KindApInterfaceReady Kind = "ap_interface_ready"

	// KindClientInterfaceTornDown reports a station interface going away.
	KindClientInterfaceTornDown Kind = "client_interface_torn_down"

	// KindApInterfaceTornDown reports an AP interface going away.
	KindApInterfaceTornDown Kind = "ap_interface_torn_down"

	// KindSoftApClient reports a station joining or leaving a hosted AP.
	KindSoftApClient Kind = "softap_client"
)

// Event is the payload broadcast to registered listeners.
type Event struct {
	// Kind identifies the event.
	Kind Kind `json:"kind"`

	// InterfaceName is the kernel name of the affected interface.
	InterfaceName string `json:"interface_name,omitempty"`

	// InterfaceIndex is the kernel index of the affected interface.
	InterfaceIndex uint32 `json:"interface_index,omitempty"`

	// MAC is the station hardware address for KindSoftApClient events.
	MAC net.HardwareAddr `json:"mac,omitempty"`

	// Connected is true for a station join, false for a leave.
	// Only meaningful for KindSoftApClient.
	Connected bool `json:"connected,omitempty"`

	// Time is when the event was observed.
	Time time.Time `json:"time"`
}

// Listener receives broadcast events. Implementations must be
// comparable values (typically pointers) so the registry can
// de-duplicate and unregister them by identity.
type Listener interface {
	// Notify delivers one event. A returned error is logged by the
	// registry and does not stop delivery to other listeners.
	Notify(ev Event) error
}
