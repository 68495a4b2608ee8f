package nl80211

import "net"

// InterfaceDescriptor describes one kernel-visible interface on a radio.
// Descriptors are immutable snapshots; a fresh enumeration is taken at
// the start of every creation or teardown-all operation.
type InterfaceDescriptor struct {
	// Name is the kernel interface name (e.g. "wlan0").
	Name string

	// Index is the kernel interface index. Unique within one snapshot.
	Index uint32

	// MAC is the interface hardware address.
	MAC net.HardwareAddr
}

// InterfaceMode is the operating mode of an interface.
type InterfaceMode int

const (
	// ModeStation configures the interface as a client of another AP.
	ModeStation InterfaceMode = iota

	// ModeAP configures the interface to host its own network.
	ModeAP
)

// String returns the mode name.
func (m InterfaceMode) String() string {
	switch m {
	case ModeStation:
		return "station"
	case ModeAP:
		return "ap"
	default:
		return "unknown"
	}
}

// BandInfo lists the frequencies (MHz) supported by a radio, grouped
// the way the regulatory logging reports them.
type BandInfo struct {
	Band2G    []uint32
	Band5G    []uint32
	Band5GDFS []uint32
}

// StationEventKind distinguishes station association events.
type StationEventKind int

const (
	// StationJoined reports a station associating with the AP.
	StationJoined StationEventKind = iota

	// StationLeft reports a station disassociating from the AP.
	StationLeft
)

// String returns the event kind name.
func (k StationEventKind) String() string {
	switch k {
	case StationJoined:
		return "joined"
	case StationLeft:
		return "left"
	default:
		return "unknown"
	}
}
