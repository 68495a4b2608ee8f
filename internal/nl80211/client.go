package nl80211

import (
	"errors"
	"net"
)

// Sentinel errors returned by Client implementations.
var (
	// ErrRadioNotFound is returned when no radio backs the given interface name.
	ErrRadioNotFound = errors.New("nl80211: radio not found")

	// ErrInterfaceNotFound is returned when an interface index or name
	// does not resolve.
	ErrInterfaceNotFound = errors.New("nl80211: interface not found")
)

// StationEventSink receives station association events for one interface.
//
// Events for a single subscription are delivered serially; the sink must
// tolerate delivery on a goroutine other than the subscriber's.
type StationEventSink interface {
	OnStationEvent(kind StationEventKind, mac net.HardwareAddr)
}

// RegDomainSink receives regulatory-domain change events for one radio.
// countryCode may be empty when the new domain is unknown.
type RegDomainSink interface {
	OnRegDomainChanged(countryCode string)
}

// Subscription is the token returned by a subscribe call.
type Subscription interface {
	// Cancel stops event delivery. It blocks until any in-flight
	// delivery has completed; after Cancel returns, the sink is
	// guaranteed to receive no further events.
	Cancel()
}

// Client is the kernel wireless facility consumed by the daemon core.
//
// All calls are synchronous single attempts; failures are surfaced to
// the caller without internal retries.
type Client interface {
	// ResolveRadio returns the wiphy index of the radio backing the
	// named interface. Returns ErrRadioNotFound if the radio is absent.
	ResolveRadio(baseIfName string) (uint32, error)

	// EnumerateInterfaces returns a fresh snapshot of the interfaces
	// currently reported for the radio.
	EnumerateInterfaces(wiphy uint32) ([]InterfaceDescriptor, error)

	// SubscribeStationEvents delivers station join/leave events for the
	// given interface index to the sink until the subscription is
	// cancelled.
	SubscribeStationEvents(ifindex uint32, sink StationEventSink) (Subscription, error)

	// SubscribeRegDomainChanges delivers regulatory-domain changes for
	// the given radio to the sink until the subscription is cancelled.
	SubscribeRegDomainChanges(wiphy uint32, sink RegDomainSink) (Subscription, error)

	// SetInterfaceMode switches the interface's operating mode.
	SetInterfaceMode(ifindex uint32, mode InterfaceMode) error

	// GetSupportedBands returns the radio's supported frequency lists.
	GetSupportedBands(wiphy uint32) (BandInfo, error)
}
