package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/wavelan/wifid/internal/event"
	"github.com/wavelan/wifid/internal/iftool"
	"github.com/wavelan/wifid/internal/nl80211"
)

// Reserved interface names excluded from station-mode selection. Some
// drivers report P2P and NAN interfaces with station type, so name
// matching is the only reliable filter; softap interfaces are likewise
// never claimed for station mode.
const reservedP2PName = "p2p0"

var reservedStationPrefixes = []string{"aware_data", "softap"}

// Server is the top-level owner of station and AP interface controllers
// for one physical radio.
//
// Lifecycle operations are serialized by the Server's mutex; controller
// collections are mutated only on that path. Kernel event delivery
// never touches the collections.
type Server struct {
	baseIfName string
	nl         nl80211.Client
	ifTool     iftool.Tool
	supplicant SupplicantController
	hostapd    HostapdController
	registry   *event.Registry
	logger     Logger

	// lookupInterface is the OS-level fallback used for bridge
	// pseudo-interfaces the radio enumeration does not report.
	lookupInterface func(name string) (*net.Interface, error)

	// wiphy is read from the regulatory event path, so it is atomic.
	wiphy atomic.Uint32

	mu           sync.Mutex
	snapshot     []nl80211.InterfaceDescriptor
	clientIfaces []*ClientInterface
	apIfaces     []*ApInterface
	regSub       nl80211.Subscription
}

// New creates a Server for the radio backing baseIfName.
func New(
	baseIfName string,
	nl nl80211.Client,
	ifTool iftool.Tool,
	sup SupplicantController,
	hostapdCtl HostapdController,
	registry *event.Registry,
) *Server {
	return &Server{
		baseIfName:      baseIfName,
		nl:              nl,
		ifTool:          ifTool,
		supplicant:      sup,
		hostapd:         hostapdCtl,
		registry:        registry,
		logger:          noopLogger{},
		lookupInterface: net.InterfaceByName,
	}
}

// SetLogger sets the logger for the server.
func (s *Server) SetLogger(logger Logger) {
	s.logger = logger
}

// Registry returns the event listener registry.
func (s *Server) Registry() *event.Registry {
	return s.registry
}

// CreateClientInterface claims a physical interface in station mode.
//
// At most one station interface exists system-wide; a second creation
// attempt fails with ErrConflict and performs no kernel changes. The
// radio is re-resolved and a fresh interface snapshot is taken on every
// attempt.
func (s *Server) CreateClientInterface(ctx context.Context) (*ClientInterface, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.clientIfaces) > 0 {
		return nil, fmt.Errorf("%w: cannot create station interface while %s exists",
			ErrConflict, s.clientIfaces[0].Name())
	}

	if err := s.refreshRadioLocked(); err != nil {
		return nil, err
	}

	desc, ok := selectStationInterface(s.snapshot)
	if !ok {
		return nil, fmt.Errorf("%w: no station-capable interface in snapshot", ErrNoUsableInterface)
	}

	ci := newClientInterface(desc, s.ifTool, s.supplicant, s.logger)
	s.clientIfaces = append(s.clientIfaces, ci)

	s.registry.Broadcast(event.Event{
		Kind:           event.KindClientInterfaceReady,
		InterfaceName:  desc.Name,
		InterfaceIndex: desc.Index,
	})

	s.logger.Info("client interface created", "interface", desc.Name, "index", desc.Index)
	return ci, nil
}

// CreateApInterface claims a physical interface in access-point mode.
// Multiple AP interfaces may coexist; the station exclusion list does
// not apply.
func (s *Server) CreateApInterface(ctx context.Context) (*ApInterface, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refreshRadioLocked(); err != nil {
		return nil, err
	}

	if len(s.snapshot) == 0 {
		return nil, fmt.Errorf("%w: radio reports no interfaces", ErrNoUsableInterface)
	}

	return s.registerApInterfaceLocked(ctx, s.snapshot[0])
}

// CreateNamedApInterface claims the interface matching requestedName in
// access-point mode. The snapshot is searched by name prefix; when
// nothing matches (bridge pseudo-interfaces are not part of the radio
// enumeration), the name is resolved through the OS interface table and
// a descriptor is synthesized from its hardware address.
func (s *Server) CreateNamedApInterface(ctx context.Context, requestedName string) (*ApInterface, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refreshRadioLocked(); err != nil {
		return nil, err
	}

	for _, desc := range s.snapshot {
		if strings.HasPrefix(desc.Name, requestedName) {
			return s.registerApInterfaceLocked(ctx, desc)
		}
	}

	osIface, err := s.lookupInterface(requestedName)
	if err != nil {
		return nil, fmt.Errorf("%w: no interface named %q", ErrNoUsableInterface, requestedName)
	}

	desc := nl80211.InterfaceDescriptor{
		Name:  requestedName,
		Index: uint32(osIface.Index), //nolint:gosec // kernel indexes fit in uint32
		MAC:   osIface.HardwareAddr,
	}
	s.logger.Info("bridged interface found", "interface", requestedName, "index", desc.Index)

	return s.registerApInterfaceLocked(ctx, desc)
}

// registerApInterfaceLocked constructs, registers and announces an AP
// controller for the descriptor. Caller holds s.mu.
func (s *Server) registerApInterfaceLocked(ctx context.Context, desc nl80211.InterfaceDescriptor) (*ApInterface, error) {
	ap, err := newApInterface(desc, s.nl, s.ifTool, s.hostapd, s.registry, s.logger)
	if err != nil {
		return nil, err
	}
	s.apIfaces = append(s.apIfaces, ap)

	s.registry.Broadcast(event.Event{
		Kind:           event.KindApInterfaceReady,
		InterfaceName:  desc.Name,
		InterfaceIndex: desc.Index,
	})

	s.logger.Info("ap interface created", "interface", desc.Name, "index", desc.Index)
	return ap, nil
}

// refreshRadioLocked re-resolves the radio, renews the regulatory
// subscription and takes a fresh interface snapshot. Caller holds s.mu.
func (s *Server) refreshRadioLocked() error {
	wiphy, err := s.nl.ResolveRadio(s.baseIfName)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRadioNotFound, err)
	}
	s.wiphy.Store(wiphy)

	// Re-subscribing replaces any prior subscription for the radio. A
	// failure here only costs regulatory logging, not the operation.
	if s.regSub != nil {
		s.regSub.Cancel()
		s.regSub = nil
	}
	sub, err := s.nl.SubscribeRegDomainChanges(wiphy, s)
	if err != nil {
		s.logger.Warn("failed to subscribe to regulatory domain changes", "error", err)
	} else {
		s.regSub = sub
	}

	snapshot, err := s.nl.EnumerateInterfaces(wiphy)
	if err != nil {
		return fmt.Errorf("%w: enumerating interfaces: %v", ErrNoUsableInterface, err)
	}
	s.snapshot = snapshot
	return nil
}

// selectStationInterface returns the first descriptor eligible for
// station mode, skipping reserved names.
func selectStationInterface(snapshot []nl80211.InterfaceDescriptor) (nl80211.InterfaceDescriptor, bool) {
	for _, desc := range snapshot {
		if desc.Name == reservedP2PName {
			continue
		}
		if hasReservedPrefix(desc.Name) {
			continue
		}
		return desc, true
	}
	return nl80211.InterfaceDescriptor{}, false
}

func hasReservedPrefix(name string) bool {
	for _, prefix := range reservedStationPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// TearDownClientInterfaces releases every station controller: each is
// announced as torn down, then released per the destruction order
// contract.
func (s *Server) TearDownClientInterfaces() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tearDownClientInterfacesLocked()
}

func (s *Server) tearDownClientInterfacesLocked() {
	for _, ci := range s.clientIfaces {
		s.registry.Broadcast(event.Event{
			Kind:           event.KindClientInterfaceTornDown,
			InterfaceName:  ci.Name(),
			InterfaceIndex: ci.Index(),
		})
		ci.release()
	}
	s.clientIfaces = nil
}

// TearDownApInterfaces releases every AP controller.
func (s *Server) TearDownApInterfaces() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tearDownApInterfacesLocked()
}

func (s *Server) tearDownApInterfacesLocked() {
	for _, ap := range s.apIfaces {
		s.registry.Broadcast(event.Event{
			Kind:           event.KindApInterfaceTornDown,
			InterfaceName:  ap.Name(),
			InterfaceIndex: ap.Index(),
		})
		ap.release()
	}
	s.apIfaces = nil
}

// TearDownAll releases every controller of both kinds, then best-effort
// marks all radio interfaces down and cancels the regulatory
// subscription. Cleanup failures are logged, never propagated.
func (s *Server) TearDownAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tearDownClientInterfacesLocked()
	s.tearDownApInterfacesLocked()

	s.markDownAllInterfacesLocked()

	if s.regSub != nil {
		s.regSub.Cancel()
		s.regSub = nil
	}
}

// markDownAllInterfacesLocked marks every radio-reported interface
// administratively down. Best effort.
func (s *Server) markDownAllInterfacesLocked() {
	wiphy, err := s.nl.ResolveRadio(s.baseIfName)
	if err != nil {
		s.logger.Warn("cannot resolve radio for interface cleanup", "error", err)
		return
	}
	interfaces, err := s.nl.EnumerateInterfaces(wiphy)
	if err != nil {
		s.logger.Warn("cannot enumerate interfaces for cleanup", "error", err)
		return
	}
	for _, desc := range interfaces {
		if err := s.ifTool.SetUpState(desc.Name, false); err != nil {
			s.logger.Warn("failed to mark interface down",
				"interface", desc.Name, "error", err)
		}
	}
}

// CleanUpSystemState stops any daemons and interfaces left over from a
// previous daemon instance. Called once at startup; best effort.
func (s *Server) CleanUpSystemState() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.supplicant.Stop(); err != nil {
		s.logger.Warn("startup cleanup: stopping supplicant", "error", err)
	}
	if err := s.hostapd.Stop(); err != nil {
		s.logger.Warn("startup cleanup: stopping hostapd", "error", err)
	}
	s.markDownAllInterfacesLocked()
}

// ListClientInterfaces returns the active station controllers.
func (s *Server) ListClientInterfaces() []*ClientInterface {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*ClientInterface, len(s.clientIfaces))
	copy(out, s.clientIfaces)
	return out
}

// ListApInterfaces returns the active AP controllers.
func (s *Server) ListApInterfaces() []*ApInterface {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*ApInterface, len(s.apIfaces))
	copy(out, s.apIfaces)
	return out
}

// OnRegDomainChanged implements nl80211.RegDomainSink. It is an
// observability hook: the new country code and the radio's current
// frequency support are logged, and nothing is cached.
func (s *Server) OnRegDomainChanged(countryCode string) {
	if countryCode == "" {
		s.logger.Info("regulatory domain changed", "country", "unknown")
	} else {
		s.logger.Info("regulatory domain changed", "country", countryCode)
	}
	s.logSupportedBands()
}

// logSupportedBands re-queries and logs the radio's frequency lists.
func (s *Server) logSupportedBands() {
	bands, err := s.nl.GetSupportedBands(s.wiphy.Load())
	if err != nil {
		s.logger.Warn("failed to query supported bands", "error", err)
		return
	}
	s.logger.Info("supported frequencies",
		"2.4GHz", bands.Band2G,
		"5GHz_non_DFS", bands.Band5G,
		"5GHz_DFS", bands.Band5GDFS,
	)
}

// Dump writes the daemon's interface state as text: the radio index,
// the cached interface snapshot, and each controller's own dump.
func (s *Server) Dump(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprintf(w, "Current wiphy index: %d\n", s.wiphy.Load()); err != nil {
		return fmt.Errorf("writing dump: %w", err)
	}
	fmt.Fprintln(w, "Cached interfaces list from kernel message:")
	for _, desc := range s.snapshot {
		fmt.Fprintf(w, "Interface index: %d, name: %s, mac address: %s\n",
			desc.Index, desc.Name, macString(desc.MAC))
	}
	for _, ci := range s.clientIfaces {
		ci.Dump(w)
	}
	for _, ap := range s.apIfaces {
		ap.Dump(w)
	}
	return nil
}
