package server

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/wavelan/wifid/internal/event"
	"github.com/wavelan/wifid/internal/hostapd"
	"github.com/wavelan/wifid/internal/nl80211"
)

// fakeSubscription records Cancel and drops deliveries afterwards.
type fakeSubscription struct {
	mu        sync.Mutex
	cancelled bool
}

func (s *fakeSubscription) Cancel() {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
}

func (s *fakeSubscription) isCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// stationSub pairs a subscription with its sink so tests can inject
// station events the way the kernel delivery path would.
type stationSub struct {
	*fakeSubscription
	ifindex uint32
	sink    nl80211.StationEventSink
}

// deliver injects a station event, honoring cancellation.
func (s *stationSub) deliver(kind nl80211.StationEventKind, mac net.HardwareAddr) {
	if s.isCancelled() {
		return
	}
	s.sink.OnStationEvent(kind, mac)
}

// fakeNL is a scriptable nl80211.Client.
type fakeNL struct {
	wiphy      uint32
	resolveErr error
	snapshot   []nl80211.InterfaceDescriptor
	enumErr    error
	bands      nl80211.BandInfo
	bandsErr   error
	setModeErr error

	mu           sync.Mutex
	resolveCalls int
	enumCalls    int
	modeCalls    []modeCall
	stationSubs  []*stationSub
	regSubs      []*fakeSubscription
	subErr       error
	regSubErr    error
}

type modeCall struct {
	ifindex uint32
	mode    nl80211.InterfaceMode
}

func (f *fakeNL) ResolveRadio(string) (uint32, error) {
	f.mu.Lock()
	f.resolveCalls++
	f.mu.Unlock()
	if f.resolveErr != nil {
		return 0, f.resolveErr
	}
	return f.wiphy, nil
}

func (f *fakeNL) EnumerateInterfaces(uint32) ([]nl80211.InterfaceDescriptor, error) {
	f.mu.Lock()
	f.enumCalls++
	f.mu.Unlock()
	if f.enumErr != nil {
		return nil, f.enumErr
	}
	out := make([]nl80211.InterfaceDescriptor, len(f.snapshot))
	copy(out, f.snapshot)
	return out, nil
}

func (f *fakeNL) SubscribeStationEvents(ifindex uint32, sink nl80211.StationEventSink) (nl80211.Subscription, error) {
	if f.subErr != nil {
		return nil, f.subErr
	}
	sub := &stationSub{fakeSubscription: &fakeSubscription{}, ifindex: ifindex, sink: sink}
	f.mu.Lock()
	f.stationSubs = append(f.stationSubs, sub)
	f.mu.Unlock()
	return sub, nil
}

func (f *fakeNL) SubscribeRegDomainChanges(uint32, nl80211.RegDomainSink) (nl80211.Subscription, error) {
	if f.regSubErr != nil {
		return nil, f.regSubErr
	}
	sub := &fakeSubscription{}
	f.mu.Lock()
	f.regSubs = append(f.regSubs, sub)
	f.mu.Unlock()
	return sub, nil
}

func (f *fakeNL) SetInterfaceMode(ifindex uint32, mode nl80211.InterfaceMode) error {
	f.mu.Lock()
	f.modeCalls = append(f.modeCalls, modeCall{ifindex, mode})
	f.mu.Unlock()
	return f.setModeErr
}

func (f *fakeNL) GetSupportedBands(uint32) (nl80211.BandInfo, error) {
	if f.bandsErr != nil {
		return nl80211.BandInfo{}, f.bandsErr
	}
	return f.bands, nil
}

func (f *fakeNL) lastStationSub() *stationSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.stationSubs) == 0 {
		return nil
	}
	return f.stationSubs[len(f.stationSubs)-1]
}

// fakeIfTool records up/down transitions per interface.
type fakeIfTool struct {
	mu    sync.Mutex
	calls []upStateCall
	err   error
}

type upStateCall struct {
	name string
	up   bool
}

func (f *fakeIfTool) SetUpState(name string, up bool) error {
	f.mu.Lock()
	f.calls = append(f.calls, upStateCall{name, up})
	f.mu.Unlock()
	return f.err
}

func (f *fakeIfTool) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeSupplicant is a scriptable SupplicantController.
type fakeSupplicant struct {
	startErr error
	stopErr  error

	mu         sync.Mutex
	startCalls []string
	stopCalls  int
}

func (f *fakeSupplicant) Start(_ context.Context, ifaceName string) error {
	f.mu.Lock()
	f.startCalls = append(f.startCalls, ifaceName)
	f.mu.Unlock()
	return f.startErr
}

func (f *fakeSupplicant) Stop() error {
	f.mu.Lock()
	f.stopCalls++
	f.mu.Unlock()
	return f.stopErr
}

// fakeHostapd is a scriptable HostapdController.
type fakeHostapd struct {
	buildText string
	buildErr  error
	writeErr  error
	startErr  error
	stopErr   error

	mu         sync.Mutex
	written    []string
	startCalls int
	stopCalls  int
}

func (f *fakeHostapd) BuildConfig(string, hostapd.Settings) (string, error) {
	if f.buildErr != nil {
		return "", f.buildErr
	}
	return f.buildText, nil
}

func (f *fakeHostapd) WriteConfig(text string) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.mu.Lock()
	f.written = append(f.written, text)
	f.mu.Unlock()
	return nil
}

func (f *fakeHostapd) Start(context.Context) error {
	f.mu.Lock()
	f.startCalls++
	f.mu.Unlock()
	return f.startErr
}

func (f *fakeHostapd) Stop() error {
	f.mu.Lock()
	f.stopCalls++
	f.mu.Unlock()
	return f.stopErr
}

// fakeSoftapTool records every vendor tool invocation.
type fakeSoftapTool struct {
	execErr   error
	addErr    error
	removeErr error
	bridgeErr error
	setErr    error

	mu      sync.Mutex
	execs   [][]string
	added   []string
	removed []string
	bridges [][]string
	sets    [][]string
}

func (f *fakeSoftapTool) Exec(args []string) error {
	f.mu.Lock()
	f.execs = append(f.execs, args)
	f.mu.Unlock()
	return f.execErr
}

func (f *fakeSoftapTool) AddInterface(name string) error {
	f.mu.Lock()
	f.added = append(f.added, name)
	f.mu.Unlock()
	return f.addErr
}

func (f *fakeSoftapTool) RemoveInterface(name string) error {
	f.mu.Lock()
	f.removed = append(f.removed, name)
	f.mu.Unlock()
	return f.removeErr
}

func (f *fakeSoftapTool) ControlBridge(args []string) error {
	f.mu.Lock()
	f.bridges = append(f.bridges, args)
	f.mu.Unlock()
	return f.bridgeErr
}

func (f *fakeSoftapTool) SetSoftAP(args []string) error {
	f.mu.Lock()
	f.sets = append(f.sets, args)
	f.mu.Unlock()
	return f.setErr
}

// captureListener records broadcast events for assertions.
type captureListener struct {
	mu     sync.Mutex
	events []event.Event
}

func (l *captureListener) Notify(ev event.Event) error {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
	return nil
}

func (l *captureListener) kinds() []event.Kind {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]event.Kind, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.Kind
	}
	return out
}

var errBoom = errors.New("boom")

func mustMAC(s string) net.HardwareAddr {
	mac, err := net.ParseMAC(s)
	if err != nil {
		panic(err)
	}
	return mac
}

func testDescriptors(names ...string) []nl80211.InterfaceDescriptor {
	out := make([]nl80211.InterfaceDescriptor, len(names))
	for i, name := range names {
		out[i] = nl80211.InterfaceDescriptor{
			Name:  name,
			Index: uint32(i + 1),
			MAC:   mustMAC("02:00:00:00:00:0a"),
		}
	}
	return out
}

func newTestServer(nl *fakeNL) (*Server, *fakeIfTool, *fakeSupplicant, *fakeHostapd, *captureListener) {
	ifTool := &fakeIfTool{}
	sup := &fakeSupplicant{}
	hap := &fakeHostapd{buildText: "interface=test\n"}
	registry := event.NewRegistry()
	listener := &captureListener{}
	registry.Register(listener)
	srv := New("wlan0", nl, ifTool, sup, hap, registry)
	return srv, ifTool, sup, hap, listener
}
