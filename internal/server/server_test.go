package server

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/wavelan/wifid/internal/event"
	"github.com/wavelan/wifid/internal/nl80211"
)

func TestCreateClientInterfaceSkipsReservedNames(t *testing.T) {
	nl := &fakeNL{
		wiphy:    3,
		snapshot: testDescriptors("p2p0", "aware_data0", "softap0", "wlan1"),
	}
	srv, _, _, _, listener := newTestServer(nl)

	ci, err := srv.CreateClientInterface(context.Background())
	if err != nil {
		t.Fatalf("CreateClientInterface() error = %v", err)
	}
	if ci.Name() != "wlan1" {
		t.Errorf("selected interface = %q, want %q", ci.Name(), "wlan1")
	}

	kinds := listener.kinds()
	if len(kinds) != 1 || kinds[0] != event.KindClientInterfaceReady {
		t.Errorf("broadcast kinds = %v, want [%v]", kinds, event.KindClientInterfaceReady)
	}
}

func TestCreateClientInterfaceNoUsableInterface(t *testing.T) {
	nl := &fakeNL{
		wiphy:    3,
		snapshot: testDescriptors("p2p0", "aware_data1", "softap_br0"),
	}
	srv, _, _, _, _ := newTestServer(nl)

	if _, err := srv.CreateClientInterface(context.Background()); !errors.Is(err, ErrNoUsableInterface) {
		t.Errorf("CreateClientInterface() error = %v, want ErrNoUsableInterface", err)
	}
}

func TestCreateClientInterfaceConflict(t *testing.T) {
	nl := &fakeNL{wiphy: 3, snapshot: testDescriptors("wlan0")}
	srv, ifTool, _, _, _ := newTestServer(nl)

	if _, err := srv.CreateClientInterface(context.Background()); err != nil {
		t.Fatalf("first CreateClientInterface() error = %v", err)
	}

	nl.mu.Lock()
	resolvesBefore := nl.resolveCalls
	nl.mu.Unlock()
	modeCallsBefore := len(nl.modeCalls)
	ifCallsBefore := ifTool.callCount()

	for i := 0; i < 3; i++ {
		if _, err := srv.CreateClientInterface(context.Background()); !errors.Is(err, ErrConflict) {
			t.Fatalf("CreateClientInterface() #%d error = %v, want ErrConflict", i+2, err)
		}
	}

	// A conflicting creation must not touch the kernel at all.
	nl.mu.Lock()
	resolvesAfter := nl.resolveCalls
	nl.mu.Unlock()
	if resolvesAfter != resolvesBefore {
		t.Errorf("radio resolved %d times during conflicting creates", resolvesAfter-resolvesBefore)
	}
	if got := len(nl.modeCalls); got != modeCallsBefore {
		t.Errorf("mode changed during conflicting creates: %d calls", got-modeCallsBefore)
	}
	if got := ifTool.callCount(); got != ifCallsBefore {
		t.Errorf("interface state changed during conflicting creates: %d calls", got-ifCallsBefore)
	}
}

func TestCreateClientInterfaceRadioGone(t *testing.T) {
	nl := &fakeNL{resolveErr: errBoom}
	srv, _, _, _, _ := newTestServer(nl)

	if _, err := srv.CreateClientInterface(context.Background()); !errors.Is(err, ErrRadioNotFound) {
		t.Errorf("CreateClientInterface() error = %v, want ErrRadioNotFound", err)
	}
}

func TestCreateClientInterfaceAllowedAfterTeardown(t *testing.T) {
	nl := &fakeNL{wiphy: 3, snapshot: testDescriptors("wlan0")}
	srv, _, _, _, _ := newTestServer(nl)

	if _, err := srv.CreateClientInterface(context.Background()); err != nil {
		t.Fatalf("CreateClientInterface() error = %v", err)
	}
	srv.TearDownClientInterfaces()
	if _, err := srv.CreateClientInterface(context.Background()); err != nil {
		t.Errorf("CreateClientInterface() after teardown error = %v", err)
	}
}

func TestRefreshRenewsRegDomainSubscription(t *testing.T) {
	nl := &fakeNL{wiphy: 3, snapshot: testDescriptors("wlan0")}
	srv, _, _, _, _ := newTestServer(nl)

	if _, err := srv.CreateApInterface(context.Background()); err != nil {
		t.Fatalf("CreateApInterface() error = %v", err)
	}
	if _, err := srv.CreateClientInterface(context.Background()); err != nil {
		t.Fatalf("CreateClientInterface() error = %v", err)
	}

	nl.mu.Lock()
	defer nl.mu.Unlock()
	if len(nl.regSubs) != 2 {
		t.Fatalf("regulatory subscriptions = %d, want 2", len(nl.regSubs))
	}
	if !nl.regSubs[0].isCancelled() {
		t.Error("first regulatory subscription not cancelled on re-resolve")
	}
	if nl.regSubs[1].isCancelled() {
		t.Error("current regulatory subscription should stay active")
	}
}

func TestRegDomainSubscribeFailureIsNotFatal(t *testing.T) {
	nl := &fakeNL{wiphy: 3, snapshot: testDescriptors("wlan0"), regSubErr: errBoom}
	srv, _, _, _, _ := newTestServer(nl)

	if _, err := srv.CreateClientInterface(context.Background()); err != nil {
		t.Errorf("CreateClientInterface() error = %v, want success despite reg subscribe failure", err)
	}
}

func TestCreateNamedApInterfacePrefixMatch(t *testing.T) {
	nl := &fakeNL{wiphy: 3, snapshot: testDescriptors("wlan0", "softap0_br")}
	srv, _, _, _, _ := newTestServer(nl)

	ap, err := srv.CreateNamedApInterface(context.Background(), "softap0")
	if err != nil {
		t.Fatalf("CreateNamedApInterface() error = %v", err)
	}
	if ap.Name() != "softap0_br" {
		t.Errorf("selected interface = %q, want %q", ap.Name(), "softap0_br")
	}
}

func TestCreateNamedApInterfaceOSFallback(t *testing.T) {
	nl := &fakeNL{wiphy: 3, snapshot: testDescriptors("wlan0")}
	srv, _, _, _, _ := newTestServer(nl)
	srv.lookupInterface = func(name string) (*net.Interface, error) {
		if name != "br0" {
			t.Errorf("lookupInterface(%q), want br0", name)
		}
		return &net.Interface{Index: 42, Name: "br0", HardwareAddr: mustMAC("02:11:22:33:44:55")}, nil
	}

	ap, err := srv.CreateNamedApInterface(context.Background(), "br0")
	if err != nil {
		t.Fatalf("CreateNamedApInterface() error = %v", err)
	}
	if ap.Index() != 42 {
		t.Errorf("synthesized index = %d, want 42", ap.Index())
	}
}

func TestCreateNamedApInterfaceUnknownName(t *testing.T) {
	nl := &fakeNL{wiphy: 3, snapshot: testDescriptors("wlan0")}
	srv, _, _, _, _ := newTestServer(nl)
	srv.lookupInterface = func(string) (*net.Interface, error) { return nil, errBoom }

	if _, err := srv.CreateNamedApInterface(context.Background(), "nosuch0"); !errors.Is(err, ErrNoUsableInterface) {
		t.Errorf("CreateNamedApInterface() error = %v, want ErrNoUsableInterface", err)
	}
}

func TestTearDownApInterfacesCancelsBeforeRelease(t *testing.T) {
	nl := &fakeNL{wiphy: 3, snapshot: testDescriptors("wlan0")}
	srv, _, _, hap, listener := newTestServer(nl)

	ap, err := srv.CreateApInterface(context.Background())
	if err != nil {
		t.Fatalf("CreateApInterface() error = %v", err)
	}

	sub := nl.lastStationSub()
	if sub == nil {
		t.Fatal("no station event subscription recorded")
	}
	sub.deliver(nl80211.StationJoined, mustMAC("02:aa:bb:cc:dd:ee"))
	if got := ap.StationCount(); got != 1 {
		t.Fatalf("StationCount() = %d, want 1", got)
	}

	srv.TearDownApInterfaces()

	if !sub.isCancelled() {
		t.Error("station subscription not cancelled on teardown")
	}
	if hap.stopCalls == 0 {
		t.Error("hostapd not stopped on teardown")
	}

	// Events racing teardown are dropped once the subscription is gone.
	sub.deliver(nl80211.StationJoined, mustMAC("02:aa:bb:cc:dd:ef"))
	if got := ap.StationCount(); got != 1 {
		t.Errorf("StationCount() after cancelled delivery = %d, want 1", got)
	}

	kinds := listener.kinds()
	want := []event.Kind{event.KindApInterfaceReady, event.KindSoftApClient, event.KindApInterfaceTornDown}
	if len(kinds) != len(want) {
		t.Fatalf("broadcast kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("broadcast[%d] = %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestTearDownAllMarksInterfacesDown(t *testing.T) {
	nl := &fakeNL{wiphy: 3, snapshot: testDescriptors("wlan0", "wlan1")}
	srv, ifTool, sup, _, _ := newTestServer(nl)

	if _, err := srv.CreateClientInterface(context.Background()); err != nil {
		t.Fatalf("CreateClientInterface() error = %v", err)
	}

	srv.TearDownAll()

	if sup.stopCalls == 0 {
		t.Error("supplicant not stopped on teardown")
	}

	ifTool.mu.Lock()
	downed := map[string]bool{}
	for _, call := range ifTool.calls {
		if !call.up {
			downed[call.name] = true
		}
	}
	ifTool.mu.Unlock()
	for _, name := range []string{"wlan0", "wlan1"} {
		if !downed[name] {
			t.Errorf("interface %s not marked down", name)
		}
	}

	nl.mu.Lock()
	defer nl.mu.Unlock()
	for i, sub := range nl.regSubs {
		if !sub.isCancelled() {
			t.Errorf("regulatory subscription %d still active after TearDownAll", i)
		}
	}
}

func TestTearDownAllToleratesCleanupFailures(t *testing.T) {
	nl := &fakeNL{wiphy: 3, snapshot: testDescriptors("wlan0")}
	srv, ifTool, sup, hap, _ := newTestServer(nl)
	ifTool.err = errBoom
	sup.stopErr = errBoom
	hap.stopErr = errBoom

	if _, err := srv.CreateClientInterface(context.Background()); err != nil {
		t.Fatalf("CreateClientInterface() error = %v", err)
	}
	if _, err := srv.CreateApInterface(context.Background()); err != nil {
		t.Fatalf("CreateApInterface() error = %v", err)
	}

	srv.TearDownAll()

	if got := len(srv.ListClientInterfaces()); got != 0 {
		t.Errorf("client interfaces after TearDownAll = %d, want 0", got)
	}
	if got := len(srv.ListApInterfaces()); got != 0 {
		t.Errorf("ap interfaces after TearDownAll = %d, want 0", got)
	}
}

func TestCleanUpSystemState(t *testing.T) {
	nl := &fakeNL{wiphy: 3, snapshot: testDescriptors("wlan0", "softap0")}
	srv, ifTool, sup, hap, _ := newTestServer(nl)

	srv.CleanUpSystemState()

	if sup.stopCalls != 1 {
		t.Errorf("supplicant stop calls = %d, want 1", sup.stopCalls)
	}
	if hap.stopCalls != 1 {
		t.Errorf("hostapd stop calls = %d, want 1", hap.stopCalls)
	}
	if got := ifTool.callCount(); got != 2 {
		t.Errorf("interface state calls = %d, want 2", got)
	}
}

func TestOnRegDomainChangedSurvivesBandQueryFailure(t *testing.T) {
	nl := &fakeNL{wiphy: 3, bandsErr: errBoom}
	srv, _, _, _, _ := newTestServer(nl)

	srv.OnRegDomainChanged("US")
	srv.OnRegDomainChanged("")
}

func TestDump(t *testing.T) {
	nl := &fakeNL{wiphy: 7, snapshot: testDescriptors("wlan0")}
	srv, _, _, _, _ := newTestServer(nl)

	if _, err := srv.CreateClientInterface(context.Background()); err != nil {
		t.Fatalf("CreateClientInterface() error = %v", err)
	}
	if _, err := srv.CreateApInterface(context.Background()); err != nil {
		t.Fatalf("CreateApInterface() error = %v", err)
	}

	var buf bytes.Buffer
	if err := srv.Dump(&buf); err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Current wiphy index: 7",
		"name: wlan0",
		"Dump of client interface",
		"Dump of AP interface",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Dump() output missing %q:\n%s", want, out)
		}
	}
}
