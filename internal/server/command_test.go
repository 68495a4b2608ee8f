package server

import (
	"context"
	"net"
	"strings"
	"testing"
)

func newTestDispatcher(nl *fakeNL) (*CommandDispatcher, *fakeSoftapTool, *fakeHostapd) {
	srv, _, _, hap, _ := newTestServer(nl)
	tool := &fakeSoftapTool{}
	return NewCommandDispatcher(srv, tool), tool, hap
}

func TestDispatchRejectsOversizedCommands(t *testing.T) {
	nl := &fakeNL{wiphy: 3, snapshot: testDescriptors("wlan0")}
	d, tool, hap := newTestDispatcher(nl)

	raw := []byte(strings.Repeat("tok ", 11))
	if d.Dispatch(context.Background(), raw) {
		t.Error("Dispatch() = true for 11-token command, want false")
	}

	// Rejection must happen before any side effect.
	if len(tool.execs)+len(tool.added)+len(tool.removed)+len(tool.bridges)+len(tool.sets) != 0 {
		t.Error("vendor tool invoked for rejected command")
	}
	if hap.startCalls != 0 {
		t.Error("hostapd started for rejected command")
	}
	nl.mu.Lock()
	defer nl.mu.Unlock()
	if nl.resolveCalls != 0 {
		t.Error("radio resolved for rejected command")
	}
}

func TestDispatchTenTokensAccepted(t *testing.T) {
	nl := &fakeNL{}
	d, tool, _ := newTestDispatcher(nl)

	raw := []byte("softap qccmd a b c d e f g h")
	if !d.Dispatch(context.Background(), raw) {
		t.Error("Dispatch() = false for 10-token qccmd, want true")
	}
	if len(tool.execs) != 1 {
		t.Fatalf("qccmd invocations = %d, want 1", len(tool.execs))
	}
	if got := len(tool.execs[0]); got != 8 {
		t.Errorf("qccmd argument count = %d, want 8", got)
	}
}

func TestDispatchEmptyAndUnknown(t *testing.T) {
	nl := &fakeNL{}
	d, _, _ := newTestDispatcher(nl)

	for _, raw := range []string{"", "   ", "softap", "softap frobnicate x"} {
		if d.Dispatch(context.Background(), []byte(raw)) {
			t.Errorf("Dispatch(%q) = true, want false", raw)
		}
	}
}

func TestDispatchVendorVerbs(t *testing.T) {
	nl := &fakeNL{}
	d, tool, _ := newTestDispatcher(nl)

	if !d.Dispatch(context.Background(), []byte("softap create sap0")) {
		t.Error("create dispatch failed")
	}
	if !d.Dispatch(context.Background(), []byte("softap remove sap0")) {
		t.Error("remove dispatch failed")
	}
	if !d.Dispatch(context.Background(), []byte("softap bridge up br0")) {
		t.Error("bridge dispatch failed")
	}
	if !d.Dispatch(context.Background(), []byte("softap setsoftap ssid MyNet")) {
		t.Error("setsoftap dispatch failed")
	}

	if len(tool.added) != 1 || tool.added[0] != "sap0" {
		t.Errorf("added = %v, want [sap0]", tool.added)
	}
	if len(tool.removed) != 1 || tool.removed[0] != "sap0" {
		t.Errorf("removed = %v, want [sap0]", tool.removed)
	}
	if len(tool.bridges) != 1 {
		t.Errorf("bridge calls = %d, want 1", len(tool.bridges))
	}
	if len(tool.sets) != 1 {
		t.Errorf("setsoftap calls = %d, want 1", len(tool.sets))
	}
}

func TestDispatchVendorVerbFailure(t *testing.T) {
	nl := &fakeNL{}
	d, tool, _ := newTestDispatcher(nl)
	tool.addErr = errBoom

	if d.Dispatch(context.Background(), []byte("softap create sap0")) {
		t.Error("Dispatch() = true for failing create, want false")
	}
}

func TestDispatchStartStopAp(t *testing.T) {
	nl := &fakeNL{wiphy: 3, snapshot: testDescriptors("wlan0")}
	srv, _, _, hap, _ := newTestServer(nl)
	d := NewCommandDispatcher(srv, &fakeSoftapTool{})

	if !d.Dispatch(context.Background(), []byte("softap startap")) {
		t.Fatal("startap dispatch failed")
	}
	if hap.startCalls != 1 {
		t.Errorf("hostapd start calls = %d, want 1", hap.startCalls)
	}

	if !d.Dispatch(context.Background(), []byte("softap stopap")) {
		t.Fatal("stopap dispatch failed")
	}
	if hap.stopCalls == 0 {
		t.Error("hostapd never stopped by stopap")
	}

	// A successful stop clears the AP set and the session slot.
	if got := len(srv.ListApInterfaces()); got != 0 {
		t.Errorf("registered ap interfaces after stopap = %d, want 0", got)
	}
	if d.Dispatch(context.Background(), []byte("softap stopap")) {
		t.Error("Dispatch(stopap) = true after session already stopped, want false")
	}
}

func TestDispatchStopApWithoutSession(t *testing.T) {
	nl := &fakeNL{}
	d, _, _ := newTestDispatcher(nl)

	if d.Dispatch(context.Background(), []byte("softap stopap")) {
		t.Error("Dispatch(stopap) = true with no session, want false")
	}
}

func TestDispatchStartApDual(t *testing.T) {
	nl := &fakeNL{wiphy: 3, snapshot: testDescriptors("wlan0", "br0", "sap0", "sap1")}
	srv, _, _, hap, _ := newTestServer(nl)
	tool := &fakeSoftapTool{}
	d := NewCommandDispatcher(srv, tool)

	if !d.Dispatch(context.Background(), []byte("softap startap dual br0 sap0 sap1")) {
		t.Fatal("startap dual dispatch failed")
	}

	// All three interfaces are claimed as AP controllers: the bridge and
	// both physical interfaces. The vendor tool plays no part here.
	aps := srv.ListApInterfaces()
	if len(aps) != 3 {
		t.Fatalf("registered ap interfaces = %d, want 3", len(aps))
	}
	names := []string{aps[0].Name(), aps[1].Name(), aps[2].Name()}
	want := []string{"br0", "sap0", "sap1"}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("ap interface %d = %q, want %q", i, names[i], name)
		}
	}
	if len(tool.added) != 0 {
		t.Errorf("vendor tool added = %v, want none", tool.added)
	}
	if hap.startCalls != 1 {
		t.Errorf("hostapd start calls = %d, want 1", hap.startCalls)
	}

	if !d.Dispatch(context.Background(), []byte("softap stopap dual")) {
		t.Fatal("stopap dual dispatch failed")
	}
	if hap.stopCalls == 0 {
		t.Error("hostapd never stopped by stopap dual")
	}
	if got := len(srv.ListApInterfaces()); got != 0 {
		t.Errorf("registered ap interfaces after stopap dual = %d, want 0", got)
	}
	if d.Dispatch(context.Background(), []byte("softap stopap dual")) {
		t.Error("Dispatch(stopap dual) = true after session already stopped, want false")
	}
}

func TestDispatchStartApDualNoRollback(t *testing.T) {
	nl := &fakeNL{wiphy: 3, snapshot: testDescriptors("wlan0", "br0")}
	srv, _, _, hap, _ := newTestServer(nl)
	// sap0/sap1 are neither in the radio snapshot nor resolvable through
	// the OS, so the second creation step of the sequence fails.
	srv.lookupInterface = func(string) (*net.Interface, error) { return nil, errBoom }
	d := NewCommandDispatcher(srv, &fakeSoftapTool{})

	if d.Dispatch(context.Background(), []byte("softap startap dual br0 sap0 sap1")) {
		t.Error("Dispatch() = true for failing dual bring-up, want false")
	}

	// Completed steps stay in place: the bridge AP remains registered
	// and a later stopap dual can still clean it up.
	if got := len(srv.ListApInterfaces()); got != 1 {
		t.Errorf("registered ap interfaces = %d, want 1", got)
	}
	if hap.startCalls != 0 {
		t.Errorf("hostapd start calls = %d, want 0 after aborted sequence", hap.startCalls)
	}
	if !d.Dispatch(context.Background(), []byte("softap stopap dual")) {
		t.Error("stopap dual after aborted bring-up failed")
	}
	if got := len(srv.ListApInterfaces()); got != 0 {
		t.Errorf("registered ap interfaces after cleanup = %d, want 0", got)
	}
}

func TestDispatchStartApDualTooFewArguments(t *testing.T) {
	nl := &fakeNL{wiphy: 3, snapshot: testDescriptors("wlan0")}
	d, tool, _ := newTestDispatcher(nl)

	if d.Dispatch(context.Background(), []byte("softap startap dual br0")) {
		t.Error("Dispatch() = true for truncated dual command, want false")
	}
	if len(tool.added) != 0 {
		t.Error("vendor tool invoked for truncated dual command")
	}
}
