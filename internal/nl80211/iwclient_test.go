package nl80211

import (
	"net"
	"testing"
)

const iwDevInfoOutput = `Interface wlan0
	ifindex 3
	wdev 0x1
	addr 02:00:00:00:00:01
	type managed
	wiphy 0
	channel 1 (2412 MHz), width: 20 MHz, center1: 2412 MHz
`

const iwDevOutput = `phy#0
	Interface p2p0
		ifindex 4
		wdev 0x2
		addr 02:00:00:00:00:02
		type P2P-device
	Interface wlan0
		ifindex 3
		wdev 0x1
		addr 02:00:00:00:00:01
		type managed
phy#1
	Interface wlan1
		ifindex 5
		wdev 0x100000001
		addr 02:00:00:00:00:03
		type managed
`

const iwPhyInfoOutput = `Wiphy phy0
	Band 1:
		Frequencies:
			* 2412 MHz [1] (20.0 dBm)
			* 2417 MHz [2] (20.0 dBm)
			* 2484 MHz [14] (disabled)
	Band 2:
		Frequencies:
			* 5180 MHz [36] (20.0 dBm)
			* 5260 MHz [52] (20.0 dBm) (radar detection)
			* 5500 MHz [100] (20.0 dBm) (radar detection)
			* 5745 MHz [149] (20.0 dBm)
`

func TestParseWiphyIndex(t *testing.T) {
	wiphy, ok := parseWiphyIndex(iwDevInfoOutput)
	if !ok {
		t.Fatal("parseWiphyIndex() ok = false, want true")
	}
	if wiphy != 0 {
		t.Errorf("parseWiphyIndex() = %d, want 0", wiphy)
	}

	if _, ok := parseWiphyIndex("Interface wlan0\n\ttype managed\n"); ok {
		t.Error("parseWiphyIndex() ok = true for output without wiphy line")
	}
}

func TestParseInterfaceList(t *testing.T) {
	got := parseInterfaceList(iwDevOutput, 0)
	if len(got) != 2 {
		t.Fatalf("parseInterfaceList() returned %d interfaces, want 2", len(got))
	}
	if got[0].Name != "p2p0" || got[0].Index != 4 {
		t.Errorf("interface[0] = %s/%d, want p2p0/4", got[0].Name, got[0].Index)
	}
	if got[1].Name != "wlan0" || got[1].Index != 3 {
		t.Errorf("interface[1] = %s/%d, want wlan0/3", got[1].Name, got[1].Index)
	}
	if got[1].MAC.String() != "02:00:00:00:00:01" {
		t.Errorf("interface[1] MAC = %s, want 02:00:00:00:00:01", got[1].MAC)
	}

	other := parseInterfaceList(iwDevOutput, 1)
	if len(other) != 1 || other[0].Name != "wlan1" {
		t.Errorf("parseInterfaceList(phy 1) = %v, want [wlan1]", other)
	}
}

func TestParseBandInfo(t *testing.T) {
	info := parseBandInfo(iwPhyInfoOutput)

	want2G := []uint32{2412, 2417}
	if len(info.Band2G) != len(want2G) {
		t.Fatalf("Band2G = %v, want %v", info.Band2G, want2G)
	}
	for i := range want2G {
		if info.Band2G[i] != want2G[i] {
			t.Errorf("Band2G[%d] = %d, want %d", i, info.Band2G[i], want2G[i])
		}
	}

	want5G := []uint32{5180, 5745}
	if len(info.Band5G) != len(want5G) || info.Band5G[0] != 5180 || info.Band5G[1] != 5745 {
		t.Errorf("Band5G = %v, want %v", info.Band5G, want5G)
	}

	wantDFS := []uint32{5260, 5500}
	if len(info.Band5GDFS) != len(wantDFS) || info.Band5GDFS[0] != 5260 || info.Band5GDFS[1] != 5500 {
		t.Errorf("Band5GDFS = %v, want %v", info.Band5GDFS, wantDFS)
	}
}

func TestParseStationEvent(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		iface    string
		wantKind StationEventKind
		wantMAC  string
		wantOK   bool
	}{
		{"join", "wlan0: new station aa:bb:cc:dd:ee:ff", "wlan0", StationJoined, "aa:bb:cc:dd:ee:ff", true},
		{"leave", "wlan0: del station aa:bb:cc:dd:ee:ff", "wlan0", StationLeft, "aa:bb:cc:dd:ee:ff", true},
		{"phy annotated", "wlan0 (phy #0): new station 02:11:22:33:44:55", "wlan0", StationJoined, "02:11:22:33:44:55", true},
		{"other interface", "wlan1: new station aa:bb:cc:dd:ee:ff", "wlan0", 0, "", false},
		{"unrelated event", "wlan0: scan started", "wlan0", 0, "", false},
		{"bad mac", "wlan0: new station not-a-mac", "wlan0", 0, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, mac, ok := parseStationEvent(tt.line, tt.iface)
			if ok != tt.wantOK {
				t.Fatalf("parseStationEvent() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if kind != tt.wantKind {
				t.Errorf("kind = %v, want %v", kind, tt.wantKind)
			}
			want, _ := net.ParseMAC(tt.wantMAC)
			if mac.String() != want.String() {
				t.Errorf("mac = %s, want %s", mac, want)
			}
		})
	}
}

func TestParseRegDomainEvent(t *testing.T) {
	country, ok := parseRegDomainEvent("regulatory domain change: set to US by a user request")
	if !ok || country != "US" {
		t.Errorf("parseRegDomainEvent() = %q/%v, want US/true", country, ok)
	}

	country, ok = parseRegDomainEvent("regulatory domain change: intersect")
	if !ok || country != "" {
		t.Errorf("parseRegDomainEvent() = %q/%v, want \"\"/true", country, ok)
	}

	if _, ok := parseRegDomainEvent("wlan0: scan started"); ok {
		t.Error("parseRegDomainEvent() matched unrelated line")
	}
}
