package nl80211

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// IWClient implements Client by shelling out to iw(8). Queries run the
// tool once and parse its output; subscriptions keep an "iw event"
// process alive and feed parsed lines to the sink from a reader
// goroutine.
type IWClient struct {
	// Binary is the path to the iw executable. Defaults to "iw" on PATH.
	Binary string
}

// NewIWClient returns a Client backed by the iw command.
func NewIWClient() *IWClient {
	return &IWClient{Binary: "iw"}
}

func (c *IWClient) binary() string {
	if c.Binary == "" {
		return "iw"
	}
	return c.Binary
}

func (c *IWClient) run(args ...string) (string, error) {
	out, err := exec.Command(c.binary(), args...).CombinedOutput() //nolint:gosec // fixed argument layout
	if err != nil {
		return "", fmt.Errorf("iw %s: %w (output: %s)", strings.Join(args, " "), err, out)
	}
	return string(out), nil
}

// ResolveRadio returns the wiphy index backing the named interface.
func (c *IWClient) ResolveRadio(baseIfName string) (uint32, error) {
	out, err := c.run("dev", baseIfName, "info")
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRadioNotFound, err)
	}
	wiphy, ok := parseWiphyIndex(out)
	if !ok {
		return 0, fmt.Errorf("%w: no wiphy in iw output for %s", ErrRadioNotFound, baseIfName)
	}
	return wiphy, nil
}

// EnumerateInterfaces returns a snapshot of the interfaces on the radio.
func (c *IWClient) EnumerateInterfaces(wiphy uint32) ([]InterfaceDescriptor, error) {
	out, err := c.run("dev")
	if err != nil {
		return nil, err
	}
	return parseInterfaceList(out, wiphy), nil
}

// SetInterfaceMode switches the interface's operating mode. The iw tool
// addresses interfaces by name, so the index is resolved through the OS
// interface table first.
func (c *IWClient) SetInterfaceMode(ifindex uint32, mode InterfaceMode) error {
	iface, err := net.InterfaceByIndex(int(ifindex))
	if err != nil {
		return fmt.Errorf("%w: index %d: %v", ErrInterfaceNotFound, ifindex, err)
	}

	var iwType string
	switch mode {
	case ModeStation:
		iwType = "managed"
	case ModeAP:
		iwType = "__ap"
	default:
		return fmt.Errorf("nl80211: unknown interface mode %d", mode)
	}

	if _, err := c.run("dev", iface.Name, "set", "type", iwType); err != nil {
		return err
	}
	return nil
}

// GetSupportedBands returns the radio's supported frequency lists.
func (c *IWClient) GetSupportedBands(wiphy uint32) (BandInfo, error) {
	out, err := c.run("phy", fmt.Sprintf("phy%d", wiphy), "info")
	if err != nil {
		return BandInfo{}, err
	}
	return parseBandInfo(out), nil
}

// SubscribeStationEvents streams "iw event" output and delivers station
// join/leave lines for the given interface to the sink.
func (c *IWClient) SubscribeStationEvents(ifindex uint32, sink StationEventSink) (Subscription, error) {
	iface, err := net.InterfaceByIndex(int(ifindex))
	if err != nil {
		return nil, fmt.Errorf("%w: index %d: %v", ErrInterfaceNotFound, ifindex, err)
	}
	name := iface.Name

	return c.subscribe(func(line string) {
		kind, mac, ok := parseStationEvent(line, name)
		if !ok {
			return
		}
		sink.OnStationEvent(kind, mac)
	})
}

// SubscribeRegDomainChanges streams "iw event" output and delivers
// regulatory-domain change lines to the sink. The wiphy argument is
// accepted for interface symmetry; regulatory changes are global in the
// event stream.
func (c *IWClient) SubscribeRegDomainChanges(_ uint32, sink RegDomainSink) (Subscription, error) {
	return c.subscribe(func(line string) {
		country, ok := parseRegDomainEvent(line)
		if !ok {
			return
		}
		sink.OnRegDomainChanged(country)
	})
}

// subscribe starts an "iw event" process and feeds each output line to
// deliver from a dedicated goroutine.
func (c *IWClient) subscribe(deliver func(line string)) (Subscription, error) {
	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, c.binary(), "event") //nolint:gosec // fixed argument layout

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("attaching to iw event: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("starting iw event: %w", err)
	}

	sub := &iwSubscription{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			deliver(scanner.Text())
		}
		_ = cmd.Wait()
	}()
	return sub, nil
}

// iwSubscription cancels the event process and waits for the reader
// goroutine, so no delivery can follow Cancel's return.
type iwSubscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *iwSubscription) Cancel() {
	s.once.Do(s.cancel)
	<-s.done
}

// parseWiphyIndex extracts the wiphy index from "iw dev <if> info" output.
func parseWiphyIndex(out string) (uint32, bool) {
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[0] == "wiphy" {
			n, err := strconv.ParseUint(fields[1], 10, 32)
			if err == nil {
				return uint32(n), true
			}
		}
	}
	return 0, false
}

// parseInterfaceList extracts the interfaces under "phy#<wiphy>" from
// "iw dev" output. Interface order follows the tool's output order.
func parseInterfaceList(out string, wiphy uint32) []InterfaceDescriptor {
	var (
		result  []InterfaceDescriptor
		inPhy   bool
		current *InterfaceDescriptor
	)
	flush := func() {
		if current != nil && current.Name != "" && current.Index != 0 {
			result = append(result, *current)
		}
		current = nil
	}

	wantPhy := fmt.Sprintf("phy#%d", wiphy)
	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "phy#") {
			flush()
			inPhy = trimmed == wantPhy
			continue
		}
		if !inPhy {
			continue
		}

		fields := strings.Fields(trimmed)
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "Interface":
			flush()
			current = &InterfaceDescriptor{Name: fields[1]}
		case "ifindex":
			if current != nil {
				if n, err := strconv.ParseUint(fields[1], 10, 32); err == nil {
					current.Index = uint32(n)
				}
			}
		case "addr":
			if current != nil {
				if mac, err := net.ParseMAC(fields[1]); err == nil {
					current.MAC = mac
				}
			}
		}
	}
	flush()
	return result
}

// parseBandInfo extracts frequency lists from "iw phy phyN info" output.
// Frequencies below 3000 MHz are 2.4 GHz; the rest split on whether the
// channel requires radar detection.
func parseBandInfo(out string) BandInfo {
	var info BandInfo
	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "* ") || !strings.Contains(trimmed, " MHz") {
			continue
		}
		if strings.Contains(trimmed, "disabled") {
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) < 3 || fields[2] != "MHz" {
			continue
		}
		freq, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			continue
		}
		switch {
		case freq < 3000:
			info.Band2G = append(info.Band2G, uint32(freq))
		case strings.Contains(trimmed, "radar"):
			info.Band5GDFS = append(info.Band5GDFS, uint32(freq))
		default:
			info.Band5G = append(info.Band5G, uint32(freq))
		}
	}
	return info
}

// parseStationEvent matches "iw event" station lines for one interface:
//
//	wlan0: new station aa:bb:cc:dd:ee:ff
//	wlan0: del station aa:bb:cc:dd:ee:ff
//
// iw sometimes annotates the interface with its phy ("wlan0 (phy #0):");
// both forms are accepted.
func parseStationEvent(line, ifaceName string) (StationEventKind, net.HardwareAddr, bool) {
	trimmed := strings.TrimSpace(line)
	rest, ok := strings.CutPrefix(trimmed, ifaceName)
	if !ok {
		return 0, nil, false
	}
	if after, found := strings.CutPrefix(rest, " (phy"); found {
		_, rest, ok = strings.Cut(after, ")")
		if !ok {
			return 0, nil, false
		}
	}
	rest, ok = strings.CutPrefix(rest, ": ")
	if !ok {
		return 0, nil, false
	}

	var kind StationEventKind
	switch {
	case strings.HasPrefix(rest, "new station "):
		kind = StationJoined
		rest = strings.TrimPrefix(rest, "new station ")
	case strings.HasPrefix(rest, "del station "):
		kind = StationLeft
		rest = strings.TrimPrefix(rest, "del station ")
	default:
		return 0, nil, false
	}

	mac, err := net.ParseMAC(strings.TrimSpace(rest))
	if err != nil {
		return 0, nil, false
	}
	return kind, mac, true
}

// parseRegDomainEvent matches "iw event" regulatory lines:
//
//	regulatory domain change: set to US by a user request
//	regulatory domain change: intersect (country unknown)
//
// The country code is empty when the new domain is unknown.
func parseRegDomainEvent(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	rest, ok := strings.CutPrefix(trimmed, "regulatory domain change:")
	if !ok {
		return "", false
	}
	rest = strings.TrimSpace(rest)
	if after, found := strings.CutPrefix(rest, "set to "); found {
		fields := strings.Fields(after)
		if len(fields) > 0 {
			return fields[0], true
		}
	}
	return "", true
}
