package server

import (
	"context"
	"fmt"
	"io"

	"github.com/wavelan/wifid/internal/iftool"
	"github.com/wavelan/wifid/internal/nl80211"
)

// SupplicantController is the wpa_supplicant lifecycle consumed by a
// station interface. Satisfied by *supplicant.Manager.
type SupplicantController interface {
	Start(ctx context.Context, ifaceName string) error
	Stop() error
}

// ClientInterface wraps one physical interface claimed in station mode.
// It owns the supplicant lifecycle for that interface. Instances are
// created and released only by the Server.
type ClientInterface struct {
	desc       nl80211.InterfaceDescriptor
	ifTool     iftool.Tool
	supplicant SupplicantController
	logger     Logger
}

// newClientInterface constructs a station-mode controller.
func newClientInterface(
	desc nl80211.InterfaceDescriptor,
	ifTool iftool.Tool,
	sup SupplicantController,
	logger Logger,
) *ClientInterface {
	c := &ClientInterface{
		desc:       desc,
		ifTool:     ifTool,
		supplicant: sup,
		logger:     logger,
	}
	c.logger.Debug("created client interface",
		"interface", desc.Name,
		"index", desc.Index,
	)
	return c
}

// Name returns the kernel interface name.
func (c *ClientInterface) Name() string { return c.desc.Name }

// Index returns the kernel interface index.
func (c *ClientInterface) Index() uint32 { return c.desc.Index }

// Descriptor returns a copy of the owned interface descriptor.
func (c *ClientInterface) Descriptor() nl80211.InterfaceDescriptor { return c.desc }

// StartSupplicant launches wpa_supplicant on this interface.
func (c *ClientInterface) StartSupplicant(ctx context.Context) error {
	if err := c.supplicant.Start(ctx, c.desc.Name); err != nil {
		return fmt.Errorf("%w: %v", ErrDaemonStart, err)
	}
	return nil
}

// StopSupplicant stops the owned wpa_supplicant instance.
func (c *ClientInterface) StopSupplicant() error {
	if err := c.supplicant.Stop(); err != nil {
		return fmt.Errorf("%w: %v", ErrDaemonStop, err)
	}
	return nil
}

// release tears down the controller's owned resources: the supplicant
// is stopped, then the interface is marked administratively down.
// Failures are logged, not propagated; release always completes.
func (c *ClientInterface) release() {
	if err := c.supplicant.Stop(); err != nil {
		c.logger.Warn("failed to stop supplicant during teardown",
			"interface", c.desc.Name, "error", err)
	}
	if err := c.ifTool.SetUpState(c.desc.Name, false); err != nil {
		c.logger.Warn("failed to mark interface down during teardown",
			"interface", c.desc.Name, "error", err)
	}
}

// Dump writes a textual description of the controller state.
func (c *ClientInterface) Dump(w io.Writer) {
	fmt.Fprintf(w, "------- Dump of client interface with index: %d and name: %s -------\n",
		c.desc.Index, c.desc.Name)
	fmt.Fprintf(w, "MAC address: %s\n", macString(c.desc.MAC))
	fmt.Fprintln(w, "------- Dump End -------")
}
