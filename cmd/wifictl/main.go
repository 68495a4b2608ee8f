// wifictl - command-line front-end for the wifid control API.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
var version = "dev"

// defaultServer is the wifid control API address.
const defaultServer = "http://127.0.0.1:8732"

// requestTimeout bounds every API call.
const requestTimeout = 30 * time.Second

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// client issues requests against the wifid HTTP API.
type client struct {
	base string
	http *http.Client
}

func newClient(base string) *client {
	return &client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: requestTimeout},
	}
}

// do issues one request and decodes the JSON response into out when the
// status matches. Error responses are surfaced with the server message.
func (c *client) do(method, path string, body io.Reader, out any) error {
	req, err := http.NewRequest(method, c.base+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("contacting wifid at %s: %w", c.base, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-side close

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("%s (%s)", apiErr.Message, resp.Status)
		}
		return fmt.Errorf("wifid returned %s", resp.Status)
	}

	if out != nil && len(data) > 0 {
		return json.Unmarshal(data, out)
	}
	return nil
}

// interfaceInfo mirrors the API's interface JSON shape.
type interfaceInfo struct {
	Name     string `json:"name"`
	Index    uint32 `json:"index"`
	MAC      string `json:"mac,omitempty"`
	Stations *int   `json:"stations,omitempty"`
}

func newRootCommand() *cobra.Command {
	var serverURL string

	root := &cobra.Command{
		Use:           "wifictl",
		Short:         "Control the wifid interface lifecycle daemon",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&serverURL, "server", defaultServer, "wifid API address")

	getClient := func() *client { return newClient(serverURL) }

	root.AddCommand(
		newStationCommand(getClient),
		newAPCommand(getClient),
		newTeardownCommand(getClient),
		newListCommand(getClient),
		newStationsCommand(getClient),
		newDumpCommand(getClient),
		newRawCommand(getClient),
		newEventsCommand(getClient),
	)
	return root
}

func newStationCommand(getClient func() *client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "station",
		Short: "Manage the station-mode interface",
	}

	var startSupplicant bool
	create := &cobra.Command{
		Use:   "create",
		Short: "Claim an interface in station mode",
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, _ := json.Marshal(map[string]bool{"start_supplicant": startSupplicant}) //nolint:errcheck // static map
			var info interfaceInfo
			if err := getClient().do(http.MethodPost, "/api/v1/interfaces/station", bytes.NewReader(body), &info); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "station interface %s (index %d, mac %s)\n",
				info.Name, info.Index, info.MAC)
			return nil
		},
	}
	create.Flags().BoolVar(&startSupplicant, "start-supplicant", false, "start wpa_supplicant after claiming")

	cmd.AddCommand(create)
	return cmd
}

func newAPCommand(getClient func() *client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ap",
		Short: "Manage access-point interfaces",
	}

	var (
		name       string
		ssid       string
		hidden     bool
		channel    int
		encryption string
		passphrase string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Claim an interface in AP mode, optionally hosting a network",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := map[string]any{}
			if name != "" {
				req["name"] = name
			}
			if ssid != "" {
				req["ssid"] = ssid
				req["hidden"] = hidden
				req["channel"] = channel
				req["encryption"] = encryption
				req["passphrase"] = passphrase
			}
			body, err := json.Marshal(req)
			if err != nil {
				return err
			}
			var info interfaceInfo
			if err := getClient().do(http.MethodPost, "/api/v1/interfaces/ap", bytes.NewReader(body), &info); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ap interface %s (index %d)\n", info.Name, info.Index)
			return nil
		},
	}
	create.Flags().StringVar(&name, "name", "", "claim the named interface (bridge interfaces allowed)")
	create.Flags().StringVar(&ssid, "ssid", "", "host a network with this SSID")
	create.Flags().BoolVar(&hidden, "hidden", false, "do not broadcast the SSID")
	create.Flags().IntVar(&channel, "channel", 6, "channel for the hosted network")
	create.Flags().StringVar(&encryption, "encryption", "wpa2", "encryption: open, wpa, wpa2")
	create.Flags().StringVar(&passphrase, "passphrase", "", "WPA passphrase")

	cmd.AddCommand(create)
	return cmd
}

func newTeardownCommand(getClient func() *client) *cobra.Command {
	return &cobra.Command{
		Use:       "teardown [all|station|ap]",
		Short:     "Tear down managed interfaces",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"all", "station", "ap"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "all"
			if len(args) == 1 {
				target = args[0]
			}

			path := "/api/v1/interfaces"
			switch target {
			case "all":
			case "station":
				path += "/station"
			case "ap":
				path += "/ap"
			default:
				return fmt.Errorf("unknown teardown target %q", target)
			}

			if err := getClient().do(http.MethodDelete, path, nil, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "torn down: %s\n", target)
			return nil
		},
	}
}

func newListCommand(getClient func() *client) *cobra.Command {
	return &cobra.Command{
		Use:       "list [station|ap]",
		Short:     "List managed interfaces",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"station", "ap"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds := []string{"station", "ap"}
			if len(args) == 1 {
				kinds = args
			}

			for _, kind := range kinds {
				var list []interfaceInfo
				if err := getClient().do(http.MethodGet, "/api/v1/interfaces/"+kind, nil, &list); err != nil {
					return err
				}
				for _, info := range list {
					if info.Stations != nil {
						fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tindex=%d\tstations=%d\n",
							kind, info.Name, info.Index, *info.Stations)
					} else {
						fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tindex=%d\tmac=%s\n",
							kind, info.Name, info.Index, info.MAC)
					}
				}
			}
			return nil
		},
	}
}

func newStationsCommand(getClient func() *client) *cobra.Command {
	return &cobra.Command{
		Use:   "stations <ap-interface>",
		Short: "Show the associated-station count of an AP interface",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Interface string `json:"interface"`
				Stations  int    `json:"stations"`
			}
			path := fmt.Sprintf("/api/v1/interfaces/ap/%s/stations", args[0])
			if err := getClient().do(http.MethodGet, path, nil, &resp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d stations\n", resp.Interface, resp.Stations)
			return nil
		},
	}
}

func newDumpCommand(getClient func() *client) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print the daemon's interface state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := getClient()
			req, err := http.NewRequest(http.MethodGet, c.base+"/api/v1/dump", nil)
			if err != nil {
				return err
			}
			resp, err := c.http.Do(req)
			if err != nil {
				return fmt.Errorf("contacting wifid at %s: %w", c.base, err)
			}
			defer resp.Body.Close() //nolint:errcheck // read-side close

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("wifid returned %s", resp.Status)
			}
			_, err = io.Copy(cmd.OutOrStdout(), resp.Body)
			return err
		},
	}
}

func newRawCommand(getClient func() *client) *cobra.Command {
	return &cobra.Command{
		Use:   "raw <command...>",
		Short: "Send a raw vendor command to the dispatcher",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Success bool `json:"success"`
			}
			body := strings.NewReader(strings.Join(args, " "))
			if err := getClient().do(http.MethodPost, "/api/v1/command", body, &resp); err != nil {
				return err
			}
			if !resp.Success {
				return fmt.Errorf("command failed")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func newEventsCommand(getClient func() *client) *cobra.Command {
	var (
		limit int
		iface string
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show journaled interface events, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := fmt.Sprintf("/api/v1/events?limit=%d", limit)
			if iface != "" {
				path += "&interface=" + iface
			}
			var records []struct {
				Kind          string    `json:"kind"`
				InterfaceName string    `json:"interface_name"`
				MAC           string    `json:"mac"`
				CreatedAt     time.Time `json:"created_at"`
			}
			if err := getClient().do(http.MethodGet, path, nil, &records); err != nil {
				return err
			}
			for _, r := range records {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n",
					r.CreatedAt.Format(time.RFC3339), r.Kind, r.InterfaceName, r.MAC)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of events")
	cmd.Flags().StringVar(&iface, "interface", "", "filter by interface name")
	return cmd
}
