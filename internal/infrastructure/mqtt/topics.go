package mqtt

import "fmt"

// Topic prefixes for the daemon's published messages. All topics live
// under a single root so broker ACLs can scope the daemon to wifid/#.
const (
	// TopicPrefix is the root of all daemon topics.
	TopicPrefix = "wifid"

	// TopicPrefixEvent is the base for interface event topics.
	TopicPrefixEvent = "wifid/event"
)

// Topics provides builders for wifid MQTT topics. Using these helpers
// keeps topic naming consistent between the notifier and consumers.
type Topics struct{}

// InterfaceEvent returns the topic for one event kind on one interface.
//
// Example: wifid/event/client_interface_ready/wlan0
func (Topics) InterfaceEvent(kind, ifaceName string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefixEvent, kind, ifaceName)
}

// Event returns the topic for an event kind with no interface attached.
//
// Example: wifid/event/softap_client
func (Topics) Event(kind string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixEvent, kind)
}

// DaemonStatus returns the retained daemon status topic.
//
// Example: wifid/status
func (Topics) DaemonStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefix)
}
