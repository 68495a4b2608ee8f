package influxdb

import (
	"time"

	"github.com/wavelan/wifid/internal/event"
)

// EventWriter is the client surface the notifier needs. Satisfied by
// *Client; tests substitute a recorder.
type EventWriter interface {
	WriteInterfaceEvent(kind, ifaceName string, connected bool, timestamp time.Time)
}

// Notifier records interface events as time-series points. It
// implements event.Listener and is registered with the event registry
// when InfluxDB is enabled. Writes never fail synchronously; async
// errors flow through the client's error callback.
type Notifier struct {
	writer EventWriter
}

// NewNotifier creates a notifier writing through the given client.
func NewNotifier(writer EventWriter) *Notifier {
	return &Notifier{writer: writer}
}

// Notify implements event.Listener.
func (n *Notifier) Notify(ev event.Event) error {
	n.writer.WriteInterfaceEvent(string(ev.Kind), ev.InterfaceName, ev.Connected, ev.Time)
	return nil
}
