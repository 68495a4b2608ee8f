package mqtt

import (
	"encoding/json"
	"fmt"

	"github.com/wavelan/wifid/internal/event"
)

// Publisher is the client surface the notifier needs. Satisfied by
// *Client; tests substitute a recorder.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Notifier publishes interface events to the broker. It implements
// event.Listener and is registered with the event registry when MQTT is
// enabled.
type Notifier struct {
	publisher Publisher
	qos       byte
}

// NewNotifier creates a notifier publishing through the given client.
func NewNotifier(publisher Publisher, qos byte) *Notifier {
	return &Notifier{publisher: publisher, qos: qos}
}

// Notify implements event.Listener: the event is serialized to JSON and
// published on its kind/interface topic. Errors propagate to the
// registry, which logs them without affecting other listeners.
func (n *Notifier) Notify(ev event.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", ev.Kind, err)
	}

	topic := Topics{}.Event(string(ev.Kind))
	if ev.InterfaceName != "" {
		topic = Topics{}.InterfaceEvent(string(ev.Kind), ev.InterfaceName)
	}

	if err := n.publisher.Publish(topic, payload, n.qos, false); err != nil {
		return fmt.Errorf("publishing %s event: %w", ev.Kind, err)
	}
	return nil
}
