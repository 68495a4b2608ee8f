package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteInterfaceEvent records one interface lifecycle or station event.
// The write is non-blocking; data is batched and sent asynchronously.
func (c *Client) WriteInterfaceEvent(kind, ifaceName string, connected bool, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	connectedValue := 0
	if connected {
		connectedValue = 1
	}

	point := write.NewPoint(
		"interface_events",
		map[string]string{
			"kind":      kind,
			"interface": ifaceName,
		},
		map[string]interface{}{
			"count":     1,
			"connected": connectedValue,
		},
		timestamp,
	)

	c.writeAPI.WritePoint(point)
}

// WriteStationCount records the number of stations associated with a
// hosted AP interface.
func (c *Client) WriteStationCount(ifaceName string, count int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"station_count",
		map[string]string{
			"interface": ifaceName,
		},
		map[string]interface{}{
			"value": count,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point for measurements the helpers do not
// cover.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}
