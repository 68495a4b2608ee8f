// Package influxdb records wifid telemetry as time-series data.
//
// It wraps influxdb-client-go v2 for interface event points and
// station-count gauges. Writes are non-blocking and batched per the
// influxdb section of config.yaml; async write failures surface
// through the error callback rather than the write call.
package influxdb
