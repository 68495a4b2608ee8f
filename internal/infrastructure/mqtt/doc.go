// Package mqtt publishes wifid events to an MQTT broker.
//
// The daemon is publish-only: interface lifecycle and station events
// fan out to wifid/event/... topics through the Notifier, and a
// retained status message on wifid/status (with an LWT counterpart)
// lets other services detect the daemon going offline.
//
// Connection management, auto-reconnect and batching are delegated to
// paho.mqtt.golang; all methods are safe for concurrent use.
package mqtt
