// Package event defines the interface lifecycle event model and the
// listener registry that fans events out to external sinks.
//
// Listeners are identity-compared: registering the same listener value
// twice keeps a single entry, and unregistering removes the first
// identity match. Broadcast notifies listeners synchronously in
// registration order; a failing listener is logged and does not block
// notification of the rest.
package event
