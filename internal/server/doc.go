// Package server implements the interface lifecycle manager: it claims
// physical interfaces in station or access-point mode, owns the
// resulting controllers, sequences their teardown against asynchronous
// kernel events, and fans lifecycle notifications out through the event
// registry.
//
// Two concurrency domains meet here. Lifecycle operations (create,
// teardown, dump) arrive on the call-in path and are serialized by the
// Server's mutex; kernel-originated events (station join/leave,
// regulatory-domain changes) arrive on the nl80211 delivery path and
// touch only per-controller state. Cancelling a subscription blocks
// until delivery has ceased, which is what makes teardown safe: once a
// controller's subscription is cancelled, no further event can reach it.
package server
