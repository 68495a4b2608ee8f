// Package nl80211 defines the contract between wifid and the kernel
// wireless facility: radio resolution, interface enumeration, mode and
// admin-state changes, and asynchronous event subscriptions.
//
// The daemon core consumes the Client interface only; the concrete
// netlink transport lives behind it. Subscriptions are explicit tokens:
// Cancel blocks until event delivery for that subscription has ceased,
// so a caller that has cancelled is guaranteed to observe no further
// callbacks. Controllers rely on that guarantee to sequence teardown.
package nl80211
