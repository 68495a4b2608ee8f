// Package hostapd generates hostapd configuration and manages the
// hostapd daemon process.
//
// Configuration text is generated from Settings, written to the
// configured path, and the daemon is started against it through the
// process package. The config file grammar is treated as opaque by the
// rest of the daemon; only this package knows it.
package hostapd
