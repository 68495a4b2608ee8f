// Package process manages the lifecycle of a single external daemon
// (hostapd, wpa_supplicant).
//
// A Manager starts the process once and surfaces the result; it never
// restarts on failure. Lifecycle operations are single attempts whose
// success or failure is returned to the caller. Stop sends SIGTERM to
// the process group, waits for the graceful timeout, and escalates to
// SIGKILL.
package process
