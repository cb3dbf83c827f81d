// Package daemon provides the main orchestration for mosoverlayd.
// It coordinates the device registry, the event multiplexer, the combo
// detector and the toggle client, and reloads combos when the
// configuration file changes.
package daemon
