// Package config holds the two host-side configuration surfaces of the
// project.
//
// Settings is the daemon's runtime configuration (listen address, flash
// image path, simulation mode), built from defaults, an optional YAML
// file and DOORCTL_* environment variables. Device configuration itself
// (Wi-Fi, MQTT, TLS) is not managed here; it lives in the device's
// flash record.
//
// Registry is the operator CLI's configuration file, storing
// user-defined metadata for known devices (nicknames, last seen
// addresses) and CLI preferences.
//
// # Registry File Location
//
// The registry is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/doorctl/config.yaml or $HOME/.config/doorctl/config.yaml
//   - macOS: $HOME/.config/doorctl/config.yaml
//   - Windows: %LOCALAPPDATA%\doorctl\config.yaml
//
// # Security
//
// IMPORTANT: this package NEVER stores device credentials such as Wi-Fi
// or MQTT passwords. Those are entered once and persist only on the
// device.
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across
// goroutines. File operations are protected by a mutex to ensure atomic
// writes.
package config
