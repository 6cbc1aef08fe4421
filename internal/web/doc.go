// Package web serves the device's browser interface: a single embedded
// page over the in-repo HTTP server, plus a WebSocket channel that
// streams lock and door state and accepts commands and configuration
// updates.
package web
