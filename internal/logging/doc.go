// Package logging provides structured logging for the doorctl daemon and
// CLI tools.
//
// It wraps zap with package-level convenience functions plus a few helpers
// for protocol-specific events (connections, HTTP requests, WebSocket
// frames, state transitions).
//
// Initialize at startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// When no level is given and DOORCTL_LOG_LEVEL is unset, logging is a nop.
// That keeps CLI command output clean unless verbosity is asked for.
//
// All functions are safe for concurrent use.
package logging
