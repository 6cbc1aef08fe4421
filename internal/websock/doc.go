// Package websock implements RFC 6455 WebSocket framing over an abstract
// duplex byte stream.
//
// It is the device side of the web UI's live channel, not a general
// WebSocket library: no fragmented-frame reassembly, no extensions, one
// caller-supplied receive buffer per connection. Header decoding is
// incremental: InsufficientDataError tells the caller exactly how many
// more bytes to read before retrying.
package websock
