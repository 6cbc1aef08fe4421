// Package httpd is a small, from-scratch HTTP/1.1 layer for the device's
// web surface.
//
// It is deliberately not a general-purpose server: no routing table, no
// chunked transfer encoding, no pipelining, no TLS. The parser works over
// a caller-owned receive buffer that may fill across multiple reads, and
// the response side is a two-state writer whose type signatures enforce
// the status -> headers -> body ordering. A WebSocket upgrade hands the
// connection to the websock package.
package httpd
