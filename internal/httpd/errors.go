package httpd

import "errors"

// ErrIncomplete means the buffer does not yet hold a complete request.
// The caller should read more bytes and re-parse; it is never a failure.
var ErrIncomplete = errors.New("http: incomplete request")

// ErrDisconnected is returned when the peer connection fails mid-write.
var ErrDisconnected = errors.New("http: peer disconnected")

// ErrResponderFinished is returned when a response is written to after it
// has been finalized. That is a caller bug, not a peer condition.
var ErrResponderFinished = errors.New("http: responder already finished")

// ErrResponseAbandoned is returned by Server.Serve when a handler comes
// back without finalizing its response, which would leave the client
// hanging. That is a caller bug, not a peer condition.
var ErrResponseAbandoned = errors.New("http: response abandoned before finalization")

// ProtocolError reports malformed wire data. It is fatal to the
// connection; the same bytes are never retried.
type ProtocolError string

func (e ProtocolError) Error() string {
	return "http: protocol error: " + string(e)
}
