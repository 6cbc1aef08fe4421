package httpd

import (
	"io"
	"strconv"

	"github.com/muurk/doorctl/internal/websock"
)

// StatusCode is an HTTP response status.
type StatusCode int

const (
	StatusSwitchingProtocols StatusCode = 101
	StatusOK                 StatusCode = 200
	StatusBadRequest         StatusCode = 400
	StatusNotFound           StatusCode = 404
	StatusInternalError      StatusCode = 500
)

func (c StatusCode) statusText() (string, error) {
	switch c {
	case StatusSwitchingProtocols:
		return "101 Switching Protocols", nil
	case StatusOK:
		return "200 OK", nil
	case StatusBadRequest:
		return "400 Bad Request", nil
	case StatusNotFound:
		return "404 Not Found", nil
	case StatusInternalError:
		return "500 Internal Server Error", nil
	}
	if c < 100 || c > 599 {
		return "", ProtocolError("invalid status code")
	}
	return strconv.Itoa(int(c)), nil
}

const httpProto = "HTTP/1.1"

// Responder writes an HTTP response to a connection. It is the initial
// state of a two-state sequence: the only ways forward are WithStatus,
// which consumes it and returns a Sending, or Upgrade. Adding a header or
// a body before a status line therefore does not typecheck.
//
// The Responder exclusively borrows the connection until the response is
// finalized by Sending.NoBody, Sending.WithBody or Upgrade. Dropping
// either value unfinalized leaves the client hanging and is a caller bug;
// Server.Serve detects it after the handler returns and fails the
// connection with ErrResponseAbandoned.
type Responder struct {
	conn    io.ReadWriter
	server  string
	sending *Sending
}

// NewResponder prepares a response for req on conn. The request's Host
// value is echoed back as the Server header.
func NewResponder(req *Request, conn io.ReadWriter) *Responder {
	return &Responder{conn: conn, server: req.Host}
}

// WithStatus writes the status line and the Server header and moves to
// the Sending state. The Responder must not be used afterwards.
func (r *Responder) WithStatus(code StatusCode) (*Sending, error) {
	text, err := code.statusText()
	if err != nil {
		return nil, err
	}
	if err := writeAll(r.conn, httpProto, " ", text, "\r\n"); err != nil {
		return nil, err
	}
	s := &Sending{conn: r.conn}
	r.sending = s
	return s.WithHeader("Server", r.server)
}

// finalized reports whether the response reached the wire completely.
func (r *Responder) finalized() bool {
	return r.sending != nil && r.sending.finished
}

// Upgrade performs the RFC 6455 handshake and hands the connection over
// as a WebSocket session. A request without a Sec-WebSocket-Key gets a
// 400 response and a ProtocolError instead of an upgrade.
func (r *Responder) Upgrade(req *Request) (*websock.Conn, error) {
	key, ok := req.GetHeader(HeaderSecWebSocketKey)
	if !ok || key == "" {
		s, err := r.WithStatus(StatusBadRequest)
		if err != nil {
			return nil, err
		}
		if err := s.NoBody(); err != nil {
			return nil, err
		}
		return nil, ProtocolError("websocket upgrade without Sec-WebSocket-Key")
	}

	s, err := r.WithStatus(StatusSwitchingProtocols)
	if err != nil {
		return nil, err
	}
	s, err = s.WithHeader("Sec-WebSocket-Accept", websock.AcceptKey(key))
	if err != nil {
		return nil, err
	}
	s, err = s.WithHeader("Upgrade", "websocket")
	if err != nil {
		return nil, err
	}
	s, err = s.WithHeader("Connection", "Upgrade")
	if err != nil {
		return nil, err
	}
	if err := s.endHeaders(); err != nil {
		return nil, err
	}
	return websock.NewConn(r.conn), nil
}

// Sending is the header-emission state of a response. Headers may be
// added repeatedly; the response is finalized exactly once by NoBody or
// WithBody.
type Sending struct {
	conn     io.ReadWriter
	finished bool
}

// WithHeader writes a single header line.
func (s *Sending) WithHeader(name, value string) (*Sending, error) {
	if s.finished {
		return nil, ErrResponderFinished
	}
	if err := writeAll(s.conn, name, ": ", value, "\r\n"); err != nil {
		return nil, err
	}
	return s, nil
}

// WithContentLength writes a Content-Length header. A zero length is a
// no-op: the header is omitted from the wire entirely rather than sent as
// "Content-Length: 0".
func (s *Sending) WithContentLength(n int) (*Sending, error) {
	if n == 0 {
		return s, nil
	}
	return s.WithHeader("Content-Length", strconv.Itoa(n))
}

// NoBody finalizes the response with the empty-body terminator.
func (s *Sending) NoBody() error {
	return s.endHeaders()
}

// WithBody writes a Content-Length header computed from body, the header
// terminator, and the body itself, finalizing the response.
func (s *Sending) WithBody(body []byte) error {
	if s.finished {
		return ErrResponderFinished
	}
	if _, err := s.WithContentLength(len(body)); err != nil {
		return err
	}
	if err := s.endHeaders(); err != nil {
		return err
	}
	if _, err := s.conn.Write(body); err != nil {
		return ErrDisconnected
	}
	return nil
}

func (s *Sending) endHeaders() error {
	if s.finished {
		return ErrResponderFinished
	}
	s.finished = true
	if _, err := io.WriteString(s.conn, "\r\n"); err != nil {
		return ErrDisconnected
	}
	return nil
}

func writeAll(w io.Writer, parts ...string) error {
	for _, p := range parts {
		if _, err := io.WriteString(w, p); err != nil {
			return ErrDisconnected
		}
	}
	return nil
}
