package httpd

import (
	"errors"
	"io"

	"github.com/muurk/doorctl/internal/websock"
)

// Handler serves parsed requests.
//
// HandleRequest must finalize resp (or upgrade it). Returning a non-nil
// websocket connection hands the remainder of the TCP stream to
// HandleWebSocket and ends HTTP processing for the connection.
type Handler interface {
	HandleRequest(req *Request, resp *Responder) (*websock.Conn, error)
	HandleWebSocket(ws *websock.Conn, buf []byte) error
}

// Server drives the request/response cycle over raw connections using
// the incremental parser. One Serve call handles one connection.
type Server struct {
	handler Handler
}

// NewServer returns a Server dispatching to handler.
func NewServer(handler Handler) *Server {
	return &Server{handler: handler}
}

// Serve reads requests from conn into buf until the peer closes or an
// error ends the connection. A clean peer close returns nil. The buffer
// bounds the maximum request size.
func (s *Server) Serve(conn io.ReadWriter, buf []byte) error {
	for {
		// Each iteration handles one request. A single read may not
		// deliver the whole request, so the parse is retried on the
		// grown buffer until it is complete.
		offset := 0
		for {
			if offset == len(buf) {
				return ProtocolError("request exceeds buffer")
			}
			n, err := conn.Read(buf[offset:])
			if err != nil && !errors.Is(err, io.EOF) {
				return ErrDisconnected
			}
			// A read may deliver final bytes together with EOF; those
			// still belong to the request.
			if n == 0 {
				return nil
			}
			offset += n

			req, perr := Parse(buf[:offset])
			if errors.Is(perr, ErrIncomplete) {
				if errors.Is(err, io.EOF) {
					// Peer closed mid-request.
					return nil
				}
				continue
			}
			if perr != nil {
				return perr
			}

			resp := NewResponder(req, conn)
			ws, herr := s.handler.HandleRequest(req, resp)
			if herr != nil {
				return herr
			}
			if ws != nil {
				return s.handler.HandleWebSocket(ws, buf)
			}
			if !resp.finalized() {
				return ErrResponseAbandoned
			}
			break
		}
	}
}
