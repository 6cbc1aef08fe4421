package websock

import (
	"errors"
	"io"
)

// ErrDisconnected is returned when the transport fails mid-frame. A
// clean peer close surfaces as io.EOF from Receive instead.
var ErrDisconnected = errors.New("websocket: peer disconnected")

// Conn frames messages over an already-upgraded duplex byte stream. It
// holds a single fixed-size receive buffer strategy: the caller supplies
// the payload buffer, and frames larger than it are rejected rather than
// reassembled.
type Conn struct {
	rw io.ReadWriter
}

// NewConn wraps rw, which must already have completed the HTTP upgrade
// handshake.
func NewConn(rw io.ReadWriter) *Conn {
	return &Conn{rw: rw}
}

// Receive reads one frame, unmasking the payload into buf. It returns
// the decoded header; header.Len bytes of buf are valid. A peer close
// before any header byte returns io.EOF.
func (c *Conn) Receive(buf []byte) (Frame, error) {
	var header [MaxHeaderLen]byte
	offset := 2

	if _, err := io.ReadFull(c.rw, header[:2]); err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, io.EOF
		}
		return Frame{}, ErrDisconnected
	}

	var frame Frame
	for {
		f, err := DecodeHeader(header[:offset])
		if err == nil {
			frame = f
			break
		}
		var need InsufficientDataError
		if !errors.As(err, &need) {
			return Frame{}, err
		}
		if _, err := io.ReadFull(c.rw, header[offset:offset+int(need)]); err != nil {
			return Frame{}, ErrDisconnected
		}
		offset += int(need)
	}

	if frame.Len > len(buf) {
		return Frame{}, UnsupportedError("payload exceeds receive buffer")
	}
	if _, err := io.ReadFull(c.rw, buf[:frame.Len]); err != nil {
		return Frame{}, ErrDisconnected
	}
	frame.ApplyMask(buf[:frame.Len])

	return frame, nil
}

// Send writes data as a single unfragmented binary frame. Server-to-
// client frames are never masked.
func (c *Conn) Send(data []byte) error {
	frame := Frame{Fin: true, Opcode: OpcodeBinary, Len: len(data)}

	var header [MaxHeaderLen]byte
	n, err := frame.EncodeHeader(header[:])
	if err != nil {
		return err
	}
	if _, err := c.rw.Write(header[:n]); err != nil {
		return ErrDisconnected
	}
	if _, err := c.rw.Write(data); err != nil {
		return ErrDisconnected
	}
	return nil
}
