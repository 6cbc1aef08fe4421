package websock

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// stream pairs a canned inbound byte sequence with an outbound capture.
type stream struct {
	in  bytes.Reader
	out bytes.Buffer
}

func newStream(in []byte) *stream {
	s := &stream{}
	s.in.Reset(in)
	return s
}

func (s *stream) Read(p []byte) (int, error)  { return s.in.Read(p) }
func (s *stream) Write(p []byte) (int, error) { return s.out.Write(p) }

// clientFrame builds a masked client-to-server binary frame.
func clientFrame(t *testing.T, payload []byte) []byte {
	t.Helper()
	f := Frame{
		Fin:    true,
		Opcode: OpcodeBinary,
		Len:    len(payload),
		Masked: true,
		Mask:   [4]byte{0x12, 0x34, 0x56, 0x78},
	}
	var header [MaxHeaderLen]byte
	n, err := f.EncodeHeader(header[:])
	if err != nil {
		t.Fatalf("EncodeHeader: %v", err)
	}
	masked := bytes.Clone(payload)
	f.ApplyMask(masked)
	return append(header[:n], masked...)
}

func TestReceiveUnmasksClientFrame(t *testing.T) {
	payload := []byte{0x01, 0x02}
	s := newStream(clientFrame(t, payload))
	conn := NewConn(s)

	buf := make([]byte, 64)
	frame, err := conn.Receive(buf)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if frame.Opcode != OpcodeBinary || !frame.Fin {
		t.Errorf("frame = %+v", frame)
	}
	if !bytes.Equal(buf[:frame.Len], payload) {
		t.Errorf("payload = %v, want %v", buf[:frame.Len], payload)
	}
}

func TestReceiveExtendedLengthFrame(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 300)
	s := newStream(clientFrame(t, payload))
	conn := NewConn(s)

	buf := make([]byte, 512)
	frame, err := conn.Receive(buf)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if frame.Len != 300 {
		t.Errorf("Len = %d, want 300", frame.Len)
	}
	if !bytes.Equal(buf[:frame.Len], payload) {
		t.Error("payload corrupted in transit")
	}
}

func TestReceiveEOFOnPeerClose(t *testing.T) {
	conn := NewConn(newStream(nil))
	_, err := conn.Receive(make([]byte, 16))
	if !errors.Is(err, io.EOF) {
		t.Errorf("Receive on closed peer = %v, want io.EOF", err)
	}
}

func TestReceiveTruncatedFrame(t *testing.T) {
	full := clientFrame(t, []byte("hello"))
	conn := NewConn(newStream(full[:len(full)-2]))

	_, err := conn.Receive(make([]byte, 16))
	if !errors.Is(err, ErrDisconnected) {
		t.Errorf("Receive on truncated frame = %v, want ErrDisconnected", err)
	}
}

func TestReceiveRejectsOversizedPayload(t *testing.T) {
	s := newStream(clientFrame(t, bytes.Repeat([]byte{1}, 32)))
	conn := NewConn(s)

	_, err := conn.Receive(make([]byte, 16))
	var unsupported UnsupportedError
	if !errors.As(err, &unsupported) {
		t.Errorf("Receive = %v, want UnsupportedError", err)
	}
}

func TestSendProducesUnmaskedBinaryFrame(t *testing.T) {
	s := newStream(nil)
	conn := NewConn(s)

	payload := []byte{0x01, 0x01}
	if err := conn.Send(payload); err != nil {
		t.Fatalf("Send: %v", err)
	}

	want := append([]byte{0x82, 0x02}, payload...)
	if !bytes.Equal(s.out.Bytes(), want) {
		t.Errorf("wire bytes = %v, want %v", s.out.Bytes(), want)
	}
}

func TestSendReceiveLoopback(t *testing.T) {
	s := newStream(nil)
	if err := NewConn(s).Send([]byte("round and round")); err != nil {
		t.Fatalf("Send: %v", err)
	}

	echo := NewConn(newStream(s.out.Bytes()))
	buf := make([]byte, 64)
	frame, err := echo.Receive(buf)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if string(buf[:frame.Len]) != "round and round" {
		t.Errorf("payload = %q", buf[:frame.Len])
	}
}
