package websock

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

// Frame opcodes (RFC 6455 §5.2). Outbound frames from the device are
// always binary.
const (
	OpcodeContinuation = 0x0
	OpcodeText         = 0x1
	OpcodeBinary       = 0x2
	OpcodeClose        = 0x8
	OpcodePing         = 0x9
	OpcodePong         = 0xA
)

// acceptGUID is the fixed GUID appended to the client key when deriving
// Sec-WebSocket-Accept (RFC 6455 §4.2.2).
const acceptGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// AcceptKey derives the Sec-WebSocket-Accept value for a client key:
// base64(sha1(key || GUID)).
func AcceptKey(key string) string {
	h := sha1.New()
	h.Write([]byte(key))
	h.Write([]byte(acceptGUID))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// InsufficientDataError reports that a header could not be decoded yet.
// Its value is the exact number of additional bytes required; the caller
// reads exactly that many more and retries the decode with the enlarged
// buffer, never re-reading consumed bytes.
type InsufficientDataError int

func (e InsufficientDataError) Error() string {
	return fmt.Sprintf("websocket: need %d more header bytes", int(e))
}

// UnsupportedError reports a valid-but-unhandled protocol feature, such
// as fragmentation. Callers treat it as a protocol error.
type UnsupportedError string

func (e UnsupportedError) Error() string {
	return "websocket: unsupported: " + string(e)
}

// Frame is a decoded WebSocket frame header.
type Frame struct {
	Fin    bool
	Opcode byte
	Masked bool
	Len    int
	Mask   [4]byte
}

// DecodeHeader decodes a frame header from b. The minimum is 2 bytes;
// the 16-bit and 64-bit extended length forms and the mask key each
// require more, reported incrementally via InsufficientDataError.
// Fragmented frames (fin clear or continuation opcode) are rejected.
func DecodeHeader(b []byte) (Frame, error) {
	required := 2
	if len(b) < required {
		return Frame{}, InsufficientDataError(required - len(b))
	}

	f := Frame{
		Fin:    b[0]&0x80 != 0,
		Opcode: b[0] & 0x0F,
		Masked: b[1]&0x80 != 0,
	}

	if !f.Fin || f.Opcode == OpcodeContinuation {
		return Frame{}, UnsupportedError("payload fragmentation")
	}

	length := uint64(b[1] & 0x7F)
	maskOffset := 2
	switch length {
	case 126:
		required += 2
		if len(b) < required {
			return Frame{}, InsufficientDataError(required - len(b))
		}
		length = uint64(binary.BigEndian.Uint16(b[2:4]))
		maskOffset = 4
	case 127:
		required += 8
		if len(b) < required {
			return Frame{}, InsufficientDataError(required - len(b))
		}
		length = binary.BigEndian.Uint64(b[2:10])
		maskOffset = 10
	}

	if length > math.MaxInt {
		return Frame{}, UnsupportedError("payload length exceeds addressable size")
	}
	f.Len = int(length)

	if f.Masked {
		required += 4
		if len(b) < required {
			return Frame{}, InsufficientDataError(required - len(b))
		}
		copy(f.Mask[:], b[maskOffset:maskOffset+4])
	}

	return f, nil
}

// MaxHeaderLen is the largest encoded header: 2 base bytes, 8 extended
// length bytes and a 4-byte mask key.
const MaxHeaderLen = 14

// EncodeHeader writes the frame header into dst, choosing the 7-bit,
// 16-bit or 64-bit length form by magnitude, and returns the number of
// bytes written.
func (f Frame) EncodeHeader(dst []byte) (int, error) {
	b0 := f.Opcode & 0x0F
	if f.Fin {
		b0 |= 0x80
	}

	var need, maskOffset int
	switch {
	case f.Len <= 125:
		need, maskOffset = 2, 2
	case f.Len <= math.MaxUint16:
		need, maskOffset = 4, 4
	default:
		need, maskOffset = 10, 10
	}
	if f.Masked {
		need += 4
	}
	if len(dst) < need {
		return 0, UnsupportedError("encode buffer too small for header")
	}

	dst[0] = b0
	switch {
	case f.Len <= 125:
		dst[1] = byte(f.Len)
	case f.Len <= math.MaxUint16:
		dst[1] = 126
		binary.BigEndian.PutUint16(dst[2:4], uint16(f.Len))
	default:
		dst[1] = 127
		binary.BigEndian.PutUint64(dst[2:10], uint64(f.Len))
	}
	if f.Masked {
		dst[1] |= 0x80
		copy(dst[maskOffset:maskOffset+4], f.Mask[:])
	}

	return need, nil
}

// ApplyMask XORs data with the mask key cycled over it. Masking is its
// own inverse, so the same call masks and unmasks.
func (f Frame) ApplyMask(data []byte) {
	if !f.Masked {
		return
	}
	for i := range data {
		data[i] ^= f.Mask[i%4]
	}
}
