package websock

import (
	"bytes"
	"errors"
	"testing"
)

func TestAcceptKey(t *testing.T) {
	// Vector from RFC 6455 section 1.3.
	got := AcceptKey("dGhlIHNhbXBsZSBub25jZQ==")
	want := "s3pPLMBiTxaQ9kYGzzhZRbK+xOo="
	if got != want {
		t.Errorf("AcceptKey = %q, want %q", got, want)
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	lengths := []int{0, 1, 125, 126, 65535, 65536, 1 << 20}

	for _, n := range lengths {
		for _, masked := range []bool{false, true} {
			f := Frame{Fin: true, Opcode: OpcodeBinary, Len: n, Masked: masked}
			if masked {
				f.Mask = [4]byte{0xDE, 0xAD, 0xBE, 0xEF}
			}

			var buf [MaxHeaderLen]byte
			written, err := f.EncodeHeader(buf[:])
			if err != nil {
				t.Fatalf("EncodeHeader(len=%d masked=%v): %v", n, masked, err)
			}

			got, err := DecodeHeader(buf[:written])
			if err != nil {
				t.Fatalf("DecodeHeader(len=%d masked=%v): %v", n, masked, err)
			}
			if got != f {
				t.Errorf("round trip len=%d masked=%v: got %+v, want %+v", n, masked, got, f)
			}
		}
	}
}

func TestEncodedHeaderSizes(t *testing.T) {
	tests := []struct {
		length int
		masked bool
		want   int
	}{
		{125, false, 2},
		{126, false, 4},
		{65535, false, 4},
		{65536, false, 10},
		{125, true, 6},
		{65536, true, 14},
	}
	for _, tt := range tests {
		f := Frame{Fin: true, Opcode: OpcodeBinary, Len: tt.length, Masked: tt.masked}
		var buf [MaxHeaderLen]byte
		n, err := f.EncodeHeader(buf[:])
		if err != nil {
			t.Fatalf("EncodeHeader(len=%d masked=%v): %v", tt.length, tt.masked, err)
		}
		if n != tt.want {
			t.Errorf("header size for len=%d masked=%v: got %d, want %d", tt.length, tt.masked, n, tt.want)
		}
	}
}

// The decoder must report exactly how many more bytes it needs at each
// stage, so the caller can read incrementally without overshooting.
func TestDecodeHeaderIncremental(t *testing.T) {
	f := Frame{Fin: true, Opcode: OpcodeBinary, Len: 300, Masked: true, Mask: [4]byte{1, 2, 3, 4}}
	var full [MaxHeaderLen]byte
	total, err := f.EncodeHeader(full[:])
	if err != nil {
		t.Fatalf("EncodeHeader: %v", err)
	}
	if total != 8 {
		t.Fatalf("header length = %d, want 8", total)
	}

	wantNeed := map[int]int{
		0: 2, // base bytes
		1: 1,
		2: 2, // 16-bit extended length
		3: 1,
		4: 4, // mask key
		5: 3,
		6: 2,
		7: 1,
	}
	for have, want := range wantNeed {
		_, err := DecodeHeader(full[:have])
		var need InsufficientDataError
		if !errors.As(err, &need) {
			t.Fatalf("DecodeHeader(%d bytes) = %v, want InsufficientDataError", have, err)
		}
		if int(need) != want {
			t.Errorf("DecodeHeader(%d bytes) needs %d more, want %d", have, int(need), want)
		}
	}

	got, err := DecodeHeader(full[:total])
	if err != nil {
		t.Fatalf("DecodeHeader(complete): %v", err)
	}
	if got != f {
		t.Errorf("decoded %+v, want %+v", got, f)
	}
}

func TestDecodeHeaderRejectsFragmentation(t *testing.T) {
	tests := []struct {
		name string
		b0   byte
	}{
		{"fin clear", 0x02},
		{"continuation opcode", 0x80 | OpcodeContinuation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeHeader([]byte{tt.b0, 0x01})
			var unsupported UnsupportedError
			if !errors.As(err, &unsupported) {
				t.Errorf("DecodeHeader = %v, want UnsupportedError", err)
			}
		})
	}
}

func TestEncodeHeaderBufferTooSmall(t *testing.T) {
	f := Frame{Fin: true, Opcode: OpcodeBinary, Len: 65536}
	var buf [4]byte
	_, err := f.EncodeHeader(buf[:])
	var unsupported UnsupportedError
	if !errors.As(err, &unsupported) {
		t.Errorf("EncodeHeader = %v, want UnsupportedError", err)
	}
}

func TestApplyMaskIsInvolution(t *testing.T) {
	f := Frame{Masked: true, Mask: [4]byte{0xA5, 0x5A, 0xFF, 0x00}}
	data := []byte("mask me twice and I come back")
	original := bytes.Clone(data)

	f.ApplyMask(data)
	if bytes.Equal(data, original) {
		t.Fatal("masking changed nothing")
	}
	f.ApplyMask(data)
	if !bytes.Equal(data, original) {
		t.Errorf("double mask = %q, want %q", data, original)
	}
}

func TestApplyMaskNoopWhenUnmasked(t *testing.T) {
	f := Frame{Masked: false, Mask: [4]byte{1, 2, 3, 4}}
	data := []byte("untouched")
	f.ApplyMask(data)
	if string(data) != "untouched" {
		t.Errorf("unmasked frame was modified: %q", data)
	}
}
