package httpd

import (
	"errors"
	"testing"
)

func TestParseSimpleGet(t *testing.T) {
	req, err := Parse([]byte("GET / HTTP/1.1\r\nHost: device.local\r\n\r\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if req.Method != MethodGet {
		t.Errorf("Method = %v, want GET", req.Method)
	}
	if req.Path != "/" {
		t.Errorf("Path = %q, want /", req.Path)
	}
	if req.Host != "device.local" {
		t.Errorf("Host = %q, want device.local", req.Host)
	}
	body, complete := req.Body()
	if body != nil || !complete {
		t.Errorf("Body() = %v, %v, want nil, true", body, complete)
	}
}

func TestParseWithBody(t *testing.T) {
	req, err := Parse([]byte("GET /index.html HTTP/1.1\r\nContent-Length: 3\r\n\r\nabc"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if req.Path != "/index.html" {
		t.Errorf("Path = %q", req.Path)
	}
	if req.ContentLength != 3 {
		t.Errorf("ContentLength = %d, want 3", req.ContentLength)
	}
	body, complete := req.Body()
	if string(body) != "abc" || !complete {
		t.Errorf("Body() = %q, %v, want abc, true", body, complete)
	}
}

// Feeding a growing prefix must report ErrIncomplete at every cut point
// and succeed only once the whole request is buffered.
func TestParseIncremental(t *testing.T) {
	full := []byte("POST /config HTTP/1.1\r\nHost: h\r\nContent-Length: 5\r\nContent-Type: application/json\r\n\r\nhello")

	for n := 0; n < len(full); n++ {
		if _, err := Parse(full[:n]); !errors.Is(err, ErrIncomplete) {
			t.Fatalf("Parse(%d bytes) = %v, want ErrIncomplete", n, err)
		}
	}

	req, err := Parse(full)
	if err != nil {
		t.Fatalf("Parse(full): %v", err)
	}
	if req.Method != MethodPost {
		t.Errorf("Method = %v, want POST", req.Method)
	}
	if req.ContentType != "application/json" {
		t.Errorf("ContentType = %q", req.ContentType)
	}
	body, complete := req.Body()
	if string(body) != "hello" || !complete {
		t.Errorf("Body() = %q, %v", body, complete)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"garbage request line", "NONSENSE\r\nmore nonsense\r\n\r\n"},
		{"unknown method", "YANK / HTTP/1.1\r\n\r\n"},
		{"bad content length", "GET / HTTP/1.1\r\nContent-Length: -1\r\n\r\n"},
		{"content length not a number", "GET / HTTP/1.1\r\nContent-Length: lots\r\n\r\n"},
		{"headers end before request line", "\r\n\r\npadding to pass the length gate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.in))
			var perr ProtocolError
			if !errors.As(err, &perr) {
				t.Errorf("Parse = %v, want ProtocolError", err)
			}
		})
	}
}

func TestParseRejectsInvalidUTF8(t *testing.T) {
	buf := []byte("GET / HTTP/1.1\r\n\r\n")
	buf[5] = 0xFF
	_, err := Parse(buf)
	var perr ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("Parse = %v, want ProtocolError", err)
	}
}

func TestGetHeader(t *testing.T) {
	req, err := Parse([]byte("GET /ws HTTP/1.1\r\nHost: h\r\nUpgrade: websocket\r\nSec-WebSocket-Key: abc123\r\n\r\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if v, ok := req.GetHeader("upgrade"); !ok || v != "websocket" {
		t.Errorf("GetHeader(upgrade) = %q, %v", v, ok)
	}
	if v, ok := req.GetHeader("Sec-WebSocket-Key"); !ok || v != "abc123" {
		t.Errorf("GetHeader(Sec-WebSocket-Key) = %q, %v", v, ok)
	}
	if _, ok := req.GetHeader("Authorization"); ok {
		t.Error("GetHeader found a header that was never sent")
	}
}

func TestParseIgnoresColonlessHeaderLine(t *testing.T) {
	req, err := Parse([]byte("GET / HTTP/1.1\r\nthis line has no colon\r\nHost: h\r\n\r\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if req.Host != "h" {
		t.Errorf("Host = %q, want h", req.Host)
	}
}

func TestMethodString(t *testing.T) {
	if got := MethodDelete.String(); got != "DELETE" {
		t.Errorf("String() = %q, want DELETE", got)
	}
	if got := Method(99).String(); got != "UNKNOWN" {
		t.Errorf("String() = %q, want UNKNOWN", got)
	}
}
