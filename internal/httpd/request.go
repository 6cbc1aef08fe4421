package httpd

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// Request header names recognized at parse time. Anything else is still
// reachable through GetHeader, which re-scans the raw header block.
const (
	HeaderHost            = "Host"
	HeaderContentLength   = "Content-Length"
	HeaderContentType     = "Content-Type"
	HeaderUserAgent       = "User-Agent"
	HeaderUpgrade         = "Upgrade"
	HeaderSecWebSocketKey = "Sec-WebSocket-Key"
)

// Method is an HTTP request method.
type Method int

const (
	MethodGet Method = iota + 1
	MethodPost
	MethodPut
	MethodPatch
	MethodDelete
	MethodOptions
	MethodHead
)

var methodNames = map[string]Method{
	"GET":     MethodGet,
	"POST":    MethodPost,
	"PUT":     MethodPut,
	"PATCH":   MethodPatch,
	"DELETE":  MethodDelete,
	"OPTIONS": MethodOptions,
	"HEAD":    MethodHead,
}

func (m Method) String() string {
	for name, v := range methodNames {
		if v == m {
			return name
		}
	}
	return "UNKNOWN"
}

// minRequestLen is the shortest plausible request ("GET / HTTP/1.1\r\n"
// territory). Anything shorter cannot be complete, so parsing bails out
// before scanning.
const minRequestLen = 15

var crlf = []byte("\r\n")

// Request is a parsed HTTP request.
//
// The body and raw header block alias the buffer passed to Parse. The
// buffer must outlive the Request and must not be mutated while the
// Request is in use.
type Request struct {
	Method        Method
	Path          string
	Host          string
	ContentType   string
	UserAgent     string
	ContentLength int

	body        []byte
	headerBlock []byte
}

// Parse parses buf into a Request.
//
// It returns ErrIncomplete until a request line, a terminating empty line
// and any declared body are all present, so the caller can append more
// bytes and re-parse the grown buffer from scratch. Re-parsing is
// idempotent. Malformed input is a ProtocolError.
func Parse(buf []byte) (*Request, error) {
	if len(buf) < minRequestLen {
		return nil, ErrIncomplete
	}

	// Validated once here so every later substring extraction is
	// infallible.
	if !utf8.Valid(buf) {
		return nil, ProtocolError("request is not valid utf-8")
	}

	req := &Request{Method: MethodGet, Host: "unspecified"}

	requestLineDone := false
	headersDone := false
	headerStart, headerEnd := 0, 0

	offset := 0
	for {
		idx := bytes.Index(buf[offset:], crlf)
		if idx < 0 {
			break
		}
		line := buf[offset : offset+idx]
		lineEnd := offset + idx + len(crlf)

		if len(line) == 0 {
			// Empty line terminates the headers.
			headersDone = true
			if req.ContentLength > 0 {
				if lineEnd+req.ContentLength > len(buf) {
					return nil, ErrIncomplete
				}
				req.body = buf[lineEnd : lineEnd+req.ContentLength]
			}
			break
		}

		if !requestLineDone {
			if err := req.parseRequestLine(line); err != nil {
				return nil, err
			}
			requestLineDone = true
		} else {
			if err := req.parseHeaderLine(line); err != nil {
				return nil, err
			}
			if headerStart == 0 {
				headerStart = offset
			}
			headerEnd = lineEnd
		}
		offset = lineEnd
	}

	if !headersDone {
		return nil, ErrIncomplete
	}
	if req.Path == "" {
		return nil, ProtocolError("malformed request line")
	}
	if headerStart != 0 && headerEnd != 0 {
		req.headerBlock = buf[headerStart:headerEnd]
	}

	return req, nil
}

func (r *Request) parseRequestLine(line []byte) error {
	parts := bytes.SplitN(line, []byte{' '}, 3)
	if len(parts) < 2 {
		return ProtocolError("malformed request line")
	}

	m, ok := methodNames[string(parts[0])]
	if !ok {
		return ProtocolError("unknown http method")
	}
	r.Method = m
	r.Path = string(parts[1])
	// parts[2], the HTTP version token, is ignored.

	return nil
}

func (r *Request) parseHeaderLine(line []byte) error {
	name, value, ok := bytes.Cut(line, []byte{':'})
	if !ok {
		// A header line without a colon carries nothing we need.
		return nil
	}

	n := strings.TrimSpace(string(name))
	v := strings.TrimSpace(string(value))

	switch {
	case strings.EqualFold(n, HeaderHost):
		r.Host = v
	case strings.EqualFold(n, HeaderContentType):
		r.ContentType = v
	case strings.EqualFold(n, HeaderUserAgent):
		r.UserAgent = v
	case strings.EqualFold(n, HeaderContentLength):
		cl, err := atoi(v)
		if err != nil {
			return ProtocolError("invalid content-length")
		}
		r.ContentLength = cl
	}

	return nil
}

// GetHeader looks up a header by name, case-insensitively, by re-scanning
// the raw header block. No header table is retained; the block is at most
// a few hundred bytes so the re-scan costs less than the storage would.
func (r *Request) GetHeader(name string) (string, bool) {
	block := r.headerBlock
	for len(block) > 0 {
		idx := bytes.Index(block, crlf)
		if idx < 0 {
			break
		}
		line := block[:idx]
		block = block[idx+len(crlf):]

		n, v, ok := bytes.Cut(line, []byte{':'})
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(string(n)), name) {
			return strings.TrimSpace(string(v)), true
		}
	}
	return "", false
}

// Body returns the request body. complete is false when fewer bytes than
// Content-Length were available; Parse only produces such a request when
// Content-Length is zero, but callers tracking a partially filled buffer
// can rely on the count.
func (r *Request) Body() (body []byte, complete bool) {
	if r.body == nil {
		return nil, r.ContentLength == 0
	}
	return r.body, len(r.body) >= r.ContentLength
}

// atoi parses a non-negative decimal integer. Unlike strconv.Atoi it
// rejects signs, spaces and empty input outright.
func atoi(s string) (int, error) {
	if s == "" {
		return 0, ProtocolError("empty integer")
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, ProtocolError("invalid integer")
		}
		n = n*10 + int(c-'0')
		if n > 1<<30 {
			return 0, ProtocolError("integer overflow")
		}
	}
	return n, nil
}
