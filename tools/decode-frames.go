//go:build ignore

// Decode-frames replays a JSONL capture of WebSocket traffic through the
// frame decoder and reports what the device protocol made of it.
//
// Usage: go run tools/decode-frames.go <capture.jsonl>
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/muurk/doorctl/internal/websock"
)

// CapturedFrame is one line of a capture file: the raw frame plus the
// capture metadata the proxy recorded.
type CapturedFrame struct {
	Timestamp   string `json:"timestamp"`
	FrameNum    int    `json:"frame_num"`
	RemoteAddr  string `json:"remote_addr"`
	Direction   string `json:"direction"`
	RawFrameHex string `json:"raw_frame_hex"`
}

type Statistics struct {
	TotalFrames   int
	DecodeSuccess int
	DecodeFailure int
	MessageTypes  map[byte]int
	Failures      []Failure
}

type Failure struct {
	LineNumber int
	FrameNum   int
	Error      string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: decode-frames <capture.jsonl>")
		os.Exit(1)
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Printf("Error reading file: %v\n", err)
		os.Exit(1)
	}

	stats := Statistics{MessageTypes: make(map[byte]int)}

	for lineNum, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}

		var captured CapturedFrame
		if err := json.Unmarshal([]byte(line), &captured); err != nil {
			fmt.Printf("Error parsing line %d: %v\n", lineNum+1, err)
			continue
		}
		stats.TotalFrames++

		raw, err := hex.DecodeString(captured.RawFrameHex)
		if err != nil {
			stats.fail(lineNum+1, captured.FrameNum, fmt.Sprintf("hex decode: %v", err))
			continue
		}

		frame, err := websock.DecodeHeader(raw)
		if err != nil {
			stats.fail(lineNum+1, captured.FrameNum, fmt.Sprintf("frame header: %v", err))
			continue
		}

		headerLen := len(raw) - frame.Len
		if headerLen < 2 || frame.Len > len(raw) {
			stats.fail(lineNum+1, captured.FrameNum, "payload shorter than header declares")
			continue
		}
		payload := raw[headerLen:]
		frame.ApplyMask(payload)

		if frame.Opcode != websock.OpcodeBinary || len(payload) == 0 {
			stats.fail(lineNum+1, captured.FrameNum, fmt.Sprintf("not a device message (opcode 0x%x, %d bytes)", frame.Opcode, len(payload)))
			continue
		}

		stats.DecodeSuccess++
		stats.MessageTypes[payload[0]]++
	}

	printStatistics(&stats)
}

func (s *Statistics) fail(line, frameNum int, msg string) {
	s.DecodeFailure++
	s.Failures = append(s.Failures, Failure{LineNumber: line, FrameNum: frameNum, Error: msg})
}

func printStatistics(stats *Statistics) {
	fmt.Printf("\nFrames:         %d\n", stats.TotalFrames)
	fmt.Printf("Decoded:        %d\n", stats.DecodeSuccess)
	fmt.Printf("Failed:         %d\n", stats.DecodeFailure)

	fmt.Printf("\nMessage type distribution:\n")
	for msgType, count := range stats.MessageTypes {
		fmt.Printf("  0x%02x (%s): %d\n", msgType, messageTypeName(msgType), count)
	}

	if len(stats.Failures) > 0 {
		maxShow := 10
		fmt.Printf("\nFailures (showing up to %d):\n", maxShow)
		for i, failed := range stats.Failures {
			if i >= maxShow {
				break
			}
			fmt.Printf("  line %d (frame #%d): %s\n", failed.LineNumber, failed.FrameNum, failed.Error)
		}
	}
}

func messageTypeName(msgType byte) string {
	switch msgType {
	case 0x01:
		return "State"
	case 0x02:
		return "Config"
	case 0x03:
		return "Notice"
	default:
		return "Unknown"
	}
}
