package hass

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/muurk/doorctl/internal/bus"
	"github.com/muurk/doorctl/internal/conf"
	"github.com/muurk/doorctl/internal/hal"
	"github.com/muurk/doorctl/internal/state"
)

const testDeviceID = "a1b2c3d4e5f6"

func TestTopicsFor(t *testing.T) {
	topics := TopicsFor(testDeviceID)

	cases := []struct {
		name string
		got  string
		want string
	}{
		{"availability", topics.Availability, "doorctl/a1b2c3d4e5f6/avail"},
		{"lock command", topics.LockCommand, "doorctl/a1b2c3d4e5f6/lock/cmd/"},
		{"lock state", topics.LockState, "doorctl/a1b2c3d4e5f6/lock/state"},
		{"sensor state", topics.SensorState, "doorctl/a1b2c3d4e5f6/reed/state"},
		{"discovery", topics.Discovery, "homeassistant/device/a1b2c3d4e5f6/config"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("%s topic = %q, want %q", tc.name, tc.got, tc.want)
		}
	}
}

func TestDiscoveryDocument(t *testing.T) {
	topics := TopicsFor(testDeviceID)
	doc := NewDiscovery(testDeviceID, "Front Door", topics)

	payload, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	device := decoded["device"].(map[string]any)
	if device["identifiers"] != testDeviceID || device["name"] != "Front Door" {
		t.Errorf("device block = %v", device)
	}
	if decoded["availability_topic"] != topics.Availability {
		t.Errorf("availability_topic = %v", decoded["availability_topic"])
	}
	if decoded["availability_mode"] != "latest" {
		t.Errorf("availability_mode = %v", decoded["availability_mode"])
	}

	components := decoded["components"].(map[string]any)
	lock := components["lock"].(map[string]any)
	if lock["platform"] != "lock" ||
		lock["command_topic"] != topics.LockCommand ||
		lock["state_topic"] != topics.LockState ||
		lock["payload_lock"] != "LOCK" ||
		lock["state_unlocked"] != "UNLOCKED" {
		t.Errorf("lock component = %v", lock)
	}

	reed := components["reed"].(map[string]any)
	if reed["platform"] != "binary_sensor" ||
		reed["device_class"] != "door" ||
		reed["state_topic"] != topics.SensorState ||
		reed["payload_on"] != "ON" {
		t.Errorf("reed component = %v", reed)
	}
}

type fakeMessage struct{ payload string }

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return "doorctl/" + testDeviceID + "/lock/cmd/" }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return []byte(m.payload) }
func (m fakeMessage) Ack()              {}

func TestHandleCommandLatestWins(t *testing.T) {
	cmds := make(chan state.Lock, 2)
	s := New(conf.NewStore(hal.NewMemFlash(1)), testDeviceID, bus.New(), cmds)

	ctx := context.Background()
	s.handleCommand(ctx, fakeMessage{payload: "LOCK"})
	s.handleCommand(ctx, fakeMessage{payload: "UNLOCK"})

	// The second command displaces the first.
	select {
	case cmd := <-cmds:
		if cmd != state.Unlocked {
			t.Errorf("command = %v, want unlocked", cmd)
		}
	default:
		t.Fatal("no command queued")
	}
	select {
	case cmd := <-cmds:
		t.Errorf("stale command %v left in queue", cmd)
	default:
	}
}

func TestHandleCommandIgnoresUnknownPayload(t *testing.T) {
	cmds := make(chan state.Lock, 2)
	s := New(conf.NewStore(hal.NewMemFlash(1)), testDeviceID, bus.New(), cmds)

	s.handleCommand(context.Background(), fakeMessage{payload: "TOGGLE"})

	select {
	case cmd := <-cmds:
		t.Errorf("unknown payload queued command %v", cmd)
	default:
	}
}

func TestRunWithoutConfig(t *testing.T) {
	s := New(conf.NewStore(hal.NewMemFlash(1)), testDeviceID, bus.New(), make(chan state.Lock, 2))
	if err := s.Run(context.Background()); err != ErrNotConfigured {
		t.Errorf("Run = %v, want ErrNotConfigured", err)
	}
}
