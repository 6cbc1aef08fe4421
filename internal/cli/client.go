// Package cli implements the operator side of the device's WebSocket
// protocol and the terminal monitor built on it.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/muurk/doorctl/internal/conf"
	"github.com/muurk/doorctl/internal/state"
)

// Frame vocabulary of the device protocol. Mirrors what the device's
// web interface speaks.
const (
	msgState  = 1
	msgConfig = 2
	msgNotice = 3

	codeLocked   = 1
	codeUnlocked = 2
	codeOpen     = 3
	codeClosed   = 4
)

// EventKind discriminates Event.
type EventKind int

const (
	EventLock EventKind = iota + 1
	EventDoor
	EventConfig
	EventNotice
)

// Event is one decoded message from the device.
type Event struct {
	Kind   EventKind
	Lock   state.Lock
	Door   state.Door
	Config conf.Snapshot
	Notice string
}

func (e Event) String() string {
	switch e.Kind {
	case EventLock:
		return "lock " + e.Lock.String()
	case EventDoor:
		return "door " + e.Door.String()
	case EventConfig:
		return fmt.Sprintf("config %s mqtt=%s:%d", e.Config.DeviceName, e.Config.MQTTHost, e.Config.MQTTPort)
	case EventNotice:
		return "notice " + e.Notice
	default:
		return "unknown event"
	}
}

// Client is a connection to one device's WebSocket endpoint.
type Client struct {
	conn *websocket.Conn
}

// Dial connects to a device's ws:// URL.
func Dial(ctx context.Context, url string) (*Client, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("cli: dial %s: %w", url, err)
	}
	return &Client{conn: conn}, nil
}

// Next blocks for the next event from the device.
func (c *Client) Next() (Event, error) {
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			return Event{}, err
		}
		if kind != websocket.BinaryMessage || len(data) == 0 {
			continue
		}
		ev, ok := decodeEvent(data)
		if !ok {
			return Event{}, fmt.Errorf("cli: unrecognized frame type %d", data[0])
		}
		return ev, nil
	}
}

func decodeEvent(data []byte) (Event, bool) {
	switch data[0] {
	case msgState:
		if len(data) != 2 {
			return Event{}, false
		}
		switch data[1] {
		case codeLocked:
			return Event{Kind: EventLock, Lock: state.Locked}, true
		case codeUnlocked:
			return Event{Kind: EventLock, Lock: state.Unlocked}, true
		case codeOpen:
			return Event{Kind: EventDoor, Door: state.Open}, true
		case codeClosed:
			return Event{Kind: EventDoor, Door: state.Closed}, true
		}
		return Event{}, false

	case msgConfig:
		var snap conf.Snapshot
		if err := json.Unmarshal(data[1:], &snap); err != nil {
			return Event{}, false
		}
		return Event{Kind: EventConfig, Config: snap}, true

	case msgNotice:
		return Event{Kind: EventNotice, Notice: string(data[1:])}, true
	}
	return Event{}, false
}

// Lock commands the device to lock.
func (c *Client) Lock() error {
	return c.conn.WriteMessage(websocket.BinaryMessage, []byte{msgState, codeLocked})
}

// Unlock commands the device to unlock.
func (c *Client) Unlock() error {
	return c.conn.WriteMessage(websocket.BinaryMessage, []byte{msgState, codeUnlocked})
}

// SendConfig pushes a partial configuration update.
func (c *Client) SendConfig(u *conf.Update) error {
	payload, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("cli: encode update: %w", err)
	}
	return c.conn.WriteMessage(websocket.BinaryMessage, append([]byte{msgConfig}, payload...))
}

// Close tears down the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
