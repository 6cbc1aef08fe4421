// Package hass integrates the device with Home Assistant over MQTT:
// device discovery, availability with a last-will, lock and door state
// publication, and the lock command topic.
package hass

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/muurk/doorctl/internal/bus"
	"github.com/muurk/doorctl/internal/conf"
	"github.com/muurk/doorctl/internal/logging"
	"github.com/muurk/doorctl/internal/state"
)

const (
	keepAlive      = 60 * time.Second
	connectTimeout = 30 * time.Second

	// availabilityRefresh re-publishes the retained online marker, so a
	// broker that lost retained state (or an HA restart that raced the
	// will) converges without waiting for a reconnect.
	availabilityRefresh = 60 * time.Second

	cmdQueueLen = 4
)

// ErrNotConfigured is returned by Run when no config record exists yet.
var ErrNotConfigured = errors.New("hass: device not configured")

// Session is the MQTT side of the daemon. It connects to the configured
// broker, announces the device, and relays state out and lock commands
// in until the context ends or the connection is lost.
type Session struct {
	store    *conf.Store
	deviceID string
	bus      *bus.Bus

	// cmds feeds the door session. The session both sends and drains
	// it: a burst of broker commands collapses to the latest one.
	cmds chan state.Lock

	topics Topics
}

// New prepares a session for the given device.
func New(store *conf.Store, deviceID string, b *bus.Bus, cmds chan state.Lock) *Session {
	return &Session{
		store:    store,
		deviceID: deviceID,
		bus:      b,
		cmds:     cmds,
		topics:   TopicsFor(deviceID),
	}
}

// Run connects and services the broker until ctx is cancelled or the
// connection fails. Reconnecting is the supervisor's job, so a lost
// connection returns an error rather than retrying in place.
func (s *Session) Run(ctx context.Context) error {
	rec := s.store.Current()
	if rec == nil {
		return ErrNotConfigured
	}

	sub, err := s.bus.Subscribe()
	if err != nil {
		return err
	}
	defer sub.Cancel()

	inbound := make(chan mqtt.Message, cmdQueueLen)
	lost := make(chan error, 1)

	client := mqtt.NewClient(s.clientOptions(rec, inbound, lost))
	if err := waitToken(ctx, client.Connect()); err != nil {
		return fmt.Errorf("hass: connect %s:%d: %w", rec.MQTTHost, rec.MQTTPort, err)
	}
	defer client.Disconnect(250)

	if err := s.announce(ctx, client, rec); err != nil {
		return err
	}
	if err := waitToken(ctx, client.Subscribe(s.topics.LockCommand, 1, func(_ mqtt.Client, m mqtt.Message) {
		select {
		case inbound <- m:
		default:
			logging.Warn("Dropping MQTT command, queue full",
				zap.String("topic", m.Topic()))
		}
	})); err != nil {
		return fmt.Errorf("hass: subscribe command topic: %w", err)
	}

	logging.Info("MQTT session established",
		zap.String("broker", rec.MQTTHost),
		zap.String("device_id", s.deviceID),
	)

	refresh := time.NewTicker(availabilityRefresh)
	defer refresh.Stop()

	for {
		select {
		case <-ctx.Done():
			// Best effort: replace the retained online marker before
			// the clean disconnect suppresses the will.
			client.Publish(s.topics.Availability, 1, true, payloadNotAvailable).WaitTimeout(time.Second)
			return ctx.Err()

		case err := <-lost:
			return fmt.Errorf("hass: connection lost: %w", err)

		case m := <-inbound:
			s.handleCommand(ctx, m)

		case ev := <-sub.C():
			if err := s.publishState(ctx, client, ev); err != nil {
				return err
			}

		case <-refresh.C:
			if err := waitToken(ctx, client.Publish(s.topics.Availability, 1, true, payloadAvailable)); err != nil {
				return fmt.Errorf("hass: availability refresh: %w", err)
			}
		}
	}
}

func (s *Session) clientOptions(rec *conf.Record, inbound chan mqtt.Message, lost chan error) *mqtt.ClientOptions {
	scheme := "tcp"
	if rec.TLSEnabled {
		scheme = "ssl"
	}

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%d", scheme, rec.MQTTHost, rec.MQTTPort)).
		SetClientID("doorctl-" + s.deviceID).
		SetKeepAlive(keepAlive).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(false).
		SetOrderMatters(false).
		SetBinaryWill(s.topics.Availability, []byte(payloadNotAvailable), 1, true)

	if rec.MQTTUser != "" {
		opts.SetUsername(rec.MQTTUser)
		opts.SetPassword(rec.MQTTPass)
	}
	if rec.TLSEnabled {
		opts.SetTLSConfig(&tls.Config{InsecureSkipVerify: !rec.TLSVerify})
	}

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		select {
		case lost <- err:
		default:
		}
	})
	return opts
}

// announce publishes the discovery document and the retained online
// marker. Discovery is not retained; Home Assistant persists entities
// it has seen, and a stale retained document would outlive the device.
func (s *Session) announce(ctx context.Context, client mqtt.Client, rec *conf.Record) error {
	doc := NewDiscovery(s.deviceID, rec.DeviceName, s.topics)
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("hass: encode discovery: %w", err)
	}

	if err := waitToken(ctx, client.Publish(s.topics.Discovery, 1, false, payload)); err != nil {
		return fmt.Errorf("hass: publish discovery: %w", err)
	}
	logging.Debug("Discovery published",
		zap.String("topic", s.topics.Discovery),
		zap.Int("bytes", len(payload)),
	)

	if err := waitToken(ctx, client.Publish(s.topics.Availability, 1, true, payloadAvailable)); err != nil {
		return fmt.Errorf("hass: publish availability: %w", err)
	}
	return nil
}

// handleCommand translates a broker command into a door command,
// discarding any queued-but-unserved commands first so only the latest
// intent wins.
func (s *Session) handleCommand(ctx context.Context, m mqtt.Message) {
	var cmd state.Lock
	switch string(m.Payload()) {
	case payloadLock:
		cmd = state.Locked
	case payloadUnlock:
		cmd = state.Unlocked
	default:
		logging.Warn("Unknown MQTT command payload",
			zap.String("topic", m.Topic()),
			zap.ByteString("payload", m.Payload()),
		)
		return
	}
	logging.LogStateChange("hass", "command "+cmd.String())

	for {
		select {
		case <-s.cmds:
		default:
			select {
			case s.cmds <- cmd:
			case <-ctx.Done():
			}
			return
		}
	}
}

func (s *Session) publishState(ctx context.Context, client mqtt.Client, ev state.Any) error {
	var topic, payload string
	switch ev.Kind {
	case state.KindLock:
		topic = s.topics.LockState
		payload = stateLocked
		if ev.Lock == state.Unlocked {
			payload = stateUnlocked
		}
	case state.KindDoor:
		topic = s.topics.SensorState
		payload = stateOff
		if ev.Door == state.Open {
			payload = stateOn
		}
	default:
		return nil
	}

	if err := waitToken(ctx, client.Publish(topic, 1, false, payload)); err != nil {
		return fmt.Errorf("hass: publish %s: %w", topic, err)
	}
	return nil
}

// waitToken blocks on a paho token without outliving the context.
func waitToken(ctx context.Context, tok mqtt.Token) error {
	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
