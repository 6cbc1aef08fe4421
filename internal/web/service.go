package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/doorctl/internal/bus"
	"github.com/muurk/doorctl/internal/conf"
	"github.com/muurk/doorctl/internal/httpd"
	"github.com/muurk/doorctl/internal/logging"
	"github.com/muurk/doorctl/internal/state"
	"github.com/muurk/doorctl/internal/websock"
)

// IdleTimeout ends a WebSocket session that has sent nothing for this
// long, returning its slot to the session pool.
const IdleTimeout = 5 * time.Minute

// Service holds the state shared by all web sessions: the bus, the
// config store, the command channel into the door session, and the
// retained last-known state used to bring new pages up to date.
type Service struct {
	bus         *bus.Bus
	store       *conf.Store
	cmds        chan<- state.Lock
	restart     func()
	idleTimeout time.Duration

	mu       sync.Mutex
	retained bus.Retained
}

// NewService wires the shared web state. restart is invoked after a
// successful configuration save so the daemon can re-apply it.
func NewService(b *bus.Bus, store *conf.Store, cmds chan<- state.Lock, restart func()) *Service {
	return &Service{bus: b, store: store, cmds: cmds, restart: restart, idleTimeout: IdleTimeout}
}

// SetIdleTimeout overrides the WebSocket idle timeout. Tests use short
// values.
func (s *Service) SetIdleTimeout(d time.Duration) {
	s.idleTimeout = d
}

// Track follows the bus and keeps the retained state current. It runs
// for the life of the daemon so that sessions opened between transitions
// still see the latest values.
func (s *Service) Track(ctx context.Context) error {
	sub, err := s.bus.Subscribe()
	if err != nil {
		return err
	}
	defer sub.Cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-sub.C():
			s.mu.Lock()
			s.retained.Observe(ev)
			s.mu.Unlock()
		}
	}
}

func (s *Service) lastKnown() (state.Lock, state.Door) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, _ := s.retained.Lock()
	door, _ := s.retained.Door()
	return lock, door
}

// Session is the per-connection handler. It carries the connection's
// context so the WebSocket loop stops when the daemon does.
type Session struct {
	svc        *Service
	ctx        context.Context
	remoteAddr string
}

// NewSession prepares a handler for one accepted connection.
func (s *Service) NewSession(ctx context.Context, remoteAddr string) *Session {
	return &Session{svc: s, ctx: ctx, remoteAddr: remoteAddr}
}

// HandleRequest serves the static page, the favicon, and the /ws
// upgrade. Anything with a body is rejected and ends the connection;
// this server never reads uploads.
func (s *Session) HandleRequest(req *httpd.Request, resp *httpd.Responder) (*websock.Conn, error) {
	logging.LogHTTPRequest(s.remoteAddr, req.Method.String(), req.Path, req.ContentLength)

	if body, _ := req.Body(); len(body) > 0 {
		if err := respondEmpty(resp, httpd.StatusBadRequest); err != nil {
			return nil, err
		}
		return nil, httpd.ProtocolError("request body not accepted")
	}
	if req.Method != httpd.MethodGet {
		if err := respondEmpty(resp, httpd.StatusBadRequest); err != nil {
			return nil, err
		}
		return nil, httpd.ProtocolError("method not supported")
	}

	switch req.Path {
	case "/", "/index.html":
		return nil, respondAsset(resp, "text/html", indexHTML)

	case "/favicon.ico":
		return nil, respondAsset(resp, "image/svg+xml", faviconSVG)

	case "/ws":
		if up, ok := req.GetHeader(httpd.HeaderUpgrade); !ok || !strings.EqualFold(up, "websocket") {
			if err := respondEmpty(resp, httpd.StatusBadRequest); err != nil {
				return nil, err
			}
			return nil, httpd.ProtocolError("missing websocket upgrade header")
		}
		return resp.Upgrade(req)

	default:
		return nil, respondEmpty(resp, httpd.StatusNotFound)
	}
}

func respondAsset(resp *httpd.Responder, contentType string, body []byte) error {
	sending, err := resp.WithStatus(httpd.StatusOK)
	if err != nil {
		return err
	}
	sending, err = sending.WithHeader("Content-Type", contentType)
	if err != nil {
		return err
	}
	return sending.WithBody(body)
}

func respondEmpty(resp *httpd.Responder, code httpd.StatusCode) error {
	sending, err := resp.WithStatus(code)
	if err != nil {
		return err
	}
	return sending.NoBody()
}

type inbound struct {
	data []byte
	err  error
}

// HandleWebSocket runs the live session: replay last-known state and the
// config snapshot, then relay bus events out and commands in until the
// peer leaves, the session idles out, or the daemon stops.
func (s *Session) HandleWebSocket(ws *websock.Conn, buf []byte) error {
	sub, err := s.svc.bus.Subscribe()
	if err != nil {
		return err
	}
	defer sub.Cancel()

	if err := s.replay(ws); err != nil {
		return err
	}

	msgs := make(chan inbound)
	done := make(chan struct{})
	defer close(done)
	go readFrames(ws, buf, msgs, done)

	idle := time.NewTimer(s.svc.idleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return s.ctx.Err()

		case in := <-msgs:
			if in.err != nil {
				if errors.Is(in.err, io.EOF) {
					return nil
				}
				return in.err
			}
			if err := s.handleMessage(ws, in.data); err != nil {
				return err
			}
			if !idle.Stop() {
				<-idle.C
			}
			idle.Reset(s.svc.idleTimeout)

		case ev := <-sub.C():
			frame, ok := encodeState(ev)
			if !ok {
				continue
			}
			logging.LogWebSocketFrame(s.remoteAddr, "out", msgState, frame)
			if err := ws.Send(frame); err != nil {
				return err
			}

		case <-idle.C:
			logging.LogConnection(s.remoteAddr, "websocket idle timeout")
			return nil
		}
	}
}

// replay sends the retained state and the config snapshot so a fresh
// page renders immediately instead of waiting for the next transition.
func (s *Session) replay(ws *websock.Conn) error {
	lock, door := s.svc.lastKnown()
	if lock != 0 {
		if err := ws.Send([]byte{msgState, lockCode(lock)}); err != nil {
			return err
		}
	}
	if door != 0 {
		if err := ws.Send([]byte{msgState, doorCode(door)}); err != nil {
			return err
		}
	}

	// In setup mode there is no record yet; the page gets an empty
	// snapshot and shows the configuration form.
	var snap conf.Snapshot
	if rec := s.svc.store.Current(); rec != nil {
		snap = rec.Snapshot()
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return ws.Send(append([]byte{msgConfig}, payload...))
}

func (s *Session) handleMessage(ws *websock.Conn, data []byte) error {
	if len(data) == 0 {
		return httpd.ProtocolError("empty websocket message")
	}
	logging.LogWebSocketFrame(s.remoteAddr, "in", data[0], data)

	switch data[0] {
	case msgState:
		if len(data) != 2 {
			return httpd.ProtocolError("malformed state command")
		}
		var cmd state.Lock
		switch data[1] {
		case codeLocked:
			cmd = state.Locked
		case codeUnlocked:
			cmd = state.Unlocked
		default:
			return httpd.ProtocolError("unknown state command code")
		}
		select {
		case s.svc.cmds <- cmd:
		case <-s.ctx.Done():
			return s.ctx.Err()
		}
		return nil

	case msgConfig:
		return s.applyConfig(ws, data[1:])

	default:
		return httpd.ProtocolError("unknown websocket message type")
	}
}

// applyConfig persists a partial update. A bad update is reported back
// as a notice and the session continues; only transport failures end it.
func (s *Session) applyConfig(ws *websock.Conn, payload []byte) error {
	var u conf.Update
	if err := json.Unmarshal(payload, &u); err != nil {
		logging.LogRawBytes("Rejected configuration payload", payload)
		return ws.Send(encodeNotice("invalid configuration payload"))
	}

	if _, err := s.svc.store.Apply(&u); err != nil {
		logging.Warn("Configuration save failed",
			zap.String("remote_addr", s.remoteAddr),
			zap.Error(err),
		)
		return ws.Send(encodeNotice(fmt.Sprintf("save failed: %v", err)))
	}

	if err := ws.Send(encodeNotice("configuration saved, reconnecting services")); err != nil {
		return err
	}
	if s.svc.restart != nil {
		s.svc.restart()
	}
	return nil
}

// readFrames pumps incoming frames to the session loop. Payloads are
// copied out of the shared receive buffer before handoff. done unblocks
// the pump when the session loop has already returned.
func readFrames(ws *websock.Conn, buf []byte, out chan<- inbound, done <-chan struct{}) {
	for {
		frame, err := ws.Receive(buf)
		var msg inbound
		if err != nil {
			msg = inbound{err: err}
		} else {
			data := make([]byte, frame.Len)
			copy(data, buf[:frame.Len])
			msg = inbound{data: data}
		}

		select {
		case out <- msg:
		case <-done:
			return
		}
		if err != nil {
			return
		}
	}
}
