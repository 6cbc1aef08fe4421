package web

import (
	"context"
	"errors"
	"net"

	"go.uber.org/zap"

	"github.com/muurk/doorctl/internal/httpd"
	"github.com/muurk/doorctl/internal/logging"
)

const (
	// MaxSessions bounds concurrent connections. The device serves one
	// or two browsers in practice; four slots absorb reconnect races
	// without letting sessions pile up.
	MaxSessions = 4

	// RequestBufferSize bounds a single HTTP request and a single
	// WebSocket payload. Requests and config updates are both small.
	RequestBufferSize = 2048
)

// Listener accepts browser connections and runs a session per
// connection, at most MaxSessions at a time.
type Listener struct {
	svc  *Service
	addr string
}

// NewListener serves svc on addr.
func NewListener(svc *Service, addr string) *Listener {
	return &Listener{svc: svc, addr: addr}
}

// Run accepts connections until ctx is cancelled. A full session pool
// pauses accepting rather than shedding connections; waiting peers sit
// in the listen backlog.
func (l *Listener) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", l.addr)
	if err != nil {
		return err
	}
	// Also closed on return, so a supervised restart can bind again.
	defer ln.Close()

	// Unblocks Accept when the daemon stops.
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	logging.Info("Web interface listening", zap.String("addr", ln.Addr().String()))

	slots := make(chan struct{}, MaxSessions)
	for {
		select {
		case slots <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}

		conn, err := ln.Accept()
		if err != nil {
			<-slots
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		go func() {
			defer func() { <-slots }()
			defer conn.Close()
			l.serveConn(ctx, conn)
		}()
	}
}

func (l *Listener) serveConn(ctx context.Context, conn net.Conn) {
	remote := conn.RemoteAddr().String()
	logging.LogConnection(remote, "accepted")
	defer logging.LogConnection(remote, "closed")

	session := l.svc.NewSession(ctx, remote)
	buf := make([]byte, RequestBufferSize)

	err := httpd.NewServer(session).Serve(conn, buf)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
	default:
		logging.Warn("Session ended with error",
			zap.String("remote_addr", remote),
			zap.Error(err),
		)
	}
}
