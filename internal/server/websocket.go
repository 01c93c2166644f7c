package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var errSubscriberClosed = errors.New("subscriber closed")

// wsSubscriber adapts a WebSocket connection to broadcast.Subscriber.
type wsSubscriber struct {
	id           string
	conn         *websocket.Conn
	writeTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

func newWSSubscriber(conn *websocket.Conn, writeTimeout time.Duration) *wsSubscriber {
	return &wsSubscriber{
		id:           uuid.NewString(),
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

func (s *wsSubscriber) ID() string { return s.id }

// Deliver writes payload as one text frame. Writes are serialized by the
// subscriber's mutex.
func (s *wsSubscriber) Deliver(ctx context.Context, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errSubscriberClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var deadline time.Time
	if s.writeTimeout > 0 {
		deadline = time.Now().Add(s.writeTimeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

// Close closes the connection. It is safe to call more than once.
func (s *wsSubscriber) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.conn.Close()
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	sub := newWSSubscriber(conn, s.writeTimeout)
	log := s.logger.With("subscriber", sub.ID(), "remote", r.RemoteAddr)

	if err := s.broadcaster.Register(s.baseCtx, sub); err != nil {
		log.Warn("register websocket subscriber", "error", err)
		_ = sub.Close()
		return
	}
	log.Info("websocket connected")

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}
		log.Debug("websocket message ignored", "bytes", len(msg))
	}

	s.broadcaster.Unregister(sub.ID())
	_ = sub.Close()
	log.Info("websocket disconnected")
}
