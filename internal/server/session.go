package server

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/zeusync/drain/internal/core/observability/log"
	"github.com/zeusync/drain/internal/core/protocol"
)

// Session is one websocket client. Frames are queued with enqueue and
// written by a single writer goroutine; the connection is never written
// from anywhere else.
type Session struct {
	id          uuid.UUID
	name        string
	role        protocol.Role
	conn        *websocket.Conn
	config      Config
	logger      log.Log
	connectedAt time.Time

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	closeErr  atomic.Pointer[error]

	framesSent    atomic.Uint64
	framesDropped atomic.Uint64
}

func newSession(conn *websocket.Conn, hello protocol.Hello, config Config, logger log.Log) *Session {
	id := uuid.New()
	return &Session{
		id:          id,
		name:        hello.Name,
		role:        hello.Role,
		conn:        conn,
		config:      config,
		connectedAt: time.Now(),
		send:        make(chan []byte, config.SendBuffer),
		done:        make(chan struct{}),
		logger: logger.With(
			log.String("session_id", id.String()),
			log.String("role", string(hello.Role))),
	}
}

func (s *Session) ID() uuid.UUID         { return s.id }
func (s *Session) Role() protocol.Role   { return s.role }
func (s *Session) Name() string          { return s.name }
func (s *Session) Done() <-chan struct{} { return s.done }

// enqueue queues a frame without blocking. A full queue closes the session.
func (s *Session) enqueue(frame []byte) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}

	select {
	case s.send <- frame:
		return nil
	default:
		s.framesDropped.Add(1)
		s.close(ErrSlowConsumer)
		return ErrSlowConsumer
	}
}

// sendMessage encodes and queues a single message.
func (s *Session) sendMessage(t string, payload any) error {
	frame, err := protocol.Encode(t, payload)
	if err != nil {
		return err
	}
	return s.enqueue(frame)
}

// close stops the writer and closes the connection. The first reason wins.
func (s *Session) close(reason error) {
	s.closeOnce.Do(func() {
		if reason != nil {
			s.closeErr.Store(&reason)
		}
		close(s.done)
	})
}

// Err returns why the session was closed, if it was closed for a reason.
func (s *Session) Err() error {
	if p := s.closeErr.Load(); p != nil {
		return *p
	}
	return nil
}

// writeLoop drains the send queue and pings the peer until the session is
// closed, then sends a close frame and closes the socket.
func (s *Session) writeLoop() {
	ticker := time.NewTicker(s.config.PingInterval)
	defer func() {
		ticker.Stop()
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
		_ = s.conn.WriteMessage(websocket.CloseMessage, closeFrame(s.Err()))
		_ = s.conn.Close()
	}()

	for {
		select {
		case <-s.done:
			s.flush()
			return
		case frame := <-s.send:
			if err := s.write(websocket.TextMessage, frame); err != nil {
				s.close(err)
				return
			}
			s.framesSent.Add(1)
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				s.close(err)
				return
			}
		}
	}
}

// flush writes frames that were queued before close, best effort.
func (s *Session) flush() {
	if errors.Is(s.Err(), ErrSlowConsumer) {
		return
	}
	for {
		select {
		case frame := <-s.send:
			if err := s.write(websocket.TextMessage, frame); err != nil {
				return
			}
			s.framesSent.Add(1)
		default:
			return
		}
	}
}

func (s *Session) write(messageType int, data []byte) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout)); err != nil {
		return errors.Wrap(err, "set write deadline")
	}
	if err := s.conn.WriteMessage(messageType, data); err != nil {
		return errors.Wrap(err, "write message")
	}
	return nil
}

func closeFrame(reason error) []byte {
	switch {
	case reason == nil:
		return websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	case errors.Is(reason, ErrSlowConsumer):
		return websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason.Error())
	case errors.Is(reason, ErrServerClosed):
		return websocket.FormatCloseMessage(websocket.CloseGoingAway, reason.Error())
	default:
		return websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	}
}
