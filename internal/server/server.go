// Package server exposes a simulation over websocket: sensor clients push
// acceleration, viewer clients receive state frames and report the size of
// their play surface.
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/drain/internal/core/events/bus"
	"github.com/zeusync/drain/internal/core/input"
	"github.com/zeusync/drain/internal/core/loop"
	"github.com/zeusync/drain/internal/core/observability/log"
	"github.com/zeusync/drain/internal/core/physics"
	"github.com/zeusync/drain/internal/core/protocol"
)

// Server represents a drain simulation server
type Server struct {
	config Config
	runner *loop.Runner
	accel  *input.Accelerometer
	bus    bus.EventBus
	logger log.Log

	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	httpServer *http.Server
	listener   net.Listener
	subs       []bus.Subscription
	observer   *busObserver
	// workers only grows under mu while closed is false.
	workers sync.WaitGroup

	running atomic.Bool
	closed  atomic.Bool

	ticks     atomic.Uint64
	lastState atomic.Uint64
	hasState  atomic.Bool
	sent      atomic.Uint64
	skipped   atomic.Uint64
}

// Stats are counters for the health endpoint and tests.
type Stats struct {
	Sessions      int    `json:"sessions"`
	FramesSent    uint64 `json:"framesSent"`
	FramesSkipped uint64 `json:"framesSkipped"`
}

// Health is the /health response body.
type Health struct {
	Status   string `json:"status"`
	Running  bool   `json:"running"`
	Ready    bool   `json:"ready"`
	Tick     uint64 `json:"tick"`
	Wins     uint64 `json:"wins"`
	Sessions int    `json:"sessions"`
	// Events counts deliveries since Start.
	Events bus.EventBusMetrics `json:"events"`
}

func New(config Config, runner *loop.Runner, accel *input.Accelerometer, eventBus bus.EventBus, logger log.Log) *Server {
	if config.BroadcastEvery < 1 {
		config.BroadcastEvery = 1
	}

	s := &Server{
		config:   config,
		runner:   runner,
		accel:    accel,
		bus:      eventBus,
		logger:   logger.With(log.String("component", "server")),
		sessions: make(map[uuid.UUID]*Session),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Sensor pages are served from anywhere, phones included.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	s.observer = &busObserver{logger: s.logger}
	if runner != nil {
		s.observer.slow = runner.Interval()
	}

	s.logger.Info("Server created",
		log.String("listen_addr", config.ListenAddr),
		log.Int("broadcast_every", config.BroadcastEvery))

	return s
}

// Start listens on the configured address and serves until Stop.
func (s *Server) Start(ctx context.Context) error {
	if s.closed.Load() {
		return ErrServerClosed
	}
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerAlreadyRunning
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.config.ListenAddr)
	if err != nil {
		s.running.Store(false)
		s.logger.Error("Failed to create listener", log.Error(err))
		return errors.Wrapf(err, "listen on %s", s.config.ListenAddr)
	}

	if err := s.subscribe(); err != nil {
		s.running.Store(false)
		_ = listener.Close()
		return err
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.config.WriteTimeout,
	}

	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server failed", log.Error(err))
		}
	}()

	s.logger.Info("Server listening", log.String("addr", listener.Addr().String()))
	return nil
}

// Stop closes the listener and every session. A stopped server cannot be
// started again.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return ErrServerNotRunning
	}
	s.mu.Lock()
	s.closed.Store(true)
	s.mu.Unlock()

	s.logger.Info("Stopping server")
	s.unsubscribe()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return errors.Wrap(s.httpServer.Shutdown(gctx), "shutdown http")
	})
	g.Go(func() error {
		s.closeSessions(ErrServerClosed)
		done := make(chan struct{})
		go func() {
			s.workers.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-gctx.Done():
			return errors.Wrap(gctx.Err(), "wait for sessions")
		}
	})

	err := g.Wait()
	s.logger.Info("Server stopped", log.Error(err))
	return err
}

// Handler serves /ws and /health.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Addr is the bound listen address, or the configured one before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.ListenAddr
}

func (s *Server) Running() bool { return s.running.Load() }

func (s *Server) Stats() Stats {
	s.mu.RLock()
	n := len(s.sessions)
	s.mu.RUnlock()
	return Stats{
		Sessions:      n,
		FramesSent:    s.sent.Load(),
		FramesSkipped: s.skipped.Load(),
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.config.WriteTimeout)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	snap, err := s.runner.Snapshot(ctx)
	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(Health{Status: "unavailable", Running: s.Running()})
		return
	}

	_ = json.NewEncoder(w).Encode(Health{
		Status:   "ok",
		Running:  s.Running(),
		Ready:    snap.Arena.Width() > 0,
		Tick:     snap.Tick,
		Wins:     snap.Wins,
		Sessions: s.Stats().Sessions,
		Events:   s.bus.GetMetrics(),
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.closed.Load() {
		http.Error(w, ErrServerClosed.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Upgrade failed",
			log.String("remote_addr", r.RemoteAddr),
			log.Error(err))
		return
	}

	conn.SetReadLimit(s.config.MaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	})

	hello, err := s.handshake(conn)
	if err != nil {
		s.logger.Debug("Handshake rejected",
			log.String("remote_addr", r.RemoteAddr),
			log.Error(err))
		s.reject(conn, err)
		return
	}

	sess := newSession(conn, hello, s.config, s.logger)
	_ = sess.sendMessage(protocol.MsgWelcome, protocol.Welcome{
		SessionID: sess.ID().String(),
		TickHz:    int(time.Second / s.runner.Interval()),
		Role:      sess.Role(),
	})

	// Welcome is queued before the session becomes visible to broadcasts.
	if !s.add(sess) {
		s.reject(conn, ErrServerClosed)
		return
	}
	defer s.remove(sess)
	go func() {
		defer s.workers.Done()
		sess.writeLoop()
	}()

	if sess.Role().Receives() {
		s.sendCurrentState(r.Context(), sess)
	}

	s.readLoop(r.Context(), sess)
}

// handshake expects a hello as the first frame.
func (s *Server) handshake(conn *websocket.Conn) (protocol.Hello, error) {
	_, data, err := conn.ReadMessage()
	if err != nil {
		return protocol.Hello{}, errors.Wrap(err, "read hello")
	}

	env, err := protocol.DecodeEnvelope(data)
	if err != nil {
		return protocol.Hello{}, errors.Wrap(ErrHandshake, err.Error())
	}
	if env.T != protocol.MsgHello {
		return protocol.Hello{}, errors.Wrapf(ErrHandshake, "expected %s, got %s", protocol.MsgHello, env.T)
	}

	hello, err := protocol.DecodePayload[protocol.Hello](env)
	if err != nil {
		return protocol.Hello{}, errors.Wrap(ErrHandshake, err.Error())
	}
	if hello.V != protocol.Version {
		return protocol.Hello{}, errors.Wrapf(ErrUnsupportedVersion, "client %d, server %d", hello.V, protocol.Version)
	}
	if hello.Role == "" {
		hello.Role = protocol.RoleViewer
	}
	if !hello.Role.Valid() {
		return protocol.Hello{}, errors.Wrapf(ErrInvalidRole, "%q", hello.Role)
	}
	return hello, nil
}

// reject tells the peer why and closes the connection. No writer goroutine
// exists yet, so writing here is safe.
func (s *Server) reject(conn *websocket.Conn, reason error) {
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if frame, err := protocol.Encode(protocol.MsgError, protocol.Error{Message: reason.Error()}); err == nil {
		_ = conn.WriteMessage(websocket.TextMessage, frame)
	}
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "handshake failed"))
}

func (s *Server) readLoop(ctx context.Context, sess *Session) {
	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				sess.logger.Debug("Read failed", log.Error(err))
			}
			return
		}
		_ = sess.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		if err := s.handleMessage(ctx, sess, data); err != nil {
			sess.logger.Debug("Message rejected", log.Error(err))
			if err := sess.sendMessage(protocol.MsgError, protocol.Error{Message: err.Error()}); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleMessage(ctx context.Context, sess *Session, data []byte) error {
	env, err := protocol.DecodeEnvelope(data)
	if err != nil {
		return errors.Wrap(ErrInvalidMessage, err.Error())
	}

	switch env.T {
	case protocol.MsgSensor:
		m, err := protocol.DecodePayload[protocol.Sensor](env)
		if err != nil {
			return errors.Wrap(ErrInvalidMessage, err.Error())
		}
		return s.setAcceleration(m.Screen())

	case protocol.MsgAccel:
		m, err := protocol.DecodePayload[protocol.Accel](env)
		if err != nil {
			return errors.Wrap(ErrInvalidMessage, err.Error())
		}
		return s.setAcceleration(m)

	case protocol.MsgArena:
		if !sess.Role().Receives() {
			return errors.Wrapf(ErrForbidden, "%s from %s", env.T, sess.Role())
		}
		m, err := protocol.DecodePayload[protocol.Arena](env)
		if err != nil {
			return errors.Wrap(ErrInvalidMessage, err.Error())
		}
		ctx, cancel := context.WithTimeout(ctx, s.config.WriteTimeout)
		defer cancel()
		return s.runner.SetArena(ctx, m)

	case protocol.MsgHello:
		return errors.Wrap(ErrInvalidMessage, "session already greeted")

	default:
		return errors.Wrapf(ErrInvalidMessage, "unknown type %q", env.T)
	}
}

func (s *Server) setAcceleration(a protocol.Accel) error {
	if !physics.Finite(physics.Vec2{a.X, a.Y}) {
		return errors.Wrap(ErrInvalidMessage, "acceleration must be finite")
	}
	s.accel.Set(a.X, a.Y)
	return nil
}

func (s *Server) sendCurrentState(ctx context.Context, sess *Session) {
	ctx, cancel := context.WithTimeout(ctx, s.config.WriteTimeout)
	defer cancel()

	snap, err := s.runner.Snapshot(ctx)
	if err != nil || snap.Arena.Width() <= 0 {
		return
	}
	_ = sess.sendMessage(protocol.MsgState, protocol.NewState(snap))
}

// add registers sess and reserves a worker slot for its writer. It fails
// once Stop has begun.
func (s *Server) add(sess *Session) bool {
	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		return false
	}
	s.workers.Add(1)
	s.sessions[sess.ID()] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	sess.logger.Info("Session opened",
		log.String("name", sess.Name()),
		log.Int("sessions", n))
	return true
}

func (s *Server) remove(sess *Session) {
	sess.close(nil)

	s.mu.Lock()
	delete(s.sessions, sess.ID())
	n := len(s.sessions)
	s.mu.Unlock()

	sess.logger.Info("Session closed",
		log.Uint64("frames_sent", sess.framesSent.Load()),
		log.Int("sessions", n),
		log.Error(sess.Err()))
}

func (s *Server) closeSessions(reason error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		sess.close(reason)
	}
}
