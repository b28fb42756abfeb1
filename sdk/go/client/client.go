// Package client is a Go SDK for the drain websocket server. A client can
// act as a sensor that streams acceleration or as a viewer that receives
// state frames.
package client

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/zeusync/drain/internal/core/observability/log"
	"github.com/zeusync/drain/internal/core/protocol"
	"github.com/zeusync/drain/internal/core/simulation"
)

// Config holds configuration for the client
type Config struct {
	Name string
	Role protocol.Role

	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration

	Logger log.Log
}

// DefaultClientConfig returns default client configuration
func DefaultClientConfig() Config {
	return Config{
		Role:             protocol.RoleViewer,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
	}
}

// Client is one websocket session. Callbacks run on the read goroutine and
// must not block.
type Client struct {
	conn    *websocket.Conn
	config  Config
	logger  log.Log
	welcome protocol.Welcome

	writeMu sync.Mutex

	handlerMu     sync.RWMutex
	stateHandlers []func(protocol.State)
	winHandlers   []func(protocol.Win)
	errHandlers   []func(error)

	closed  atomic.Bool
	done    chan struct{}
	readErr atomic.Pointer[error]
	wg      sync.WaitGroup
}

// Dial connects to url (ws://host/ws), says hello and waits for the welcome.
func Dial(ctx context.Context, url string, config Config) (*Client, error) {
	if config.Role == "" {
		config.Role = protocol.RoleViewer
	}
	if config.HandshakeTimeout <= 0 {
		config.HandshakeTimeout = DefaultClientConfig().HandshakeTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultClientConfig().WriteTimeout
	}
	if config.Logger == nil {
		config.Logger = log.NewNop()
	}

	dialer := websocket.Dialer{HandshakeTimeout: config.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", url)
	}

	c := &Client{
		conn:   conn,
		config: config,
		logger: config.Logger.With(log.String("component", "client")),
		done:   make(chan struct{}),
	}

	if err := c.handshake(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	c.logger = c.logger.With(log.String("session_id", c.welcome.SessionID))
	c.logger.Info("Connected",
		log.String("url", url),
		log.String("role", string(c.welcome.Role)),
		log.Int("tick_hz", c.welcome.TickHz))

	c.wg.Add(1)
	go c.readLoop()

	return c, nil
}

func (c *Client) handshake() error {
	if err := c.send(protocol.MsgHello, protocol.Hello{
		V:    protocol.Version,
		Name: c.config.Name,
		Role: c.config.Role,
	}); err != nil {
		return errors.Wrap(ErrHandshake, err.Error())
	}

	_ = c.conn.SetReadDeadline(time.Now().Add(c.config.HandshakeTimeout))
	defer func() { _ = c.conn.SetReadDeadline(time.Time{}) }()

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return errors.Wrap(ErrHandshake, err.Error())
	}
	env, err := protocol.DecodeEnvelope(data)
	if err != nil {
		return errors.Wrap(ErrHandshake, err.Error())
	}

	switch env.T {
	case protocol.MsgWelcome:
		welcome, err := protocol.DecodePayload[protocol.Welcome](env)
		if err != nil {
			return errors.Wrap(ErrHandshake, err.Error())
		}
		c.welcome = welcome
		return nil
	case protocol.MsgError:
		msg, _ := protocol.DecodePayload[protocol.Error](env)
		return errors.Wrap(ErrHandshake, msg.Message)
	default:
		return errors.Wrapf(ErrHandshake, "unexpected %s", env.T)
	}
}

// Welcome is what the server answered to hello.
func (c *Client) Welcome() protocol.Welcome { return c.welcome }

// OnState registers a callback for state frames.
func (c *Client) OnState(fn func(protocol.State)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.stateHandlers = append(c.stateHandlers, fn)
}

// OnWin registers a callback for win notifications.
func (c *Client) OnWin(fn func(protocol.Win)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.winHandlers = append(c.winHandlers, fn)
}

// OnError registers a callback for errors reported by the server. The
// error wraps ErrServer.
func (c *Client) OnError(fn func(error)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.errHandlers = append(c.errHandlers, fn)
}

// SendSensor streams a raw device-axis reading.
func (c *Client) SendSensor(x, y, z float64) error {
	return c.send(protocol.MsgSensor, protocol.Sensor{X: x, Y: y, Z: z})
}

// SendAccel streams an acceleration already in screen axes.
func (c *Client) SendAccel(x, y float64) error {
	return c.send(protocol.MsgAccel, protocol.Accel{X: x, Y: y})
}

// SendArena reports the bounds of the play surface. Only viewers may.
func (c *Client) SendArena(a simulation.Arena) error {
	return c.send(protocol.MsgArena, a)
}

// Done is closed once the connection is gone.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err is the read error that ended the connection, if any.
func (c *Client) Err() error {
	if p := c.readErr.Load(); p != nil {
		return *p
	}
	return nil
}

// Close says goodbye and waits for the read loop to finish.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	c.writeMu.Lock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()

	select {
	case <-c.done:
	case <-time.After(c.config.WriteTimeout):
	}
	err := c.conn.Close()
	c.wg.Wait()

	c.logger.Info("Disconnected")
	return errors.Wrap(ignoreClosed(err), "close")
}

func (c *Client) send(t string, payload any) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	select {
	case <-c.done:
		return ErrNotConnected
	default:
	}

	frame, err := protocol.Encode(t, payload)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout)); err != nil {
		return errors.Wrap(err, "set write deadline")
	}
	return errors.Wrapf(c.conn.WriteMessage(websocket.TextMessage, frame), "send %s", t)
}

func (c *Client) readLoop() {
	defer c.wg.Done()
	defer close(c.done)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !c.closed.Load() {
				c.logger.Warn("Connection lost", log.Error(err))
			}
			c.readErr.Store(&err)
			return
		}

		env, err := protocol.DecodeEnvelope(data)
		if err != nil {
			c.logger.Debug("Dropping frame", log.Error(err))
			continue
		}
		c.dispatch(env)
	}
}

func (c *Client) dispatch(env protocol.Envelope) {
	c.handlerMu.RLock()
	defer c.handlerMu.RUnlock()

	switch env.T {
	case protocol.MsgState:
		st, err := protocol.DecodePayload[protocol.State](env)
		if err != nil {
			c.logger.Debug("Dropping state", log.Error(err))
			return
		}
		for _, fn := range c.stateHandlers {
			fn(st)
		}
	case protocol.MsgWin:
		win, err := protocol.DecodePayload[protocol.Win](env)
		if err != nil {
			c.logger.Debug("Dropping win", log.Error(err))
			return
		}
		for _, fn := range c.winHandlers {
			fn(win)
		}
	case protocol.MsgError:
		msg, _ := protocol.DecodePayload[protocol.Error](env)
		err := errors.Wrap(ErrServer, msg.Message)
		for _, fn := range c.errHandlers {
			fn(err)
		}
	default:
		c.logger.Debug("Ignoring frame", log.String("type", env.T))
	}
}

func ignoreClosed(err error) error {
	if err == nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		return nil
	}
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
