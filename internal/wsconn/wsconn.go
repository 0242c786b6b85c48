// Package wsconn provides a WebSocket client with reconnection, keepalive
// pings and callback-based message delivery.
package wsconn

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/fd1az/product-scout/internal/apperror"
	"github.com/fd1az/product-scout/internal/logger"
)

// State represents the connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateClosed       State = "closed"
)

// Config holds WebSocket client configuration.
type Config struct {
	URL            string
	Name           string
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxReconnects  int // 0 = infinite
	PingInterval   time.Duration
	PongTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxMessageSize int64
	Logger         logger.LoggerInterface
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(url, name string) Config {
	return Config{
		URL:            url,
		Name:           name,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		MaxReconnects:  0,
		PingInterval:   30 * time.Second,
		PongTimeout:    10 * time.Second,
		WriteTimeout:   5 * time.Second,
		MaxMessageSize: 512 * 1024,
	}
}

// MessageHandler receives every data frame read from the connection.
type MessageHandler func(ctx context.Context, msg []byte)

// StateHandler is notified on every state transition. err is the cause of
// a disconnect, nil otherwise.
type StateHandler func(state State, err error)

// Client is a WebSocket client that keeps a single connection alive.
type Client struct {
	config Config
	log    logger.LoggerInterface

	connMu sync.RWMutex
	conn   *websocket.Conn

	state   State
	stateMu sync.RWMutex

	handlersMu     sync.RWMutex
	onMessage      MessageHandler
	onStateChange  StateHandler
	onReconnect    func(ctx context.Context) error
	ctx            context.Context
	cancel         context.CancelFunc
	closeOnce      sync.Once
	closing        atomic.Bool
	reconnectGuard sync.Mutex
	reconnecting   bool
}

// New creates a new WebSocket client. It does not dial.
func New(config Config) (*Client, error) {
	if config.URL == "" {
		return nil, apperror.New(apperror.CodeWebSocketConnectionError,
			apperror.WithMessage("websocket url is required"),
			apperror.WithContext(config.Name))
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = time.Second
	}
	if config.MaxBackoff < config.InitialBackoff {
		config.MaxBackoff = config.InitialBackoff
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 5 * time.Second
	}

	log := config.Logger
	if log == nil {
		log = logger.NewDiscard()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		config: config,
		log:    log,
		state:  StateDisconnected,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// OnMessage registers the handler for incoming messages.
func (c *Client) OnMessage(h MessageHandler) {
	c.handlersMu.Lock()
	c.onMessage = h
	c.handlersMu.Unlock()
}

// OnStateChange registers the handler for state transitions.
func (c *Client) OnStateChange(h StateHandler) {
	c.handlersMu.Lock()
	c.onStateChange = h
	c.handlersMu.Unlock()
}

// OnReconnect registers a hook run after every successful reconnect,
// typically to replay subscriptions.
func (c *Client) OnReconnect(h func(ctx context.Context) error) {
	c.handlersMu.Lock()
	c.onReconnect = h
	c.handlersMu.Unlock()
}

// Connect dials the server. A failed initial dial is returned to the caller
// and leaves the client disconnected; later drops reconnect in the background.
func (c *Client) Connect(ctx context.Context) error {
	if c.ctx.Err() != nil {
		return apperror.New(apperror.CodeWebSocketClosed, apperror.WithContext(c.config.Name))
	}

	c.setState(StateConnecting, nil)
	if err := c.dial(ctx); err != nil {
		c.setState(StateDisconnected, err)
		return apperror.New(apperror.CodeWebSocketConnectionError,
			apperror.WithCause(err),
			apperror.WithContext(c.config.Name))
	}
	c.setState(StateConnected, nil)
	return nil
}

func (c *Client) dial(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.config.URL, nil)
	if err != nil {
		return err
	}
	if c.config.MaxMessageSize > 0 {
		conn.SetReadLimit(c.config.MaxMessageSize)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	go c.readLoop(conn)
	if c.config.PingInterval > 0 {
		go c.pingLoop(conn)
	}
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(c.ctx)
		if err != nil {
			c.handleDisconnect(conn, err)
			return
		}

		c.handlersMu.RLock()
		h := c.onMessage
		c.handlersMu.RUnlock()
		if h != nil {
			h(c.ctx, data)
		}
	}
}

func (c *Client) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if c.currentConn() != conn {
				return
			}
			pingCtx, cancel := context.WithTimeout(c.ctx, c.config.PongTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				c.log.Warn(c.ctx, "websocket ping failed", "name", c.config.Name, "error", err)
				conn.Close(websocket.StatusPolicyViolation, "pong timeout")
				return
			}
		}
	}
}

func (c *Client) handleDisconnect(conn *websocket.Conn, err error) {
	if c.closing.Load() || c.ctx.Err() != nil {
		return
	}

	c.connMu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.connMu.Unlock()

	conn.CloseNow()
	c.log.Warn(c.ctx, "websocket disconnected", "name", c.config.Name, "error", err)
	c.setState(StateDisconnected, err)

	c.reconnectGuard.Lock()
	if c.reconnecting {
		c.reconnectGuard.Unlock()
		return
	}
	c.reconnecting = true
	c.reconnectGuard.Unlock()

	go c.reconnectLoop()
}

func (c *Client) reconnectLoop() {
	defer func() {
		c.reconnectGuard.Lock()
		c.reconnecting = false
		c.reconnectGuard.Unlock()
	}()

	backoff := c.config.InitialBackoff
	for attempt := 1; c.config.MaxReconnects == 0 || attempt <= c.config.MaxReconnects; attempt++ {
		c.setState(StateReconnecting, nil)

		select {
		case <-c.ctx.Done():
			return
		case <-time.After(backoff):
		}

		dialCtx, cancel := context.WithTimeout(c.ctx, c.config.MaxBackoff)
		err := c.dial(dialCtx)
		cancel()
		if err == nil {
			c.log.Info(c.ctx, "websocket reconnected", "name", c.config.Name, "attempt", attempt)
			c.setState(StateConnected, nil)

			c.handlersMu.RLock()
			hook := c.onReconnect
			c.handlersMu.RUnlock()
			if hook != nil {
				if err := hook(c.ctx); err != nil {
					c.log.Error(c.ctx, "websocket reconnect hook failed", "name", c.config.Name, "error", err)
				}
			}
			return
		}

		c.log.Debug(c.ctx, "websocket reconnect attempt failed",
			"name", c.config.Name, "attempt", attempt, "backoff", backoff, "error", err)

		backoff *= 2
		if backoff > c.config.MaxBackoff {
			backoff = c.config.MaxBackoff
		}
	}

	if c.ctx.Err() == nil {
		c.setState(StateDisconnected, apperror.New(apperror.CodeWebSocketConnectionError,
			apperror.WithMessage("reconnect attempts exhausted"),
			apperror.WithContext(c.config.Name)))
	}
}

// Send writes a text frame.
func (c *Client) Send(ctx context.Context, msg []byte) error {
	conn := c.currentConn()
	if conn == nil {
		return apperror.New(apperror.CodeWebSocketSendError,
			apperror.WithMessage("not connected"),
			apperror.WithContext(c.config.Name))
	}

	writeCtx, cancel := context.WithTimeout(ctx, c.config.WriteTimeout)
	defer cancel()

	if err := conn.Write(writeCtx, websocket.MessageText, msg); err != nil {
		return apperror.New(apperror.CodeWebSocketSendError,
			apperror.WithCause(err),
			apperror.WithContext(c.config.Name))
	}
	return nil
}

// SendJSON marshals v and writes it as a text frame.
func (c *Client) SendJSON(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return apperror.New(apperror.CodeInvalidFormat,
			apperror.WithCause(err),
			apperror.WithContext(c.config.Name))
	}
	return c.Send(ctx, data)
}

// State returns the current connection state.
func (c *Client) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// IsConnected reports whether the client holds a live connection.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Close stops reconnection and closes the connection. Safe to call twice.
func (c *Client) Close() error {
	var closeErr error
	c.closeOnce.Do(func() {
		c.closing.Store(true)

		c.connMu.Lock()
		conn := c.conn
		c.conn = nil
		c.connMu.Unlock()

		if conn != nil {
			err := conn.Close(websocket.StatusNormalClosure, "client closing")
			if err != nil && !isExpectedCloseErr(err) {
				closeErr = apperror.New(apperror.CodeWebSocketClosed,
					apperror.WithCause(err),
					apperror.WithContext(c.config.Name))
			}
		}
		c.cancel()
		c.setState(StateClosed, nil)
	})
	return closeErr
}

func (c *Client) currentConn() *websocket.Conn {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.conn
}

func (c *Client) setState(state State, err error) {
	c.stateMu.Lock()
	if c.state == StateClosed {
		c.stateMu.Unlock()
		return
	}
	c.state = state
	c.stateMu.Unlock()

	c.handlersMu.RLock()
	h := c.onStateChange
	c.handlersMu.RUnlock()
	if h != nil {
		h(state, err)
	}
}

func isExpectedCloseErr(err error) bool {
	if errors.Is(err, net.ErrClosed) || errors.Is(err, context.Canceled) {
		return true
	}
	return websocket.CloseStatus(err) != -1
}
