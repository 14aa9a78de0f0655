// Package wsconn provides a WebSocket client with ping keepalive and optional
// reconnection.
package wsconn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/fd1az/gas-genie/internal/apperror"
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

// ErrNotConnected is returned by Send while no connection is open.
var ErrNotConnected = errors.New("wsconn: not connected")

// Config holds WebSocket client configuration.
type Config struct {
	URL            string
	Name           string
	Header         http.Header
	Reconnect      bool
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxReconnects  int // 0 = infinite
	PingInterval   time.Duration
	PongTimeout    time.Duration
	MaxMessageSize int64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(url, name string) Config {
	return Config{
		URL:            url,
		Name:           name,
		Reconnect:      true,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		MaxReconnects:  0,
		PingInterval:   30 * time.Second,
		PongTimeout:    10 * time.Second,
		MaxMessageSize: 1 << 20,
	}
}

// MessageHandler receives every inbound message.
type MessageHandler func(ctx context.Context, msg []byte)

// StateHandler observes state transitions. err is the cause, if any.
type StateHandler func(state State, err error)

// Client is a WebSocket client. Handlers must be set before Connect.
type Client struct {
	config Config

	conn   *websocket.Conn
	connMu sync.RWMutex

	state   State
	stateMu sync.RWMutex

	onMessage MessageHandler
	onState   StateHandler

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a new WebSocket client.
func New(config Config) (*Client, error) {
	u, err := url.Parse(config.URL)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("websocket url %q", config.URL)))
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = time.Second
	}
	if config.MaxBackoff < config.InitialBackoff {
		config.MaxBackoff = config.InitialBackoff
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		config: config,
		state:  StateDisconnected,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// OnMessage sets the inbound message handler.
func (c *Client) OnMessage(h MessageHandler) {
	c.onMessage = h
}

// OnStateChange sets the state transition handler.
func (c *Client) OnStateChange(h StateHandler) {
	c.onState = h
}

// Connect establishes the WebSocket connection and starts the read loop.
func (c *Client) Connect(ctx context.Context) error {
	if c.ctx.Err() != nil {
		return ErrNotConnected
	}

	c.setState(StateConnecting, nil)

	conn, err := c.dial(ctx)
	if err != nil {
		c.setState(StateDisconnected, err)
		return apperror.New(apperror.CodeServiceUnavailable,
			apperror.WithCause(err),
			apperror.WithContext(c.config.Name+": dial failed"))
	}

	c.attach(conn)
	return nil
}

// Send writes a text message.
func (c *Client) Send(ctx context.Context, msg []byte) error {
	conn := c.current()
	if conn == nil {
		return ErrNotConnected
	}
	return conn.Write(ctx, websocket.MessageText, msg)
}

// SendJSON encodes v and writes it as a text message.
func (c *Client) SendJSON(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	return c.Send(ctx, data)
}

// State returns the current connection state.
func (c *Client) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// IsConnected reports whether a connection is open.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Close gracefully closes the WebSocket connection. It is idempotent.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()

		c.connMu.Lock()
		conn := c.conn
		c.conn = nil
		c.connMu.Unlock()

		if conn != nil {
			conn.Close(websocket.StatusNormalClosure, "")
		}
		c.wg.Wait()
		c.setState(StateClosed, nil)
	})
	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, c.config.URL, &websocket.DialOptions{
		HTTPHeader: c.config.Header,
	})
	if err != nil {
		return nil, err
	}
	if c.config.MaxMessageSize > 0 {
		conn.SetReadLimit(c.config.MaxMessageSize)
	}
	return conn, nil
}

// attach makes conn current and starts its read and ping loops.
func (c *Client) attach(conn *websocket.Conn) {
	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	c.setState(StateConnected, nil)

	done := make(chan struct{})
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(done)
		c.readLoop(conn)
	}()

	if c.config.PingInterval > 0 {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.pingLoop(conn, done)
		}()
	}
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(c.ctx)
		if err != nil {
			c.handleDisconnect(conn, err)
			return
		}
		if c.onMessage != nil {
			c.onMessage(c.ctx, data)
		}
	}
}

func (c *Client) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(c.ctx, c.config.PongTimeout)
			err := conn.Ping(ctx)
			cancel()
			if err != nil {
				// The read loop observes the close and decides on reconnecting.
				conn.Close(websocket.StatusGoingAway, "pong timeout")
				return
			}
		}
	}
}

func (c *Client) handleDisconnect(conn *websocket.Conn, err error) {
	if c.ctx.Err() != nil {
		return
	}

	c.connMu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.connMu.Unlock()
	conn.CloseNow()

	if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
		c.setState(StateDisconnected, nil)
		return
	}
	if !c.config.Reconnect {
		c.setState(StateDisconnected, err)
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.reconnect(err)
	}()
}

// reconnect dials with exponential backoff until it succeeds, the attempt
// budget runs out or the client is closed.
func (c *Client) reconnect(cause error) {
	backoff := c.config.InitialBackoff

	for attempt := 1; c.config.MaxReconnects == 0 || attempt <= c.config.MaxReconnects; attempt++ {
		c.setState(StateReconnecting, cause)

		select {
		case <-c.ctx.Done():
			return
		case <-time.After(backoff):
		}

		conn, err := c.dial(c.ctx)
		if err == nil {
			c.attach(conn)
			return
		}
		cause = err

		backoff *= 2
		if backoff > c.config.MaxBackoff {
			backoff = c.config.MaxBackoff
		}
	}

	c.setState(StateDisconnected, cause)
}

func (c *Client) current() *websocket.Conn {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.conn
}

func (c *Client) setState(state State, err error) {
	c.stateMu.Lock()
	c.state = state
	c.stateMu.Unlock()

	if c.onState != nil {
		c.onState(state, err)
	}
}
