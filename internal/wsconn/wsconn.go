// Package wsconn provides a WebSocket client with automatic reconnection.
package wsconn

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// State represents the connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
)

// Config holds WebSocket client configuration.
type Config struct {
	URL            string
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxReconnects  int // 0 = infinite
	PingInterval   time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(url string) Config {
	return Config{
		URL:            url,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		MaxReconnects:  0, // infinite
		PingInterval:   30 * time.Second,
	}
}

// Client is a reconnecting WebSocket client. Received messages are delivered
// on the Messages channel; the read loop reconnects with exponential backoff
// until the context is cancelled or Close is called.
type Client struct {
	config   Config
	logger   *slog.Logger
	state    State
	stateMu  sync.RWMutex
	conn     *websocket.Conn
	connMu   sync.Mutex
	messages chan []byte
	done     chan struct{}
	closed   sync.Once
}

// New creates a new WebSocket client.
func New(config Config, logger *slog.Logger) *Client {
	return &Client{
		config:   config,
		logger:   logger,
		state:    StateDisconnected,
		messages: make(chan []byte, 100),
		done:     make(chan struct{}),
	}
}

// Connect dials the endpoint and starts the read/ping loops. It returns once
// the first connection attempt succeeds; reconnection afterwards is handled
// internally.
func (c *Client) Connect(ctx context.Context) error {
	c.setState(StateConnecting)

	if err := c.dial(ctx); err != nil {
		c.setState(StateDisconnected)
		return err
	}

	c.setState(StateConnected)
	go c.readLoop(ctx)
	go c.pingLoop(ctx)
	return nil
}

func (c *Client) dial(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.config.URL, nil)
	if err != nil {
		return err
	}
	conn.SetReadLimit(1 << 20)

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	return nil
}

func (c *Client) readLoop(ctx context.Context) {
	backoff := c.config.InitialBackoff
	reconnects := 0

	for {
		conn := c.current()
		if conn == nil {
			return
		}

		_, data, err := conn.Read(ctx)
		if err == nil {
			backoff = c.config.InitialBackoff
			select {
			case c.messages <- data:
			case <-ctx.Done():
				return
			case <-c.done:
				return
			default:
				// Drop on a full buffer rather than stall the read loop;
				// pool state is refreshed periodically anyway.
				c.logger.Warn("wsconn: message buffer full, dropping update")
			}
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		default:
		}

		if c.config.MaxReconnects > 0 && reconnects >= c.config.MaxReconnects {
			c.logger.Error("wsconn: max reconnects reached", "reconnects", reconnects)
			c.setState(StateDisconnected)
			return
		}

		c.setState(StateReconnecting)
		c.logger.Warn("wsconn: connection lost, reconnecting",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		case <-c.done:
			return
		}

		backoff *= 2
		if backoff > c.config.MaxBackoff {
			backoff = c.config.MaxBackoff
		}
		reconnects++

		if err := c.dial(ctx); err != nil {
			continue
		}
		c.setState(StateConnected)
	}
}

func (c *Client) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if conn := c.current(); conn != nil && c.State() == StateConnected {
				pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
				if err := conn.Ping(pingCtx); err != nil {
					c.logger.Debug("wsconn: ping failed", "error", err)
				}
				cancel()
			}
		case <-ctx.Done():
			return
		case <-c.done:
			return
		}
	}
}

// Send sends a text message through the WebSocket.
func (c *Client) Send(ctx context.Context, msg []byte) error {
	conn := c.current()
	if conn == nil || c.State() != StateConnected {
		return errors.New("wsconn: not connected")
	}
	return conn.Write(ctx, websocket.MessageText, msg)
}

// Messages returns the channel for receiving messages.
func (c *Client) Messages() <-chan []byte {
	return c.messages
}

// State returns the current connection state.
func (c *Client) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// Close gracefully closes the WebSocket connection.
func (c *Client) Close() error {
	var err error
	c.closed.Do(func() {
		close(c.done)
		if conn := c.current(); conn != nil {
			err = conn.Close(websocket.StatusNormalClosure, "shutdown")
		}
		c.setState(StateDisconnected)
	})
	return err
}

func (c *Client) current() *websocket.Conn {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.conn
}

func (c *Client) setState(state State) {
	c.stateMu.Lock()
	c.state = state
	c.stateMu.Unlock()
}
