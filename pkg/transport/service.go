package transport

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/NotCoffee418/esp32_power_tracker/pkg/wire"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Client owns one full-duplex channel to the device.
type Client struct {
	endpoint string
	opts     Options
	log      *logrus.Entry
	events   chan Event

	// Guards conn and every write on it.
	mu   sync.Mutex
	conn *websocket.Conn

	cancel context.CancelFunc
	done   chan struct{}
}

// Endpoint builds ws://host:port/path.
func Endpoint(host string, port int, path string) string {
	if path == "" {
		path = "/"
	}
	u := url.URL{Scheme: "ws", Host: net.JoinHostPort(host, strconv.Itoa(port)), Path: path}
	return u.String()
}

func NewClient(endpoint string, opts Options) *Client {
	log := opts.Log
	if log == nil {
		log = logrus.WithField("component", "transport")
	}
	return &Client{
		endpoint: endpoint,
		opts:     opts,
		log:      log,
		events:   make(chan Event, 64),
		done:     make(chan struct{}),
	}
}

// Events delivers lifecycle changes and messages in arrival order.
// It is closed once the client stops.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Open starts connecting in the background. Call it once.
func (c *Client) Open(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	go c.run(ctx)
}

// Close stops the client and waits for it to wind down.
func (c *Client) Close() error {
	if c.cancel == nil {
		return nil
	}
	c.cancel()
	<-c.done
	return nil
}

func (c *Client) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Send writes one command. It returns ErrNotOpen without queueing when the
// channel is down; nothing is retried.
func (c *Client) Send(cmd wire.Command) error {
	data, err := wire.EncodeCommand(cmd)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotOpen
	}
	if c.opts.WriteTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write %s: %w", cmd.Name(), err)
	}
	return nil
}

func (c *Client) run(ctx context.Context) {
	defer close(c.done)
	defer close(c.events)

	retryCount := 0
	for {
		if ctx.Err() != nil {
			return
		}

		// Calculate retry delay with exponential backoff
		if retryCount > 0 {
			retryDelay := time.Duration(1<<min(retryCount-1, 30)) * c.opts.BaseRetryDelay
			if retryDelay > c.opts.MaxRetryDelay {
				retryDelay = c.opts.MaxRetryDelay
			}
			c.log.Infof("Retrying connection in %v... (attempt %d/%d)", retryDelay, retryCount+1, c.opts.MaxRetries)
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return
			}
		}

		c.log.Infof("Connecting to %s", c.endpoint)
		dialer := *websocket.DefaultDialer
		dialer.HandshakeTimeout = c.opts.HandshakeTimeout
		conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.WithError(err).Warn("Connection failed")
			c.emit(ctx, Event{Kind: EventError, Err: err})
			c.emit(ctx, Event{Kind: EventClose, Err: err})
			if !c.opts.Reconnect {
				return
			}
			retryCount++
			if retryCount >= c.opts.MaxRetries {
				c.log.Warnf("Max retries (%d) reached. Giving up.", c.opts.MaxRetries)
				return
			}
			continue
		}

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()
		retryCount = 0
		c.log.Info("Channel open")
		c.emit(ctx, Event{Kind: EventOpen})

		broken, readErr := c.handleConnection(ctx, conn)

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.Close()

		if readErr != nil && broken {
			c.emit(ctx, Event{Kind: EventError, Err: readErr})
		}
		c.emit(ctx, Event{Kind: EventClose, Err: readErr})
		c.log.Info("Channel closed")

		if !broken || !c.opts.Reconnect {
			return
		}
		retryCount = 1
		c.log.Info("Connection lost, will retry...")
	}
}

// handleConnection pumps messages until the connection breaks (true) or ctx
// is cancelled (false). The returned error is the read failure, if any.
func (c *Client) handleConnection(ctx context.Context, conn *websocket.Conn) (bool, error) {
	done := make(chan struct{})
	var readErr error

	if c.opts.ReadTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
		})
	}

	go func() {
		defer close(done)
		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					c.log.WithError(err).Warn("WebSocket error")
					readErr = err
				} else {
					c.log.Debugf("Connection closed: %v", err)
				}
				return
			}

			if c.opts.ReadTimeout > 0 {
				conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
			}

			if messageType != websocket.TextMessage {
				c.log.Debugf("Ignoring message of type %d", messageType)
				continue
			}
			if !c.emit(ctx, Event{Kind: EventMessage, Data: message}) {
				return
			}
		}
	}()

	var pings <-chan time.Time
	if c.opts.PingInterval > 0 {
		ticker := time.NewTicker(c.opts.PingInterval)
		defer ticker.Stop()
		pings = ticker.C
	}

	for {
		select {
		case <-done:
			return true, readErr
		case <-pings:
			c.mu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second))
			c.mu.Unlock()
			if err != nil {
				c.log.WithError(err).Debug("Failed to send ping")
			}
		case <-ctx.Done():
			c.mu.Lock()
			err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			c.mu.Unlock()
			if err != nil {
				c.log.WithError(err).Debug("Error sending close message")
			}

			// Wait for close confirmation or timeout
			select {
			case <-done:
			case <-time.After(time.Second):
				conn.Close()
				<-done
			}
			return false, nil
		}
	}
}

// emit blocks until the consumer takes e or ctx ends.
func (c *Client) emit(ctx context.Context, e Event) bool {
	select {
	case c.events <- e:
		return true
	case <-ctx.Done():
		return false
	}
}
