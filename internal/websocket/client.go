package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"freewrite-assistant/internal/pkg/logger"

	"github.com/fasthttp/websocket"
)

const (
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

// ErrNotConnected is returned by Send while no connection is up. The message is not queued.
var ErrNotConnected = errors.New("not connected to backend")

// ErrSendBufferFull is returned when the outbound queue of the current connection is full.
var ErrSendBufferFull = errors.New("send buffer full")

// Handler receives every inbound text message, in arrival order, on the read goroutine.
type Handler func(data []byte)

type Options struct {
	URL              string
	Token            string
	ReconnectBackoff time.Duration
	WriteWait        time.Duration
	Dialer           *websocket.Dialer
	Logger           logger.ILogger
}

// Client keeps one duplex connection to the backend open. When the connection
// drops it waits a fixed backoff and dials again. Nothing is replayed: messages
// queued on a dropped connection are discarded.
type Client struct {
	opts      Options
	onMessage Handler

	mu   sync.Mutex
	send chan []byte // outbound queue of the live connection, nil while disconnected

	onState func(connected bool)
}

func NewClient(opts Options, onMessage Handler) *Client {
	if opts.ReconnectBackoff <= 0 {
		opts.ReconnectBackoff = time.Second
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = 10 * time.Second
	}
	if opts.Dialer == nil {
		opts.Dialer = &websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	return &Client{opts: opts, onMessage: onMessage}
}

// OnStateChange registers fn to be called whenever the connection goes up or down.
// It must be set before Run.
func (c *Client) OnStateChange(fn func(connected bool)) {
	c.onState = fn
}

// Connected reports whether a connection is currently up.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.send != nil
}

// Send queues data on the live connection.
func (c *Client) Send(ctx context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.send == nil {
		return ErrNotConnected
	}
	select {
	case c.send <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrSendBufferFull
	}
}

// Run dials the backend and serves connections until ctx is done.
func (c *Client) Run(ctx context.Context) error {
	for {
		conn, err := c.dial(ctx)
		if err != nil {
			c.opts.Logger.Warn("Transport", "Dial failed", map[string]interface{}{"url": c.opts.URL, "error": err})
		} else {
			c.serve(ctx, conn)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.opts.ReconnectBackoff):
		}
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if c.opts.Token != "" {
		header.Set("Authorization", "Bearer "+c.opts.Token)
	}

	conn, resp, err := c.opts.Dialer.DialContext(ctx, c.opts.URL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("handshake rejected with status %d: %w", resp.StatusCode, err)
		}
		return nil, err
	}
	return conn, nil
}

// serve runs the pumps of one connection and returns once it is closed.
func (c *Client) serve(ctx context.Context, conn *websocket.Conn) {
	send := make(chan []byte, sendBuffer)
	c.setSend(send)
	c.opts.Logger.Info("Transport", "Connected", map[string]interface{}{"url": c.opts.URL})

	done := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writePump(conn, send, done)
	}()
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	c.readPump(conn)

	c.setSend(nil)
	close(done)
	<-writerDone
	conn.Close()
	c.opts.Logger.Info("Transport", "Disconnected", map[string]interface{}{"url": c.opts.URL})
}

func (c *Client) setSend(send chan []byte) {
	c.mu.Lock()
	c.send = send
	c.mu.Unlock()

	if c.onState != nil {
		c.onState(send != nil)
	}
}

// readPump pumps messages from the websocket connection to the handler.
func (c *Client) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.opts.Logger.Warn("Transport", "Connection closed unexpectedly", map[string]interface{}{"error": err})
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))
		c.opts.Logger.Debug("Transport", "Received", map[string]interface{}{"bytes": len(message)})
		if c.onMessage != nil {
			c.onMessage(message)
		}
	}
}

// writePump writes queued messages one frame each and keeps the connection alive with pings.
func (c *Client) writePump(conn *websocket.Conn, send <-chan []byte, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message := <-send:
			conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.opts.Logger.Warn("Transport", "Write failed", map[string]interface{}{"error": err})
				conn.Close()
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}
		case <-done:
			conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
