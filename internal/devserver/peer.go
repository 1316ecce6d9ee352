package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"freewrite-assistant/internal/pkg/logger"
	"freewrite-assistant/pkg/protocol"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Peer is a middleman between one websocket connection and the generator.
type Peer struct {
	ID     uuid.UUID
	UserID string

	hub    *Hub
	conn   *websocket.Conn
	gen    *Generator
	logger logger.ILogger

	// Buffered channel of outbound messages.
	send chan []byte

	// Requests are answered one at a time, in arrival order.
	requests chan protocol.Envelope
}

func NewPeer(hub *Hub, conn *websocket.Conn, gen *Generator, userID string, log logger.ILogger) *Peer {
	return &Peer{
		ID:       uuid.New(),
		UserID:   userID,
		hub:      hub,
		conn:     conn,
		gen:      gen,
		logger:   log,
		send:     make(chan []byte, 256),
		requests: make(chan protocol.Envelope, 16),
	}
}

// Serve registers the peer and pumps the connection until it closes.
func (p *Peer) Serve() {
	ctx, cancel := context.WithCancel(context.Background())
	p.hub.add(p)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		p.writePump(ctx)
	}()
	go p.respond(ctx)
	p.readPump() // Run readPump in current goroutine (handler)

	// The connection is released when the handler returns.
	cancel()
	<-writerDone
	p.hub.remove(p)
}

// readPump pumps requests from the websocket connection to the generator.
func (p *Peer) readPump() {
	defer p.conn.Close()

	p.conn.SetReadLimit(maxMessageSize)
	p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		p.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				p.logger.Warn("Peer", "Connection closed unexpectedly", map[string]interface{}{"peer_id": p.ID, "error": err})
			}
			return
		}
		p.conn.SetReadDeadline(time.Now().Add(pongWait))

		var req protocol.Envelope
		if err := json.Unmarshal(message, &req); err != nil {
			p.logger.Warn("Peer", "Dropping malformed request", map[string]interface{}{"peer_id": p.ID, "error": err})
			continue
		}
		p.logger.Info("Peer", "Request received", map[string]interface{}{
			"peer_id": p.ID,
			"channel": req.Type,
			"mode":    req.Mode,
		})

		select {
		case p.requests <- req:
		default:
			p.logger.Warn("Peer", "Request queue full, dropping request", map[string]interface{}{"peer_id": p.ID})
		}
	}
}

func (p *Peer) respond(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-p.requests:
			p.gen.Respond(ctx, req, func(env protocol.Envelope) bool {
				return p.emit(ctx, env) == nil
			})
		}
	}
}

var errPeerClosed = errors.New("peer closed")

func (p *Peer) emit(ctx context.Context, env protocol.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	select {
	case p.send <- data:
		return nil
	case <-ctx.Done():
		return errPeerClosed
	}
}

// writePump pumps messages to the websocket connection, one frame each.
func (p *Peer) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		p.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			p.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-p.send:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				p.logger.Warn("Peer", "Ping failed", map[string]interface{}{"peer_id": p.ID, "error": err})
				return
			}
		}
	}
}
