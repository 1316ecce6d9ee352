package devserver

import (
	"context"
	"encoding/json"
	"sync"

	"freewrite-assistant/internal/pkg/logger"
	"freewrite-assistant/pkg/protocol"

	"github.com/google/uuid"
)

// Hub tracks the connected peers.
type Hub struct {
	// Registered peers: peer ID -> peer
	peers map[uuid.UUID]*Peer

	// Register requests from the peers.
	register chan *Peer

	// Unregister requests from peers.
	unregister chan *Peer

	// Closed when Run returns
	done chan struct{}

	// Lock for safe map access
	mu sync.RWMutex

	logger logger.ILogger
}

func NewHub(log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Peer),
		unregister: make(chan *Peer),
		peers:      make(map[uuid.UUID]*Peer),
		done:       make(chan struct{}),
		logger:     log,
	}
}

// Run serves register and unregister requests until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return
		case peer := <-h.register:
			h.mu.Lock()
			h.peers[peer.ID] = peer
			h.mu.Unlock()
			h.logger.Info("Hub", "Peer registered", map[string]interface{}{"peer_id": peer.ID, "user_id": peer.UserID})

		case peer := <-h.unregister:
			h.mu.Lock()
			delete(h.peers, peer.ID)
			h.mu.Unlock()
			h.logger.Info("Hub", "Peer unregistered", map[string]interface{}{"peer_id": peer.ID, "user_id": peer.UserID})
		}
	}
}

func (h *Hub) add(peer *Peer) {
	select {
	case h.register <- peer:
	case <-h.done:
	}
}

func (h *Hub) remove(peer *Peer) {
	select {
	case h.unregister <- peer:
	case <-h.done:
	}
}

// Count returns the number of connected peers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// Broadcast sends env to every connected peer and returns how many queued it.
// Peers with a full buffer are skipped.
func (h *Hub) Broadcast(env protocol.Envelope) int {
	data, err := json.Marshal(env)
	if err != nil {
		h.logger.Error("Hub", "Failed to encode broadcast", map[string]interface{}{"error": err})
		return 0
	}

	sent := 0
	h.mu.RLock()
	for _, peer := range h.peers {
		select {
		case peer.send <- data:
			sent++
		default:
			h.logger.Warn("Hub", "Peer send buffer full, dropping message", map[string]interface{}{"peer_id": peer.ID})
		}
	}
	h.mu.RUnlock()
	return sent
}
