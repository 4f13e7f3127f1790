package ws

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/chessduel/internal/model"
)

var errMissingType = errors.New("missing event type")

// Hub tracks every open websocket connection and delivers events to them
type Hub struct {
	clients map[model.ConnectionID]*Client
	mu      sync.RWMutex
	logger  *slog.Logger
}

// Ensure Hub implements Emitter
var _ model.Emitter = (*Hub)(nil)

// NewHub creates an empty Hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[model.ConnectionID]*Client),
		logger:  logger.With(slog.String("component", "ws")),
	}
}

// Emit queues an event for one connection. Unknown connections and full
// send buffers drop the event.
func (h *Hub) Emit(to model.ConnectionID, event model.Event) {
	h.mu.RLock()
	client, ok := h.clients[to]
	h.mu.RUnlock()
	if !ok {
		h.logger.Debug("ws event for unknown connection dropped",
			slog.String("conn", string(to)),
			slog.String("type", string(event.Type)))
		return
	}

	msg, err := encode(event)
	if err != nil {
		h.logger.Error("ws event encode failed",
			slog.String("type", string(event.Type)),
			slog.String("error", err.Error()))
		return
	}

	if !client.enqueue(msg) {
		h.logger.Warn("ws message dropped - client buffer full",
			slog.String("conn", string(to)),
			slog.String("type", string(event.Type)))
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client. Each client's read loop then reports
// its disconnect as usual.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		client.close()
	}
	h.logger.Info("ws hub stopped", slog.Int("disconnected_clients", len(clients)))
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client.id] = client
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("ws client registered",
		slog.String("conn", string(client.id)),
		slog.Int("total_clients", clientCount))
}

// unregister reports whether the client was still registered
func (h *Hub) unregister(client *Client) bool {
	h.mu.Lock()
	if h.clients[client.id] != client {
		h.mu.Unlock()
		return false
	}
	delete(h.clients, client.id)
	clientCount := len(h.clients)
	h.mu.Unlock()

	client.close()
	h.logger.Info("ws client unregistered",
		slog.String("conn", string(client.id)),
		slog.Duration("connection_duration", time.Since(client.connectedAt)),
		slog.Int("total_clients", clientCount))
	return true
}
