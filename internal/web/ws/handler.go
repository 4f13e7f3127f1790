package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mcoot/chessduel/internal/model"
)

// EventHandler receives inbound events and disconnects
type EventHandler interface {
	Handle(ctx context.Context, conn model.ConnectionID, eventType model.EventType, payload json.RawMessage)
	Disconnect(ctx context.Context, conn model.ConnectionID)
}

// Handler upgrades HTTP requests to websocket connections
type Handler struct {
	hub      *Hub
	events   EventHandler
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a Handler. An empty allowedOrigins, or one containing
// "*", accepts any origin. Requests without an Origin header are always accepted.
func NewHandler(hub *Hub, events EventHandler, allowedOrigins []string, logger *slog.Logger) *Handler {
	h := &Handler{
		hub:    hub,
		events: events,
		logger: logger.With(slog.String("component", "ws")),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
				return true
			}
			return slices.Contains(allowedOrigins, origin)
		},
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		h.logger.Warn("ws upgrade failed",
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("error", err.Error()))
		return
	}

	client := newClient(model.ConnectionID(uuid.NewString()), conn, h.hub)
	h.hub.register(client)
	h.hub.Emit(client.id, model.Event{
		Type:    model.EventConnectionReady,
		Payload: model.ConnectionReadyPayload{ConnectionID: client.id},
	})

	go client.writeLoop()
	go client.readLoop(h.events)
}
