package handler

import (
	"net/http"

	"github.com/mcoot/chessduel/internal/api/response"
)

// Stats reports live counters for the health endpoint
type Stats interface {
	RoomCount() int
}

// ConnectionCounter reports open transport connections
type ConnectionCounter interface {
	ClientCount() int
}

// HealthHandler handles GET /api/v1/health
type HealthHandler struct {
	stats       Stats
	connections ConnectionCounter
}

// NewHealthHandler creates a new health handler. Either argument may be nil.
func NewHealthHandler(stats Stats, connections ConnectionCounter) *HealthHandler {
	return &HealthHandler{stats: stats, connections: connections}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	resp := response.Health{Status: "ok"}
	if h.stats != nil {
		resp.Rooms = h.stats.RoomCount()
	}
	if h.connections != nil {
		resp.Connections = h.connections.ClientCount()
	}
	response.JSON(w, http.StatusOK, resp)
}
