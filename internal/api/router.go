package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/chessduel/internal/api/apierr"
	"github.com/mcoot/chessduel/internal/api/handler"
	"github.com/mcoot/chessduel/internal/middleware"
	"github.com/mcoot/chessduel/internal/storage"
)

// RoomService is what the API needs from the session manager
type RoomService interface {
	handler.RoomReader
	handler.Stats
}

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	Rooms       RoomService
	MoveLog     storage.MoveLog
	WebSocket   http.Handler
	Connections handler.ConnectionCounter
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewNotFoundError())
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewMethodNotAllowedError())
	})

	// Create handlers
	roomHandler := handler.NewRoomHandler(cfg.Rooms, cfg.MoveLog, cfg.Logger)
	healthHandler := handler.NewHealthHandler(cfg.Rooms, cfg.Connections)

	// Create middleware
	loggingMiddleware := middleware.Logging(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.RequestID)
	api.Use(middleware.Recovery(cfg.Logger, jsonPanicHandler))
	api.Use(loggingMiddleware)

	// Room routes
	api.HandleFunc("/rooms/{code}", roomHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{code}/moves", roomHandler.Moves).Methods(http.MethodGet)

	// Health check endpoint
	api.Handle("/health", healthHandler).Methods(http.MethodGet)

	// Realtime transport
	if cfg.WebSocket != nil {
		ws := r.PathPrefix("/ws").Subrouter()
		ws.Use(middleware.RequestID)
		ws.Use(middleware.Recovery(cfg.Logger, middleware.DefaultPanicHandler))
		ws.Use(loggingMiddleware)
		ws.Handle("", cfg.WebSocket).Methods(http.MethodGet)
	}

	return r
}

func jsonPanicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}
