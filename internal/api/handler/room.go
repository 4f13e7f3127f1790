package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/chessduel/internal/api/apierr"
	"github.com/mcoot/chessduel/internal/api/response"
	"github.com/mcoot/chessduel/internal/model"
	"github.com/mcoot/chessduel/internal/storage"
)

// maxCodeLength bounds path codes before they reach the room index or the move log
const maxCodeLength = 16

// RoomReader returns snapshots of live rooms
type RoomReader interface {
	Room(code model.RoomCode) (model.Room, error)
}

// RoomHandler handles room and move history endpoints
type RoomHandler struct {
	rooms   RoomReader
	moveLog storage.MoveLog
	logger  *slog.Logger
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(rooms RoomReader, moveLog storage.MoveLog, logger *slog.Logger) *RoomHandler {
	return &RoomHandler{
		rooms:   rooms,
		moveLog: moveLog,
		logger:  logger,
	}
}

// Get handles GET /api/v1/rooms/{code}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	code, ok := roomCode(w, r)
	if !ok {
		return
	}

	room, err := h.rooms.Room(code)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(&room))
}

// Moves handles GET /api/v1/rooms/{code}/moves
// History is served from the move log, so it outlives the room.
func (h *RoomHandler) Moves(w http.ResponseWriter, r *http.Request) {
	code, ok := roomCode(w, r)
	if !ok {
		return
	}

	records, err := h.moveLog.ListMoves(r.Context(), code)
	if err != nil {
		h.logger.Error("failed to list moves",
			slog.String("room", string(code)),
			slog.String("error", err.Error()))
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MoveListFromModel(code, records))
}

// roomCode reads and normalizes the {code} path variable, writing a 400 if it
// cannot be a room code
func roomCode(w http.ResponseWriter, r *http.Request) (model.RoomCode, bool) {
	raw := strings.ToUpper(mux.Vars(r)["code"])
	if raw == "" || len(raw) > maxCodeLength || strings.IndexFunc(raw, notCodeChar) >= 0 {
		apierr.WriteError(w, apierr.NewInvalidRequestError("malformed room code"))
		return "", false
	}
	return model.RoomCode(raw), true
}

func notCodeChar(r rune) bool {
	return (r < 'A' || r > 'Z') && (r < '0' || r > '9')
}
