package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mcoot/chessduel/internal/model"
	"github.com/mcoot/chessduel/internal/services/moves"
	"github.com/mcoot/chessduel/internal/services/outbox"
	"github.com/mcoot/chessduel/internal/services/phase"
	"github.com/mcoot/chessduel/internal/services/registry"
	"github.com/mcoot/chessduel/internal/services/signal"
)

// Manager dispatches inbound events from connections to the room
// services. Every room-scoped event runs inside the room's boundary.
type Manager struct {
	arena    *Arena
	registry *registry.Registry
	machine  *phase.Machine
	moves    *moves.Relay
	signals  *signal.Relay
	outbox   *outbox.Outbox
	history  History
	logger   *slog.Logger
}

// History reads the move log. Codes with recorded moves are never reissued.
type History interface {
	ListMoves(ctx context.Context, room model.RoomCode) ([]model.MoveRecord, error)
}

// NewManager creates a Manager
func NewManager(
	arena *Arena,
	registry *registry.Registry,
	machine *phase.Machine,
	moves *moves.Relay,
	signals *signal.Relay,
	outbox *outbox.Outbox,
	history History,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		arena:    arena,
		registry: registry,
		machine:  machine,
		moves:    moves,
		signals:  signals,
		outbox:   outbox,
		history:  history,
		logger:   logger.With(slog.String("component", "session")),
	}
}

// Handle processes one inbound event from conn. Failures are reported to
// conn; nothing is returned to the transport.
func (m *Manager) Handle(ctx context.Context, conn model.ConnectionID, eventType model.EventType, raw json.RawMessage) {
	m.logger.DebugContext(ctx, "event received",
		slog.String("conn", string(conn)),
		slog.String("type", string(eventType)))

	switch eventType {
	case model.EventCreateRoom:
		m.createRoom(ctx, conn, raw)
	case model.EventJoinRoom:
		m.joinRoom(ctx, conn, raw)
	case model.EventLeaveRoom:
		m.leaveRoom(ctx, conn)
	case model.EventDrawRoles:
		m.drawRoles(ctx, conn, raw)
	case model.EventGetRole:
		m.getRole(ctx, conn, raw)
	case model.EventSubmitMove:
		m.submitMove(ctx, conn, raw)
	case model.EventSignalOffer, model.EventSignalAnswer, model.EventSignalCandidate:
		m.relaySignal(ctx, conn, eventType, raw)
	default:
		m.invalid(conn, eventType, ReasonUnknownType)
	}
}

// Disconnect removes a closed connection from its room. Calling it for a
// connection that is not in a room does nothing.
func (m *Manager) Disconnect(ctx context.Context, conn model.ConnectionID) {
	code, ok := m.registry.RoomOf(conn)
	if !ok {
		return
	}
	err := m.arena.WithRoom(code, func(room *model.Room) error {
		m.machine.Leave(room, conn)
		return nil
	})
	if err != nil {
		m.logger.DebugContext(ctx, "disconnect for missing room",
			slog.String("room", string(code)),
			slog.String("conn", string(conn)))
		m.registry.Remove(conn)
	}
}

// Room returns a snapshot of a live room
func (m *Manager) Room(code model.RoomCode) (model.Room, error) {
	return m.arena.Snapshot(normalizeCode(code))
}

// RoomCount returns the number of live rooms
func (m *Manager) RoomCount() int {
	return m.arena.Count()
}

func (m *Manager) createRoom(ctx context.Context, conn model.ConnectionID, raw json.RawMessage) {
	var req model.CreateRoomPayload
	if !m.decode(conn, model.EventCreateRoom, raw, &req) {
		return
	}
	if req.UserID == "" {
		m.reject(ctx, conn, model.EventCreateRoom, "", fmt.Errorf("%w: user_id required", model.ErrInvalidRequest))
		return
	}
	if _, inRoom := m.registry.RoomOf(conn); inRoom {
		m.reject(ctx, conn, model.EventCreateRoom, "", model.ErrAlreadyInRoom)
		return
	}

	creator := newParticipant(conn, req.UserID, req.DisplayName)
	_, err := m.arena.Create(func() model.RoomCode { return m.freshCode(ctx) }, func(code model.RoomCode) *model.Room {
		return m.machine.NewRoom(code, strings.TrimSpace(req.Name), creator)
	})
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to create room", slog.String("error", err.Error()))
		m.reject(ctx, conn, model.EventCreateRoom, "", err)
	}
}

// freshCode returns a candidate code, or "" if the code already has move
// history. A move log that cannot be read does not block room creation.
func (m *Manager) freshCode(ctx context.Context) model.RoomCode {
	code := m.machine.GenerateCode()
	records, err := m.history.ListMoves(ctx, code)
	if err != nil {
		m.logger.WarnContext(ctx, "could not check room code history",
			slog.String("room", string(code)),
			slog.String("error", err.Error()))
		return code
	}
	if len(records) > 0 {
		m.logger.DebugContext(ctx, "room code has history, skipping", slog.String("room", string(code)))
		return ""
	}
	return code
}

func (m *Manager) joinRoom(ctx context.Context, conn model.ConnectionID, raw json.RawMessage) {
	var req model.JoinRoomPayload
	if !m.decode(conn, model.EventJoinRoom, raw, &req) {
		return
	}
	code := normalizeCode(req.Code)
	if code == "" || req.UserID == "" {
		m.reject(ctx, conn, model.EventJoinRoom, code, fmt.Errorf("%w: code and user_id required", model.ErrInvalidRequest))
		return
	}
	if _, inRoom := m.registry.RoomOf(conn); inRoom {
		m.reject(ctx, conn, model.EventJoinRoom, code, model.ErrAlreadyInRoom)
		return
	}

	p := newParticipant(conn, req.UserID, req.DisplayName)
	err := m.arena.WithRoom(code, func(room *model.Room) error {
		return m.machine.Join(room, p)
	})
	if err != nil {
		m.reject(ctx, conn, model.EventJoinRoom, code, err)
	}
}

func (m *Manager) leaveRoom(ctx context.Context, conn model.ConnectionID) {
	code, ok := m.registry.RoomOf(conn)
	if !ok {
		m.reject(ctx, conn, model.EventLeaveRoom, "", model.ErrNotInRoom)
		return
	}
	err := m.arena.WithRoom(code, func(room *model.Room) error {
		if !m.machine.Leave(room, conn) {
			return model.ErrNotInRoom
		}
		return nil
	})
	if err != nil {
		m.reject(ctx, conn, model.EventLeaveRoom, code, err)
	}
}

func (m *Manager) drawRoles(ctx context.Context, conn model.ConnectionID, raw json.RawMessage) {
	var req model.RoomScopedPayload
	if !m.decode(conn, model.EventDrawRoles, raw, &req) {
		return
	}
	code, ok := m.resolveRoom(ctx, conn, model.EventDrawRoles, req.RoomID)
	if !ok {
		return
	}
	err := m.arena.WithRoom(code, func(room *model.Room) error {
		return m.machine.DrawRoles(room, conn)
	})
	if err != nil {
		m.reject(ctx, conn, model.EventDrawRoles, code, err)
	}
}

func (m *Manager) getRole(ctx context.Context, conn model.ConnectionID, raw json.RawMessage) {
	var req model.RoomScopedPayload
	if !m.decode(conn, model.EventGetRole, raw, &req) {
		return
	}
	code, ok := m.resolveRoom(ctx, conn, model.EventGetRole, req.RoomID)
	if !ok {
		return
	}
	err := m.arena.WithRoom(code, func(room *model.Room) error {
		return m.machine.ResendRole(room, conn)
	})
	// Asking before the draw is not an error
	if err != nil && !errors.Is(err, model.ErrRolesNotAssigned) {
		m.reject(ctx, conn, model.EventGetRole, code, err)
	}
}

func (m *Manager) submitMove(ctx context.Context, conn model.ConnectionID, raw json.RawMessage) {
	var req model.SubmitMovePayload
	if !m.decode(conn, model.EventSubmitMove, raw, &req) {
		return
	}
	input := req.Input()
	if input.IsEmpty() {
		m.reject(ctx, conn, model.EventSubmitMove, "", fmt.Errorf("%w: move required", model.ErrInvalidRequest))
		return
	}

	code, inRoom := m.registry.RoomOf(conn)
	if !inRoom {
		m.outbox.Send(conn, model.EventMoveRejected, model.MoveRejectedPayload{
			Move:   input.String(),
			Reason: moves.ReasonNotInRoom,
		})
		return
	}
	if req.RoomID != "" && normalizeCode(req.RoomID) != code {
		m.invalid(conn, model.EventSubmitMove, ReasonWrongRoom)
		return
	}

	// The relay reports its own rejections to the sender
	_ = m.arena.WithRoom(code, func(room *model.Room) error {
		_, err := m.moves.Submit(room, conn, input)
		return err
	})
}

func (m *Manager) relaySignal(ctx context.Context, conn model.ConnectionID, eventType model.EventType, raw json.RawMessage) {
	var req model.SignalPayload
	if !m.decode(conn, eventType, raw, &req) {
		return
	}
	if req.To == "" {
		m.reject(ctx, conn, eventType, "", fmt.Errorf("%w: to required", model.ErrInvalidRequest))
		return
	}
	kind, _ := eventType.SignalKind()
	m.signals.Forward(conn, req.To, kind, req.Payload)
}

// resolveRoom returns the sender's room, checking it against an explicit room id
func (m *Manager) resolveRoom(ctx context.Context, conn model.ConnectionID, eventType model.EventType, requested model.RoomCode) (model.RoomCode, bool) {
	code, ok := m.registry.RoomOf(conn)
	if !ok {
		m.reject(ctx, conn, eventType, requested, model.ErrNotInRoom)
		return "", false
	}
	if requested != "" && normalizeCode(requested) != code {
		m.invalid(conn, eventType, ReasonWrongRoom)
		return "", false
	}
	return code, true
}

func (m *Manager) decode(conn model.ConnectionID, eventType model.EventType, raw json.RawMessage, into any) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return true
	}
	if err := json.Unmarshal(raw, into); err != nil {
		m.invalid(conn, eventType, ReasonMalformed)
		return false
	}
	return true
}

// reject tells the sender why its request failed. Nothing else hears about it.
func (m *Manager) reject(ctx context.Context, conn model.ConnectionID, eventType model.EventType, code model.RoomCode, err error) {
	m.logger.DebugContext(ctx, "request rejected",
		slog.String("conn", string(conn)),
		slog.String("type", string(eventType)),
		slog.String("error", err.Error()))

	switch {
	case errors.Is(err, model.ErrRoomNotFound):
		m.outbox.Send(conn, model.EventRoomNotFound, model.RoomNotFoundPayload{Code: code})
	case errors.Is(err, model.ErrRoomFull):
		m.outbox.Send(conn, model.EventRoomFull, model.RoomFullPayload{Code: code, Reason: ReasonFull})
	case errors.Is(err, model.ErrRoomInProgress):
		m.outbox.Send(conn, model.EventRoomFull, model.RoomFullPayload{Code: code, Reason: ReasonInProgress})
	default:
		m.invalid(conn, eventType, reasonFor(err))
	}
}

func (m *Manager) invalid(conn model.ConnectionID, eventType model.EventType, reason string) {
	m.outbox.Send(conn, model.EventRequestInvalid, model.RequestInvalidPayload{
		Type:   eventType,
		Reason: reason,
	})
}

func newParticipant(conn model.ConnectionID, user model.UserID, displayName string) model.Participant {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = string(user)
	}
	return model.Participant{
		ConnectionID: conn,
		UserID:       user,
		DisplayName:  displayName,
	}
}

func normalizeCode(code model.RoomCode) model.RoomCode {
	return model.RoomCode(strings.ToUpper(strings.TrimSpace(string(code))))
}
