package phase

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcoot/chessduel/internal/bus"
	"github.com/mcoot/chessduel/internal/dependencies/clock"
	"github.com/mcoot/chessduel/internal/dependencies/random"
	"github.com/mcoot/chessduel/internal/model"
	"github.com/mcoot/chessduel/internal/services/outbox"
	"github.com/mcoot/chessduel/internal/services/registry"
	"github.com/mcoot/chessduel/internal/services/rules"
)

const (
	// RoomCodeLength is the length of generated room codes
	RoomCodeLength = 6
	// RoomCodeAlphabet is the characters used in room codes (avoid confusing chars)
	RoomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Config holds phase timings
type Config struct {
	PreGameDuration  time.Duration
	PostGameDuration time.Duration
}

// DefaultConfig returns the standard phase timings
func DefaultConfig() Config {
	return Config{
		PreGameDuration:  45 * time.Second,
		PostGameDuration: 60 * time.Second,
	}
}

// Timers schedules one deferred action per room
type Timers interface {
	Schedule(room model.RoomCode, delay time.Duration, action func())
	Cancel(room model.RoomCode)
}

// Machine drives a room through Waiting, PreGame, Active, PostGame and
// Complete. Callers must hold the room's serialization boundary for every
// call; Machine itself does no locking.
type Machine struct {
	cfg      Config
	timers   Timers
	engine   rules.Engine
	outbox   *outbox.Outbox
	registry *registry.Registry
	events   bus.Publisher
	clock    clock.Clock
	random   random.Random
	logger   *slog.Logger
}

// NewMachine creates a Machine
func NewMachine(
	cfg Config,
	timers Timers,
	engine rules.Engine,
	outbox *outbox.Outbox,
	registry *registry.Registry,
	events bus.Publisher,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Machine {
	return &Machine{
		cfg:      cfg,
		timers:   timers,
		engine:   engine,
		outbox:   outbox,
		registry: registry,
		events:   events,
		clock:    clock,
		random:   random,
		logger:   logger.With(slog.String("component", "phase")),
	}
}

// GenerateCode returns a candidate room code. Uniqueness is checked by the caller.
func (m *Machine) GenerateCode() model.RoomCode {
	return model.RoomCode(m.random.String(RoomCodeLength, RoomCodeAlphabet))
}

// NewRoom creates a room in Waiting with the creator as its only participant
func (m *Machine) NewRoom(code model.RoomCode, name string, creator model.Participant) *model.Room {
	now := m.clock.Now()
	if name == "" {
		name = string(code)
	}
	creator.Role = model.RoleUnassigned
	creator.JoinedAt = now

	room := &model.Room{
		Code:         code,
		Name:         name,
		CreatorID:    creator.UserID,
		Participants: []model.Participant{creator},
		Phase:        model.PhaseWaiting,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	m.registry.Add(code, creator.ConnectionID)
	m.outbox.Send(creator.ConnectionID, model.EventRoomCreated, model.RoomCreatedPayload{
		Code: code,
		Name: name,
	})
	m.publish(bus.KindRoomCreated, room)

	m.logger.Info("room created",
		slog.String("room", string(code)),
		slog.String("creator", string(creator.UserID)))
	return room
}

// Join seats a participant. Rejections leave the room unchanged.
func (m *Machine) Join(room *model.Room, p model.Participant) error {
	if room.GetParticipant(p.ConnectionID) != nil {
		return model.ErrAlreadyInRoom
	}
	if room.GetParticipantByUser(p.UserID) != nil {
		return model.ErrUserAlreadyInRoom
	}
	if room.IsFull() {
		return model.ErrRoomFull
	}
	if room.Phase != model.PhaseWaiting {
		return model.ErrRoomInProgress
	}

	p.Role = model.RoleUnassigned
	p.JoinedAt = m.clock.Now()
	room.Participants = append(room.Participants, p)
	room.UpdatedAt = p.JoinedAt
	m.registry.Add(room.Code, p.ConnectionID)

	m.outbox.Broadcast(room.Code, model.EventRoomJoined, model.RoomJoinedPayload{
		Room:         model.SummarizeRoom(room),
		Participants: model.SummarizeParticipants(room),
	})

	m.logger.Info("participant joined",
		slog.String("room", string(room.Code)),
		slog.String("conn", string(p.ConnectionID)),
		slog.Int("participants", len(room.Participants)))
	return nil
}

// Leave removes a connection from the room. It returns false if the
// connection was not a participant. A room left empty is destroyed.
func (m *Machine) Leave(room *model.Room, conn model.ConnectionID) bool {
	var left model.Participant
	found := false
	for i, p := range room.Participants {
		if p.ConnectionID == conn {
			left = p
			found = true
			room.Participants = append(room.Participants[:i], room.Participants[i+1:]...)
			break
		}
	}
	if !found {
		return false
	}
	m.registry.Remove(conn)
	room.UpdatedAt = m.clock.Now()

	m.logger.Info("participant left",
		slog.String("room", string(room.Code)),
		slog.String("conn", string(conn)),
		slog.Int("participants", len(room.Participants)))

	if room.IsEmpty() {
		m.Destroy(room)
		return true
	}

	// If creator left, hand the room to whoever remains
	if left.UserID == room.CreatorID {
		room.CreatorID = room.Participants[0].UserID
	}

	m.outbox.Broadcast(room.Code, model.EventParticipantLeft, model.ParticipantLeftPayload{
		ConnectionID: left.ConnectionID,
		UserID:       left.UserID,
		DisplayName:  left.DisplayName,
		CreatorID:    room.CreatorID,
	})
	return true
}

// Destroy cancels the room's timer. Move records are unaffected.
func (m *Machine) Destroy(room *model.Room) {
	m.timers.Cancel(room.Code)
	m.publish(bus.KindRoomDestroyed, room)
	m.logger.Info("room destroyed",
		slog.String("room", string(room.Code)),
		slog.String("phase", string(room.Phase)))
}

// DrawRoles assigns first and second by a single fair coin and starts the
// pre-game countdown. Only the creator may draw, only once, and only with
// exactly two participants.
func (m *Machine) DrawRoles(room *model.Room, requester model.ConnectionID) error {
	if room.GetParticipant(requester) == nil {
		return model.ErrNotInRoom
	}
	if room.RolesAssigned() {
		return model.ErrRolesAlreadyAssigned
	}
	if !room.IsCreator(requester) {
		return model.ErrNotCreator
	}
	if len(room.Participants) != model.MaxParticipants {
		return model.ErrInsufficientParticipants
	}

	firstIdx := random.Coin(m.random)
	room.Participants[firstIdx].Role = model.RoleFirst
	room.Participants[1-firstIdx].Role = model.RoleSecond
	room.Phase = model.PhasePreGame
	room.UpdatedAt = m.clock.Now()

	m.outbox.Broadcast(room.Code, model.EventRolesAssigned, model.RolesAssignedPayload{
		Participants: model.SummarizeParticipants(room),
	})
	for _, p := range room.Participants {
		m.outbox.Send(p.ConnectionID, model.EventYourRole, model.YourRolePayload{Role: p.Role})
	}
	m.outbox.Broadcast(room.Code, model.EventPhasePreGame, model.PhaseTimerPayload{
		DurationMS: m.cfg.PreGameDuration.Milliseconds(),
	})

	m.timers.Schedule(room.Code, m.cfg.PreGameDuration, func() {
		_ = m.StartGame(room)
	})
	m.publish(bus.KindRolesAssigned, room)

	m.logger.Info("roles assigned",
		slog.String("room", string(room.Code)),
		slog.String("first", string(room.Participants[firstIdx].UserID)))
	return nil
}

// ResendRole repeats the private role notification to a participant
func (m *Machine) ResendRole(room *model.Room, conn model.ConnectionID) error {
	p := room.GetParticipant(conn)
	if p == nil {
		return model.ErrNotInRoom
	}
	if p.Role == model.RoleUnassigned {
		return model.ErrRolesNotAssigned
	}
	m.outbox.Send(conn, model.EventYourRole, model.YourRolePayload{Role: p.Role})
	return nil
}

// StartGame moves PreGame to Active with a fresh starting position.
// It runs when the pre-game timer expires.
func (m *Machine) StartGame(room *model.Room) error {
	if room.Phase != model.PhasePreGame {
		m.logger.Debug("start ignored", slog.String("room", string(room.Code)), slog.String("phase", string(room.Phase)))
		return model.ErrInvalidPhase
	}

	m.timers.Cancel(room.Code)
	room.Position = m.engine.StartingPosition()
	room.History = nil
	room.MoveCount = 0
	room.Phase = model.PhaseActive
	room.UpdatedAt = m.clock.Now()

	m.outbox.Broadcast(room.Code, model.EventPhaseActive, model.PhaseActivePayload{
		Position: room.Position,
	})
	m.publish(bus.KindGameStarted, room)

	m.logger.Info("game started", slog.String("room", string(room.Code)))
	return nil
}

// EndGame moves Active to PostGame, announces the outcome and starts the
// post-game countdown
func (m *Machine) EndGame(room *model.Room, outcome model.Outcome) error {
	if room.Phase != model.PhaseActive {
		return model.ErrInvalidPhase
	}

	room.Outcome = &outcome
	room.Phase = model.PhasePostGame
	room.UpdatedAt = m.clock.Now()

	m.outbox.Broadcast(room.Code, model.EventGameOver, model.GameOverPayload{
		Result: outcome.Result,
		Winner: outcome.Winner,
		Reason: outcome.Reason,
	})
	m.outbox.Broadcast(room.Code, model.EventPhasePostGame, model.PhaseTimerPayload{
		DurationMS: m.cfg.PostGameDuration.Milliseconds(),
	})

	m.timers.Schedule(room.Code, m.cfg.PostGameDuration, func() {
		_ = m.Finish(room)
	})
	m.publish(bus.KindGameOver, room)

	m.logger.Info("game over",
		slog.String("room", string(room.Code)),
		slog.String("result", string(outcome.Result)),
		slog.Int("moves", room.MoveCount))
	return nil
}

// Finish moves PostGame to Complete. It runs when the post-game timer expires.
func (m *Machine) Finish(room *model.Room) error {
	if room.Phase != model.PhasePostGame {
		return model.ErrInvalidPhase
	}

	room.Phase = model.PhaseComplete
	room.UpdatedAt = m.clock.Now()

	m.outbox.Broadcast(room.Code, model.EventPhaseComplete, model.PhaseCompletePayload{Code: room.Code})
	m.publish(bus.KindSessionComplete, room)

	m.logger.Info("session complete", slog.String("room", string(room.Code)))
	return nil
}

func (m *Machine) publish(kind bus.Kind, room *model.Room) {
	m.events.Publish(context.Background(), bus.NewEvent(kind, room, m.clock.Now()))
}
