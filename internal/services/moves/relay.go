package moves

import (
	"errors"
	"log/slog"

	"github.com/mcoot/chessduel/internal/dependencies/clock"
	"github.com/mcoot/chessduel/internal/model"
	"github.com/mcoot/chessduel/internal/services/outbox"
	"github.com/mcoot/chessduel/internal/services/rules"
)

// Rejection reasons sent with move:rejected
const (
	ReasonNotActive   = "not_active"
	ReasonNotInRoom   = "not_in_room"
	ReasonIllegalMove = "illegal_move"
	ReasonNotYourTurn = "not_your_turn"
)

// Appender accepts records for persistence without blocking
type Appender interface {
	Enqueue(record model.MoveRecord)
}

// GameEnder ends the game when a terminal position is reached
type GameEnder interface {
	EndGame(room *model.Room, outcome model.Outcome) error
}

// Relay validates moves through the rules engine, broadcasts accepted
// moves and records them. Callers must hold the room's serialization
// boundary, which is what orders moves within a room.
type Relay struct {
	engine   rules.Engine
	appender Appender
	ender    GameEnder
	outbox   *outbox.Outbox
	clock    clock.Clock
	logger   *slog.Logger
}

// NewRelay creates a Relay
func NewRelay(
	engine rules.Engine,
	appender Appender,
	ender GameEnder,
	outbox *outbox.Outbox,
	clock clock.Clock,
	logger *slog.Logger,
) *Relay {
	return &Relay{
		engine:   engine,
		appender: appender,
		ender:    ender,
		outbox:   outbox,
		clock:    clock,
		logger:   logger.With(slog.String("component", "moves")),
	}
}

// Submit plays a move for the participant on conn. Rejections are sent to
// conn only and change nothing. An accepted move is broadcast, handed to the
// move log and, if it ends the game, moves the room to PostGame.
func (r *Relay) Submit(room *model.Room, conn model.ConnectionID, input model.MoveInput) (*model.MoveRecord, error) {
	if room.Phase != model.PhaseActive {
		r.reject(conn, input, ReasonNotActive)
		return nil, model.ErrInvalidPhase
	}

	p := room.GetParticipant(conn)
	if p == nil {
		r.reject(conn, input, ReasonNotInRoom)
		return nil, model.ErrNotInRoom
	}

	before := room.Position
	applied, err := r.engine.Apply(before, input)
	if err != nil {
		r.reject(conn, input, ReasonIllegalMove)
		if !errors.Is(err, model.ErrIllegalMove) {
			r.logger.Error("rules engine failure",
				slog.String("room", string(room.Code)),
				slog.String("error", err.Error()))
		}
		return nil, err
	}
	if applied.Mover != p.Role {
		r.reject(conn, input, ReasonNotYourTurn)
		return nil, model.ErrNotYourTurn
	}

	room.MoveCount++
	room.History = append(room.History, before)
	room.Position = applied.Position
	room.UpdatedAt = r.clock.Now()

	record := model.MoveRecord{
		RoomCode:       room.Code,
		Sequence:       room.MoveCount,
		Role:           applied.Mover,
		Notation:       applied.Notation,
		PositionBefore: before,
		PositionAfter:  applied.Position,
		PlayedAt:       room.UpdatedAt,
	}

	r.outbox.Broadcast(room.Code, model.EventMoveAccepted, model.MoveAcceptedPayload{
		Sequence: record.Sequence,
		Role:     record.Role,
		Notation: record.Notation,
		Position: record.PositionAfter,
	})
	r.appender.Enqueue(record)

	r.logger.Debug("move accepted",
		slog.String("room", string(room.Code)),
		slog.Int("sequence", record.Sequence),
		slog.String("notation", record.Notation))

	if terminal := r.engine.Terminal(applied.Position, room.History); terminal.IsTerminal() {
		if err := r.ender.EndGame(room, model.OutcomeFromTerminal(terminal)); err != nil {
			r.logger.Error("failed to end game",
				slog.String("room", string(room.Code)),
				slog.String("error", err.Error()))
		}
	}
	return &record, nil
}

func (r *Relay) reject(conn model.ConnectionID, input model.MoveInput, reason string) {
	r.outbox.Send(conn, model.EventMoveRejected, model.MoveRejectedPayload{
		Move:   input.String(),
		Reason: reason,
	})
}
