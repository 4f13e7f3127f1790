package bus

import (
	"context"
	"time"

	"github.com/mcoot/chessduel/internal/model"
)

// Kind names a lifecycle event
type Kind string

const (
	KindRoomCreated     Kind = "created"
	KindRolesAssigned   Kind = "roles_assigned"
	KindGameStarted     Kind = "game_started"
	KindGameOver        Kind = "game_over"
	KindSessionComplete Kind = "complete"
	KindRoomDestroyed   Kind = "destroyed"
)

// SubjectPrefix prefixes every published subject
const SubjectPrefix = "chessduel.room"

// Participant identifies a seated user in lifecycle events
type Participant struct {
	UserID      model.UserID `json:"user_id"`
	DisplayName string       `json:"display_name"`
	Role        model.Role   `json:"role,omitempty"`
}

// Event is a room lifecycle notification for downstream consumers
// such as leaderboard aggregation
type Event struct {
	Kind         Kind           `json:"kind"`
	Room         model.RoomCode `json:"room"`
	At           time.Time      `json:"at"`
	Participants []Participant  `json:"participants,omitempty"`
	Result       model.Result   `json:"result,omitempty"`
	Winner       model.Role     `json:"winner,omitempty"`
	Reason       string         `json:"reason,omitempty"`
	Moves        int            `json:"moves,omitempty"`
}

// Subject returns the subject the event is published on
func (e Event) Subject() string {
	return SubjectPrefix + "." + string(e.Kind)
}

// NewEvent builds an event carrying the room's participants
func NewEvent(kind Kind, room *model.Room, at time.Time) Event {
	participants := make([]Participant, len(room.Participants))
	for i, p := range room.Participants {
		participants[i] = Participant{UserID: p.UserID, DisplayName: p.DisplayName, Role: p.Role}
	}
	evt := Event{
		Kind:         kind,
		Room:         room.Code,
		At:           at,
		Participants: participants,
		Moves:        room.MoveCount,
	}
	if room.Outcome != nil {
		evt.Result = room.Outcome.Result
		evt.Winner = room.Outcome.Winner
		evt.Reason = room.Outcome.Reason
	}
	return evt
}

// Publisher delivers lifecycle events. Publishing never blocks room
// handling and failures are only logged.
type Publisher interface {
	Publish(ctx context.Context, event Event)
	Close() error
}

// Nop discards all events
type Nop struct{}

// Ensure Nop implements Publisher
var _ Publisher = Nop{}

func (Nop) Publish(context.Context, Event) {}

func (Nop) Close() error { return nil }
