package response

import (
	"time"

	"github.com/mcoot/chessduel/internal/model"
)

// Health is the response for the health endpoint
type Health struct {
	Status      string `json:"status"`
	Rooms       int    `json:"rooms"`
	Connections int    `json:"connections"`
}

// Participant represents a room participant
type Participant struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role,omitempty"`
	IsCreator   bool      `json:"is_creator"`
	JoinedAt    time.Time `json:"joined_at"`
}

// Outcome represents a finished game's result
type Outcome struct {
	Result string `json:"result"`
	Winner string `json:"winner,omitempty"`
	Reason string `json:"reason"`
}

// Room represents a live room in API responses.
// Connection ids are not exposed.
type Room struct {
	Code         string        `json:"code"`
	Name         string        `json:"name"`
	Phase        string        `json:"phase"`
	Participants []Participant `json:"participants"`
	Position     string        `json:"position,omitempty"`
	MoveCount    int           `json:"move_count"`
	Outcome      *Outcome      `json:"outcome"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// RoomFromModel converts model.Room
func RoomFromModel(r *model.Room) Room {
	participants := make([]Participant, len(r.Participants))
	for i, p := range r.Participants {
		participants[i] = Participant{
			UserID:      string(p.UserID),
			DisplayName: p.DisplayName,
			Role:        string(p.Role),
			IsCreator:   p.UserID == r.CreatorID,
			JoinedAt:    p.JoinedAt,
		}
	}

	var outcome *Outcome
	if r.Outcome != nil {
		outcome = &Outcome{
			Result: string(r.Outcome.Result),
			Winner: string(r.Outcome.Winner),
			Reason: r.Outcome.Reason,
		}
	}

	return Room{
		Code:         string(r.Code),
		Name:         r.Name,
		Phase:        string(r.Phase),
		Participants: participants,
		Position:     string(r.Position),
		MoveCount:    r.MoveCount,
		Outcome:      outcome,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// Move represents a persisted move record
type Move struct {
	Sequence       int       `json:"sequence"`
	Role           string    `json:"role"`
	Notation       string    `json:"notation"`
	PositionBefore string    `json:"position_before"`
	PositionAfter  string    `json:"position_after"`
	PlayedAt       time.Time `json:"played_at"`
}

// MoveList is the response for a room's move history
type MoveList struct {
	Code  string `json:"code"`
	Moves []Move `json:"moves"`
}

// MoveListFromModel converts a room's move records
func MoveListFromModel(code model.RoomCode, records []model.MoveRecord) MoveList {
	moves := make([]Move, len(records))
	for i, rec := range records {
		moves[i] = Move{
			Sequence:       rec.Sequence,
			Role:           string(rec.Role),
			Notation:       rec.Notation,
			PositionBefore: string(rec.PositionBefore),
			PositionAfter:  string(rec.PositionAfter),
			PlayedAt:       rec.PlayedAt,
		}
	}
	return MoveList{Code: string(code), Moves: moves}
}
