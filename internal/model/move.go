package model

import (
	"strings"
	"time"
)

// Position is a board position in Forsyth-Edwards Notation
type Position string

// MoveInput is a move as submitted by a participant.
// Either Notation (SAN or UCI) or From/To must be set.
type MoveInput struct {
	Notation  string
	From      string
	To        string
	Promotion string
}

// IsEmpty reports whether no move was given
func (m MoveInput) IsEmpty() bool {
	return m.Notation == "" && (m.From == "" || m.To == "")
}

// String returns the move as typed, preferring explicit notation
func (m MoveInput) String() string {
	if m.Notation != "" {
		return m.Notation
	}
	return strings.ToLower(m.From + m.To + m.Promotion)
}

// MoveRecord is an accepted move. Records are append-only and outlive the room.
type MoveRecord struct {
	RoomCode       RoomCode  `json:"room_code"`
	Sequence       int       `json:"sequence"`
	Role           Role      `json:"role"`
	Notation       string    `json:"notation"`
	PositionBefore Position  `json:"position_before"`
	PositionAfter  Position  `json:"position_after"`
	PlayedAt       time.Time `json:"played_at"`
}

// TerminalKind classifies a finished position
type TerminalKind string

const (
	TerminalNone      TerminalKind = ""
	TerminalCheckmate TerminalKind = "checkmate"
	TerminalDraw      TerminalKind = "draw"
)

// Terminal describes whether a position ends the game
type Terminal struct {
	Kind   TerminalKind
	ByRole Role   // Set for checkmate: the side that delivered mate
	Method string // e.g. "checkmate", "stalemate", "insufficient_material"
}

// IsTerminal reports whether the game is over
func (t Terminal) IsTerminal() bool {
	return t.Kind != TerminalNone
}

// Result is the final result of a game
type Result string

const (
	ResultFirstWin  Result = "first_win"
	ResultSecondWin Result = "second_win"
	ResultDraw      Result = "draw"
)

// Outcome is the announced end of a game
type Outcome struct {
	Result Result
	Winner Role // RoleUnassigned on a draw
	Reason string
}

// OutcomeFromTerminal converts a terminal position into an outcome
func OutcomeFromTerminal(t Terminal) Outcome {
	if t.Kind == TerminalCheckmate {
		result := ResultFirstWin
		if t.ByRole == RoleSecond {
			result = ResultSecondWin
		}
		return Outcome{Result: result, Winner: t.ByRole, Reason: t.Method}
	}
	return Outcome{Result: ResultDraw, Reason: t.Method}
}
