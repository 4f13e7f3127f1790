package rules

import "github.com/mcoot/chessduel/internal/model"

// Applied is the result of a legal move
type Applied struct {
	Mover    model.Role
	Notation string
	Position model.Position
}

// Engine decides move legality and game termination.
// Implementations are stateless; callers hold the game's positions.
type Engine interface {
	// StartingPosition returns the position a new game begins from
	StartingPosition() model.Position

	// Apply plays input against position. Illegal moves return an error
	// wrapping model.ErrIllegalMove.
	Apply(position model.Position, input model.MoveInput) (Applied, error)

	// Terminal reports whether position ends the game. previous holds the
	// positions reached earlier in the same game, oldest first.
	Terminal(position model.Position, previous []model.Position) model.Terminal
}
