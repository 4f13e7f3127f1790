package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/notnil/chess"

	"github.com/mcoot/chessduel/internal/model"
)

var errInvalidPosition = errors.New("invalid position")

// ChessEngine implements Engine with standard chess rules
type ChessEngine struct{}

// Ensure ChessEngine implements Engine
var _ Engine = (*ChessEngine)(nil)

// NewChessEngine creates a ChessEngine
func NewChessEngine() *ChessEngine {
	return &ChessEngine{}
}

// StartingPosition returns the standard initial position
func (e *ChessEngine) StartingPosition() model.Position {
	return model.Position(chess.StartingPosition().String())
}

// Apply plays a move given in SAN, UCI or from/to squares
func (e *ChessEngine) Apply(position model.Position, input model.MoveInput) (Applied, error) {
	game, err := gameAt(position)
	if err != nil {
		return Applied{}, err
	}
	if input.IsEmpty() {
		return Applied{}, fmt.Errorf("%w: no move given", model.ErrIllegalMove)
	}

	before := game.Position()
	move, err := decodeMove(before, input)
	if err != nil {
		return Applied{}, fmt.Errorf("%w: %s", model.ErrIllegalMove, input)
	}
	if err := game.Move(move); err != nil {
		return Applied{}, fmt.Errorf("%w: %s", model.ErrIllegalMove, input)
	}

	moves := game.Moves()
	played := moves[len(moves)-1]

	return Applied{
		Mover:    roleFor(before.Turn()),
		Notation: chess.AlgebraicNotation{}.Encode(before, played),
		Position: model.Position(game.Position().String()),
	}, nil
}

// Terminal reports checkmate, stalemate and draws, including the claimable
// fifty-move and threefold repetition draws
func (e *ChessEngine) Terminal(position model.Position, previous []model.Position) model.Terminal {
	game, err := gameAt(position)
	if err != nil {
		return model.Terminal{}
	}

	pos := game.Position()
	switch pos.Status() {
	case chess.Checkmate:
		// The side to move is mated
		return model.Terminal{
			Kind:   model.TerminalCheckmate,
			ByRole: roleFor(pos.Turn().Other()),
			Method: "checkmate",
		}
	case chess.Stalemate:
		return model.Terminal{Kind: model.TerminalDraw, Method: "stalemate"}
	}

	if game.Outcome() == chess.Draw {
		return model.Terminal{Kind: model.TerminalDraw, Method: drawMethod(game.Method())}
	}
	if pos.HalfMoveClock() >= fiftyMoveHalfMoves {
		return model.Terminal{Kind: model.TerminalDraw, Method: "fifty_move_rule"}
	}
	if repetitions(position, previous) >= 3 {
		return model.Terminal{Kind: model.TerminalDraw, Method: "threefold_repetition"}
	}
	return model.Terminal{}
}

// fiftyMoveHalfMoves is fifty moves by each side without a capture or pawn move
const fiftyMoveHalfMoves = 100

// repetitions counts how often position's placement, side to move, castling
// rights and en passant square have occurred, including position itself
func repetitions(position model.Position, previous []model.Position) int {
	key := repetitionKey(position)
	n := 1
	for _, p := range previous {
		if repetitionKey(p) == key {
			n++
		}
	}
	return n
}

// repetitionKey drops the move counters from a FEN
func repetitionKey(position model.Position) string {
	fields := strings.Fields(string(position))
	if len(fields) > 4 {
		fields = fields[:4]
	}
	return strings.Join(fields, " ")
}

func gameAt(position model.Position) (*chess.Game, error) {
	opt, err := chess.FEN(string(position))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidPosition, err)
	}
	return chess.NewGame(opt), nil
}

// decodeMove accepts SAN ("Nf3"), UCI ("g1f3") or explicit squares
func decodeMove(pos *chess.Position, input model.MoveInput) (*chess.Move, error) {
	if input.Notation != "" {
		if m, err := (chess.AlgebraicNotation{}).Decode(pos, input.Notation); err == nil {
			return m, nil
		}
		return (chess.UCINotation{}).Decode(pos, strings.ToLower(input.Notation))
	}
	return (chess.UCINotation{}).Decode(pos, input.String())
}

func roleFor(c chess.Color) model.Role {
	if c == chess.White {
		return model.RoleFirst
	}
	return model.RoleSecond
}

func drawMethod(m chess.Method) string {
	switch m {
	case chess.InsufficientMaterial:
		return "insufficient_material"
	case chess.SeventyFiveMoveRule:
		return "seventy_five_move_rule"
	case chess.FivefoldRepetition:
		return "fivefold_repetition"
	default:
		return "draw"
	}
}
