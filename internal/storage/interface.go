package storage

import (
	"context"
	"errors"

	"github.com/mcoot/chessduel/internal/model"
)

// ErrDuplicateMove is returned when a sequence number is already recorded for a room
var ErrDuplicateMove = errors.New("move already recorded")

// MoveLog persists accepted moves. Records are append-only.
type MoveLog interface {
	// AppendMove stores a record
	AppendMove(ctx context.Context, record *model.MoveRecord) error

	// ListMoves returns a room's records ordered by sequence number.
	// A room with no records yields an empty slice.
	ListMoves(ctx context.Context, room model.RoomCode) ([]model.MoveRecord, error)

	// Close releases the backend's resources
	Close() error
}
