package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mcoot/chessduel/internal/model"
	"github.com/mcoot/chessduel/internal/storage"
)

// Storage is an in-memory implementation of the move log
type Storage struct {
	mu    sync.RWMutex
	moves map[model.RoomCode][]model.MoveRecord
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		moves: make(map[model.RoomCode][]model.MoveRecord),
	}
}

// Ensure Storage implements the interface
var _ storage.MoveLog = (*Storage)(nil)

func (s *Storage) AppendMove(ctx context.Context, record *model.MoveRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.moves[record.RoomCode] {
		if existing.Sequence == record.Sequence {
			return fmt.Errorf("room %s sequence %d: %w", record.RoomCode, record.Sequence, storage.ErrDuplicateMove)
		}
	}
	s.moves[record.RoomCode] = append(s.moves[record.RoomCode], *record)
	return nil
}

func (s *Storage) ListMoves(ctx context.Context, room model.RoomCode) ([]model.MoveRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]model.MoveRecord, len(s.moves[room]))
	copy(records, s.moves[room])
	sort.Slice(records, func(i, j int) bool {
		return records[i].Sequence < records[j].Sequence
	})
	return records, nil
}

func (s *Storage) Close() error {
	return nil
}
