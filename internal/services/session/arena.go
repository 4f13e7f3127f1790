package session

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/mcoot/chessduel/internal/model"
	"github.com/mcoot/chessduel/internal/services/scheduler"
)

// maxCodeAttempts bounds the search for an unused room code
const maxCodeAttempts = 100

// ErrNoFreeCode is returned when no unused room code could be generated
var ErrNoFreeCode = errors.New("could not generate a unique room code")

// entry is one room and the lock that serializes everything done to it.
// closed is set, under mu, once the room has been removed from the arena.
type entry struct {
	mu     sync.Mutex
	room   *model.Room
	closed bool
}

// Arena owns every live room. Work on a room runs while holding that
// room's lock, so events for one room never interleave while events for
// different rooms run in parallel. The arena's own lock only guards the
// index and is never held while room work runs.
//
// Lock order is entry, then arena.
type Arena struct {
	mu     sync.RWMutex
	rooms  map[model.RoomCode]*entry
	logger *slog.Logger
}

// Ensure Arena can serialize timer callbacks
var _ scheduler.Serializer = (*Arena)(nil)

// NewArena creates an empty Arena
func NewArena(logger *slog.Logger) *Arena {
	return &Arena{
		rooms:  make(map[model.RoomCode]*entry),
		logger: logger.With(slog.String("component", "arena")),
	}
}

// Create reserves an unused code from gen and builds the room with init.
// gen runs outside the arena's lock and may return "" to reject a candidate.
// The room is locked until init returns.
func (a *Arena) Create(gen func() model.RoomCode, init func(code model.RoomCode) *model.Room) (*model.Room, error) {
	e, code, err := a.reserve(gen)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()

	e.room = init(code)
	return e.room, nil
}

// reserve inserts a locked, empty entry under a fresh code
func (a *Arena) reserve(gen func() model.RoomCode) (*entry, model.RoomCode, error) {
	for range maxCodeAttempts {
		code := gen()
		if code == "" {
			continue
		}
		if e := a.insert(code); e != nil {
			return e, code, nil
		}
	}
	return nil, "", ErrNoFreeCode
}

// insert adds a locked entry for code, or returns nil if the code is live
func (a *Arena) insert(code model.RoomCode) *entry {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, taken := a.rooms[code]; taken {
		return nil
	}
	e := &entry{}
	e.mu.Lock()
	a.rooms[code] = e
	return e
}

// WithRoom runs fn inside the room's boundary. A room left with no
// participants is removed from the arena before the boundary is released.
func (a *Arena) WithRoom(code model.RoomCode, fn func(room *model.Room) error) error {
	e := a.lookup(code)
	if e == nil {
		return model.ErrRoomNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return model.ErrRoomNotFound
	}
	err := fn(e.room)
	a.removeIfEmpty(code, e)
	return err
}

// Do runs fn inside the room's boundary, or not at all if the room is gone
func (a *Arena) Do(code model.RoomCode, fn func()) {
	err := a.WithRoom(code, func(*model.Room) error {
		fn()
		return nil
	})
	if err != nil {
		a.logger.Debug("callback for missing room skipped", slog.String("room", string(code)))
	}
}

// Snapshot returns a copy of the room safe to use outside its boundary
func (a *Arena) Snapshot(code model.RoomCode) (model.Room, error) {
	var snapshot model.Room
	err := a.WithRoom(code, func(room *model.Room) error {
		snapshot = *room
		snapshot.Participants = append([]model.Participant(nil), room.Participants...)
		snapshot.History = append([]model.Position(nil), room.History...)
		if room.Outcome != nil {
			outcome := *room.Outcome
			snapshot.Outcome = &outcome
		}
		return nil
	})
	return snapshot, err
}

// Exists reports whether the room is live
func (a *Arena) Exists(code model.RoomCode) bool {
	return a.lookup(code) != nil
}

// Count returns the number of live rooms
func (a *Arena) Count() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.rooms)
}

func (a *Arena) lookup(code model.RoomCode) *entry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.rooms[code]
}

// removeIfEmpty must be called with e.mu held
func (a *Arena) removeIfEmpty(code model.RoomCode, e *entry) {
	if e.room == nil || !e.room.IsEmpty() {
		return
	}
	e.closed = true

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.rooms[code] == e {
		delete(a.rooms, code)
	}
	a.logger.Debug("room removed", slog.String("room", string(code)))
}
