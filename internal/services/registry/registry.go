package registry

import (
	"sync"

	"github.com/mcoot/chessduel/internal/model"
)

// Registry tracks which connections belong to which room.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	members map[model.RoomCode][]model.ConnectionID
	rooms   map[model.ConnectionID]model.RoomCode
}

// New creates an empty Registry
func New() *Registry {
	return &Registry{
		members: make(map[model.RoomCode][]model.ConnectionID),
		rooms:   make(map[model.ConnectionID]model.RoomCode),
	}
}

// Add records conn as a member of room. A connection already in another
// room is moved.
func (r *Registry) Add(room model.RoomCode, conn model.ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.rooms[conn]; ok {
		if current == room {
			return
		}
		r.removeLocked(conn)
	}
	r.rooms[conn] = room
	r.members[room] = append(r.members[room], conn)
}

// Remove drops conn from whichever room holds it. Unknown connections are ignored.
// It returns the room the connection was removed from.
func (r *Registry) Remove(conn model.ConnectionID) (model.RoomCode, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(conn)
}

// MembersOf returns the room's connections in join order
func (r *Registry) MembersOf(room model.RoomCode) []model.ConnectionID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.members[room]
	out := make([]model.ConnectionID, len(members))
	copy(out, members)
	return out
}

// RoomOf returns the room holding conn
func (r *Registry) RoomOf(conn model.ConnectionID) (model.RoomCode, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[conn]
	return room, ok
}

// RoomCount returns the number of rooms with at least one member
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

func (r *Registry) removeLocked(conn model.ConnectionID) (model.RoomCode, bool) {
	room, ok := r.rooms[conn]
	if !ok {
		return "", false
	}
	delete(r.rooms, conn)

	members := r.members[room]
	for i, c := range members {
		if c == conn {
			members = append(members[:i], members[i+1:]...)
			break
		}
	}
	if len(members) == 0 {
		delete(r.members, room)
	} else {
		r.members[room] = members
	}
	return room, true
}
