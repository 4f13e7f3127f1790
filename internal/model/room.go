package model

import "time"

// RoomCode is a short human-typeable identifier for joining rooms
type RoomCode string

// ConnectionID identifies one live transport connection
type ConnectionID string

// UserID is the stable identity of a user across connections
type UserID string

// MaxParticipants is the number of participants a room can hold
const MaxParticipants = 2

// Phase is the lifecycle stage of a room
type Phase string

const (
	PhaseWaiting  Phase = "waiting"   // Gathering participants
	PhasePreGame  Phase = "pre_game"  // Roles drawn, countdown to start
	PhaseActive   Phase = "active"    // Moves accepted
	PhasePostGame Phase = "post_game" // Outcome known, countdown to close
	PhaseComplete Phase = "complete"  // Terminal
)

// Role is a participant's seat in the game
type Role string

const (
	RoleUnassigned Role = ""
	RoleFirst      Role = "first"  // Moves first (white)
	RoleSecond     Role = "second" // Moves second (black)
)

// Opponent returns the other role, or RoleUnassigned for an unassigned role
func (r Role) Opponent() Role {
	switch r {
	case RoleFirst:
		return RoleSecond
	case RoleSecond:
		return RoleFirst
	default:
		return RoleUnassigned
	}
}

// Participant is one connection's membership in a room
type Participant struct {
	ConnectionID ConnectionID
	UserID       UserID
	DisplayName  string
	Role         Role
	JoinedAt     time.Time
}

// Room holds the state of a single two-player session
type Room struct {
	Code         RoomCode
	Name         string
	CreatorID    UserID
	Participants []Participant
	Phase        Phase
	Position     Position   // Empty until the game starts
	History      []Position // Positions before Position in the current game
	MoveCount    int        // Accepted moves, equal to the last sequence number
	Outcome      *Outcome   // nil until the game ends
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// GetParticipant returns the participant for a connection, or nil if not found
func (r *Room) GetParticipant(conn ConnectionID) *Participant {
	for i := range r.Participants {
		if r.Participants[i].ConnectionID == conn {
			return &r.Participants[i]
		}
	}
	return nil
}

// GetParticipantByUser returns the participant for a user, or nil if not found
func (r *Room) GetParticipantByUser(user UserID) *Participant {
	for i := range r.Participants {
		if r.Participants[i].UserID == user {
			return &r.Participants[i]
		}
	}
	return nil
}

// IsFull reports whether the room has no free seat
func (r *Room) IsFull() bool {
	return len(r.Participants) >= MaxParticipants
}

// IsEmpty reports whether the room has no participants
func (r *Room) IsEmpty() bool {
	return len(r.Participants) == 0
}

// RolesAssigned reports whether the role draw has happened
func (r *Room) RolesAssigned() bool {
	return r.Phase != PhaseWaiting
}

// IsCreator reports whether the connection belongs to the room creator
func (r *Room) IsCreator(conn ConnectionID) bool {
	p := r.GetParticipant(conn)
	return p != nil && p.UserID == r.CreatorID
}

// ConnectionIDs returns the participants' connection ids in join order
func (r *Room) ConnectionIDs() []ConnectionID {
	ids := make([]ConnectionID, len(r.Participants))
	for i, p := range r.Participants {
		ids[i] = p.ConnectionID
	}
	return ids
}
