package model

import "encoding/json"

// EventType identifies the type of event
type EventType string

const (
	// Inbound events
	EventCreateRoom      EventType = "room:create"
	EventJoinRoom        EventType = "room:join"
	EventLeaveRoom       EventType = "room:leave"
	EventDrawRoles       EventType = "room:draw-roles"
	EventGetRole         EventType = "role:get"
	EventSubmitMove      EventType = "chess:move"
	EventSignalOffer     EventType = "signal:offer"
	EventSignalAnswer    EventType = "signal:answer"
	EventSignalCandidate EventType = "signal:candidate"

	// Outbound events
	EventConnectionReady EventType = "connection:ready"
	EventRoomCreated     EventType = "room:created"
	EventRoomJoined      EventType = "room:joined"
	EventRoomFull        EventType = "room:full"
	EventRoomNotFound    EventType = "room:not-found"
	EventParticipantLeft EventType = "room:participant-left"
	EventRolesAssigned   EventType = "roles:assigned"
	EventYourRole        EventType = "role:yours"
	EventPhasePreGame    EventType = "phase:pre-game"
	EventPhaseActive     EventType = "phase:active"
	EventMoveAccepted    EventType = "move:accepted"
	EventMoveRejected    EventType = "move:rejected"
	EventGameOver        EventType = "game:over"
	EventPhasePostGame   EventType = "phase:post-game"
	EventPhaseComplete   EventType = "phase:complete"
	EventSignalRelayed   EventType = "signal:relayed"
	EventRequestInvalid  EventType = "request:invalid"
)

// SignalKind returns the signal kind carried by a signal event type
func (t EventType) SignalKind() (string, bool) {
	switch t {
	case EventSignalOffer:
		return "offer", true
	case EventSignalAnswer:
		return "answer", true
	case EventSignalCandidate:
		return "candidate", true
	default:
		return "", false
	}
}

// Event is an outbound message for a single connection
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

// Emitter delivers events to connections.
// Events for unknown connections are dropped.
type Emitter interface {
	Emit(to ConnectionID, event Event)
}

// Inbound payloads

// CreateRoomPayload contains data for room create requests
type CreateRoomPayload struct {
	Name        string `json:"name"`
	UserID      UserID `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// JoinRoomPayload contains data for room join requests
type JoinRoomPayload struct {
	Code        RoomCode `json:"code"`
	UserID      UserID   `json:"user_id"`
	DisplayName string   `json:"display_name"`
}

// RoomScopedPayload names the room a request applies to.
// An empty RoomID means the sender's current room.
type RoomScopedPayload struct {
	RoomID RoomCode `json:"room_id"`
}

// SubmitMovePayload contains data for move submissions
type SubmitMovePayload struct {
	RoomID    RoomCode `json:"room_id"`
	Move      string   `json:"move,omitempty"`
	From      string   `json:"from,omitempty"`
	To        string   `json:"to,omitempty"`
	Promotion string   `json:"promotion,omitempty"`
}

// Input converts the payload into a MoveInput
func (p SubmitMovePayload) Input() MoveInput {
	return MoveInput{Notation: p.Move, From: p.From, To: p.To, Promotion: p.Promotion}
}

// SignalPayload contains data for call-signaling requests
type SignalPayload struct {
	To      ConnectionID    `json:"to"`
	Payload json.RawMessage `json:"payload"`
}

// Outbound payloads

// ParticipantSummary describes a participant in outbound events
type ParticipantSummary struct {
	ConnectionID ConnectionID `json:"connection_id"`
	UserID       UserID       `json:"user_id"`
	DisplayName  string       `json:"display_name"`
	Role         Role         `json:"role,omitempty"`
}

// RoomSummary describes a room in outbound events
type RoomSummary struct {
	Code      RoomCode `json:"code"`
	Name      string   `json:"name"`
	CreatorID UserID   `json:"creator_id"`
	Phase     Phase    `json:"phase"`
}

// SummarizeParticipants converts a room's participants for outbound events
func SummarizeParticipants(room *Room) []ParticipantSummary {
	out := make([]ParticipantSummary, len(room.Participants))
	for i, p := range room.Participants {
		out[i] = ParticipantSummary{
			ConnectionID: p.ConnectionID,
			UserID:       p.UserID,
			DisplayName:  p.DisplayName,
			Role:         p.Role,
		}
	}
	return out
}

// SummarizeRoom converts a room for outbound events
func SummarizeRoom(room *Room) RoomSummary {
	return RoomSummary{
		Code:      room.Code,
		Name:      room.Name,
		CreatorID: room.CreatorID,
		Phase:     room.Phase,
	}
}

// ConnectionReadyPayload tells a client its connection id
type ConnectionReadyPayload struct {
	ConnectionID ConnectionID `json:"connection_id"`
}

// RoomCreatedPayload contains data for room created events
type RoomCreatedPayload struct {
	Code RoomCode `json:"code"`
	Name string   `json:"name"`
}

// RoomJoinedPayload contains data for room joined events
type RoomJoinedPayload struct {
	Room         RoomSummary          `json:"room"`
	Participants []ParticipantSummary `json:"participants"`
}

// RoomFullPayload contains data for room full rejections
type RoomFullPayload struct {
	Code   RoomCode `json:"code"`
	Reason string   `json:"reason"`
}

// RoomNotFoundPayload contains data for room not found rejections
type RoomNotFoundPayload struct {
	Code RoomCode `json:"code"`
}

// ParticipantLeftPayload contains data for participant left events
type ParticipantLeftPayload struct {
	ConnectionID ConnectionID `json:"connection_id"`
	UserID       UserID       `json:"user_id"`
	DisplayName  string       `json:"display_name"`
	CreatorID    UserID       `json:"creator_id"`
}

// RolesAssignedPayload contains data for the public role announcement
type RolesAssignedPayload struct {
	Participants []ParticipantSummary `json:"participants"`
}

// YourRolePayload contains data for the private role notification
type YourRolePayload struct {
	Role Role `json:"role"`
}

// PhaseTimerPayload announces a timed phase
type PhaseTimerPayload struct {
	DurationMS int64 `json:"duration_ms"`
}

// PhaseActivePayload contains data for game start events
type PhaseActivePayload struct {
	Position Position `json:"position"`
}

// MoveAcceptedPayload contains data for accepted moves
type MoveAcceptedPayload struct {
	Sequence int      `json:"sequence"`
	Role     Role     `json:"role"`
	Notation string   `json:"notation"`
	Position Position `json:"position"`
}

// MoveRejectedPayload contains data for rejected moves
type MoveRejectedPayload struct {
	Move   string `json:"move"`
	Reason string `json:"reason"`
}

// GameOverPayload contains data for game over events
type GameOverPayload struct {
	Result Result `json:"result"`
	Winner Role   `json:"winner,omitempty"`
	Reason string `json:"reason"`
}

// PhaseCompletePayload contains data for phase complete events
type PhaseCompletePayload struct {
	Code RoomCode `json:"code"`
}

// SignalRelayedPayload contains data for forwarded signals
type SignalRelayedPayload struct {
	Kind    string          `json:"kind"`
	From    ConnectionID    `json:"from"`
	Payload json.RawMessage `json:"payload"`
}

// RequestInvalidPayload contains data for rejected requests
type RequestInvalidPayload struct {
	Type   EventType `json:"type"`
	Reason string    `json:"reason"`
}
