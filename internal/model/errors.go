package model

import "errors"

// Common errors used across the application
var (
	// Request errors
	ErrInvalidRequest = errors.New("invalid request")

	// Room errors
	ErrRoomNotFound             = errors.New("room not found")
	ErrRoomFull                 = errors.New("room is full")
	ErrRoomInProgress           = errors.New("room is no longer accepting participants")
	ErrAlreadyInRoom            = errors.New("connection is already in a room")
	ErrUserAlreadyInRoom        = errors.New("user is already in room")
	ErrNotInRoom                = errors.New("connection is not in room")
	ErrNotCreator               = errors.New("connection is not the room creator")
	ErrInsufficientParticipants = errors.New("exactly two participants are required")
	ErrRolesAlreadyAssigned     = errors.New("roles have already been assigned")
	ErrRolesNotAssigned         = errors.New("roles have not been assigned")

	// Phase errors
	ErrInvalidPhase = errors.New("operation not allowed in current phase")

	// Move errors
	ErrIllegalMove = errors.New("illegal move")
	ErrNotYourTurn = errors.New("not this participant's turn")

	// Move log errors
	ErrMoveLogUnavailable = errors.New("move log unavailable")
)
