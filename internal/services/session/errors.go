package session

import (
	"errors"

	"github.com/mcoot/chessduel/internal/model"
)

// Reasons carried by request:invalid and room:full
const (
	ReasonMalformed   = "malformed_payload"
	ReasonUnknownType = "unknown_type"
	ReasonWrongRoom   = "wrong_room"
	ReasonFull        = "full"
	ReasonInProgress  = "in_progress"
)

var reasons = []struct {
	err    error
	reason string
}{
	{model.ErrInvalidRequest, "invalid_request"},
	{model.ErrAlreadyInRoom, "already_in_room"},
	{model.ErrUserAlreadyInRoom, "user_already_in_room"},
	{model.ErrNotInRoom, "not_in_room"},
	{model.ErrNotCreator, "not_creator"},
	{model.ErrInsufficientParticipants, "insufficient_participants"},
	{model.ErrRolesAlreadyAssigned, "roles_already_assigned"},
	{model.ErrRolesNotAssigned, "roles_not_assigned"},
	{model.ErrInvalidPhase, "invalid_phase"},
	{ErrNoFreeCode, "no_free_code"},
}

// reasonFor maps an error to its wire reason
func reasonFor(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return "invalid_request"
}
