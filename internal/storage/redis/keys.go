package redis

import (
	"strconv"

	"github.com/mcoot/chessduel/internal/model"
)

// movesKey returns the key of the HASH holding a room's moves by sequence
func movesKey(prefix string, room model.RoomCode) string {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return prefix + ":moves:" + string(room)
}

// sequenceField returns the hash field for a move's sequence number
func sequenceField(seq int) string {
	return strconv.Itoa(seq)
}
