package ws

import (
	"encoding/json"

	"github.com/mcoot/chessduel/internal/model"
)

// envelope is the frame format in both directions
type envelope struct {
	Type    model.EventType `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func encode(event model.Event) ([]byte, error) {
	return json.Marshal(event)
}

func decode(frame []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return envelope{}, err
	}
	if env.Type == "" {
		return envelope{}, errMissingType
	}
	return env, nil
}
