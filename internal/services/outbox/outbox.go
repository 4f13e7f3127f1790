package outbox

import (
	"github.com/mcoot/chessduel/internal/model"
	"github.com/mcoot/chessduel/internal/services/registry"
)

// Outbox addresses outbound events to a single connection or to every
// member of a room
type Outbox struct {
	emitter  model.Emitter
	registry *registry.Registry
}

// New creates an Outbox
func New(emitter model.Emitter, registry *registry.Registry) *Outbox {
	return &Outbox{emitter: emitter, registry: registry}
}

// Send delivers an event to one connection
func (o *Outbox) Send(to model.ConnectionID, eventType model.EventType, payload any) {
	o.emitter.Emit(to, model.Event{Type: eventType, Payload: payload})
}

// Broadcast delivers an event to every member of a room, in join order
func (o *Outbox) Broadcast(room model.RoomCode, eventType model.EventType, payload any) {
	evt := model.Event{Type: eventType, Payload: payload}
	for _, conn := range o.registry.MembersOf(room) {
		o.emitter.Emit(conn, evt)
	}
}
