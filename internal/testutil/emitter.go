package testutil

import (
	"sync"

	"github.com/mcoot/chessduel/internal/model"
)

// Delivery is one event delivered to one connection
type Delivery struct {
	To    model.ConnectionID
	Event model.Event
}

// RecordingEmitter records every emitted event
type RecordingEmitter struct {
	mu         sync.Mutex
	deliveries []Delivery
}

// Ensure RecordingEmitter implements Emitter
var _ model.Emitter = (*RecordingEmitter)(nil)

// NewRecordingEmitter creates an empty RecordingEmitter
func NewRecordingEmitter() *RecordingEmitter {
	return &RecordingEmitter{}
}

func (e *RecordingEmitter) Emit(to model.ConnectionID, event model.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.deliveries = append(e.deliveries, Delivery{To: to, Event: event})
}

// All returns every delivery in order
func (e *RecordingEmitter) All() []Delivery {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Delivery, len(e.deliveries))
	copy(out, e.deliveries)
	return out
}

// For returns the events delivered to one connection, in order
func (e *RecordingEmitter) For(conn model.ConnectionID) []model.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []model.Event
	for _, d := range e.deliveries {
		if d.To == conn {
			out = append(out, d.Event)
		}
	}
	return out
}

// TypesFor returns the event types delivered to one connection, in order
func (e *RecordingEmitter) TypesFor(conn model.ConnectionID) []model.EventType {
	var out []model.EventType
	for _, evt := range e.For(conn) {
		out = append(out, evt.Type)
	}
	return out
}

// Last returns the most recent event delivered to a connection
func (e *RecordingEmitter) Last(conn model.ConnectionID) (model.Event, bool) {
	events := e.For(conn)
	if len(events) == 0 {
		return model.Event{}, false
	}
	return events[len(events)-1], true
}

// Count returns how many events of a type were delivered to anyone
func (e *RecordingEmitter) Count(eventType model.EventType) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, d := range e.deliveries {
		if d.Event.Type == eventType {
			n++
		}
	}
	return n
}

// Reset forgets all deliveries
func (e *RecordingEmitter) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.deliveries = nil
}
