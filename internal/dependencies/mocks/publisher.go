package mocks

import (
	"context"
	"sync"

	"github.com/mcoot/chessduel/internal/bus"
)

// MockPublisher records lifecycle events for testing
type MockPublisher struct {
	mu     sync.Mutex
	events []bus.Event
	closed bool
}

// Ensure MockPublisher implements Publisher
var _ bus.Publisher = (*MockPublisher)(nil)

// NewMockPublisher creates a new MockPublisher
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (p *MockPublisher) Publish(_ context.Context, event bus.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *MockPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Kinds returns the kinds of every published event, in order
func (p *MockPublisher) Kinds() []bus.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	kinds := make([]bus.Kind, len(p.events))
	for i, e := range p.events {
		kinds[i] = e.Kind
	}
	return kinds
}

// Events returns every published event, in order
func (p *MockPublisher) Events() []bus.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]bus.Event, len(p.events))
	copy(out, p.events)
	return out
}
