package mocks

import (
	"sync"

	"github.com/mcoot/chessduel/internal/dependencies/random"
)

// MockRandom replays queued values. An exhausted queue yields the zero value,
// which for String means "no code" and for Intn means the first option.
type MockRandom struct {
	mu sync.Mutex

	ints    queue[int]
	strings queue[string]

	// IntnCalls records the n passed to each Intn call
	IntnCalls []int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued int
func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.IntnCalls = append(r.IntnCalls, n)
	return r.ints.next()
}

// String returns the next queued string, ignoring length and alphabet
func (r *MockRandom) String(int, string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.strings.next()
}

// QueueIntn adds values to the Intn queue
func (r *MockRandom) QueueIntn(values ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ints.push(values...)
}

// QueueString adds values to the String queue
func (r *MockRandom) QueueString(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strings.push(values...)
}

type queue[T any] struct {
	items []T
}

func (q *queue[T]) push(values ...T) {
	q.items = append(q.items, values...)
}

func (q *queue[T]) next() T {
	var zero T
	if len(q.items) == 0 {
		return zero
	}
	v := q.items[0]
	q.items = q.items[1:]
	return v
}
