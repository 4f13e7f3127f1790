package scheduler

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/chessduel/internal/dependencies/clock"
	"github.com/mcoot/chessduel/internal/model"
)

// Serializer runs fn inside a room's serialization boundary.
// Implementations may skip fn when the room no longer exists.
type Serializer interface {
	Do(room model.RoomCode, fn func())
}

// SerializerFunc adapts a function to Serializer
type SerializerFunc func(room model.RoomCode, fn func())

// Do calls f(room, fn)
func (f SerializerFunc) Do(room model.RoomCode, fn func()) {
	f(room, fn)
}

// direct runs callbacks on the timer goroutine with no room boundary
var direct = SerializerFunc(func(_ model.RoomCode, fn func()) { fn() })

type entry struct {
	id       uint64
	timer    clock.Timer
	deadline time.Time
}

// Scheduler holds at most one single-shot timer per room.
// A firing timer only runs its action if it is still the room's current
// timer when it reaches the room's serialization boundary, so a timer that
// was canceled or replaced never acts.
type Scheduler struct {
	mu         sync.Mutex
	clock      clock.Clock
	serializer Serializer
	logger     *slog.Logger
	timers     map[model.RoomCode]*entry
	nextID     uint64
}

// New creates a Scheduler. A nil serializer runs actions directly.
func New(clk clock.Clock, serializer Serializer, logger *slog.Logger) *Scheduler {
	if serializer == nil {
		serializer = direct
	}
	return &Scheduler{
		clock:      clk,
		serializer: serializer,
		logger:     logger.With(slog.String("component", "scheduler")),
		timers:     make(map[model.RoomCode]*entry),
	}
}

// Schedule replaces any timer for room with one that runs action after delay
func (s *Scheduler) Schedule(room model.RoomCode, delay time.Duration, action func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.timers[room]; ok {
		existing.timer.Stop()
		s.logger.Debug("timer replaced", slog.String("room", string(room)))
	}

	s.nextID++
	id := s.nextID
	e := &entry{id: id, deadline: s.clock.Now().Add(delay)}
	s.timers[room] = e
	e.timer = s.clock.AfterFunc(delay, func() {
		s.fire(room, id, action)
	})
}

// Cancel stops the room's timer. Canceling a room with no timer is a no-op.
func (s *Scheduler) Cancel(room model.RoomCode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.timers[room]; ok {
		e.timer.Stop()
		delete(s.timers, room)
	}
}

// Deadline returns when the room's timer is due
func (s *Scheduler) Deadline(room model.RoomCode) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.timers[room]
	if !ok {
		return time.Time{}, false
	}
	return e.deadline, true
}

// Pending returns the number of live timers
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels every timer
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for room, e := range s.timers {
		e.timer.Stop()
		delete(s.timers, room)
	}
}

func (s *Scheduler) fire(room model.RoomCode, id uint64, action func()) {
	s.serializer.Do(room, func() {
		if !s.claim(room, id) {
			s.logger.Debug("stale timer ignored", slog.String("room", string(room)))
			return
		}
		action()
	})
}

// claim removes the room's timer if it is still the one identified by id
func (s *Scheduler) claim(room model.RoomCode, id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.timers[room]
	if !ok || e.id != id {
		return false
	}
	delete(s.timers, room)
	return true
}
