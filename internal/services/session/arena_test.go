package session

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/chessduel/internal/model"
	"github.com/mcoot/chessduel/internal/testutil"
)

type ArenaSuite struct {
	suite.Suite
	arena *Arena
}

func TestArenaSuite(t *testing.T) {
	suite.Run(t, new(ArenaSuite))
}

func (s *ArenaSuite) SetupTest() {
	s.arena = NewArena(testutil.NopLogger())
}

func codes(values ...model.RoomCode) func() model.RoomCode {
	var mu sync.Mutex
	i := 0
	return func() model.RoomCode {
		mu.Lock()
		defer mu.Unlock()
		if i >= len(values) {
			return ""
		}
		i++
		return values[i-1]
	}
}

func roomWith(code model.RoomCode, conns ...model.ConnectionID) *model.Room {
	room := &model.Room{Code: code, Phase: model.PhaseWaiting}
	for _, c := range conns {
		room.Participants = append(room.Participants, model.Participant{ConnectionID: c})
	}
	return room
}

func (s *ArenaSuite) create(code model.RoomCode) {
	_, err := s.arena.Create(codes(code), func(code model.RoomCode) *model.Room {
		return roomWith(code, "c1")
	})
	s.Require().NoError(err)
}

func (s *ArenaSuite) TestCreateSkipsTakenCodes() {
	s.create("AAAAAA")

	room, err := s.arena.Create(codes("AAAAAA", "BBBBBB"), func(code model.RoomCode) *model.Room {
		return roomWith(code, "c2")
	})

	s.Require().NoError(err)
	s.Equal(model.RoomCode("BBBBBB"), room.Code)
	s.Equal(2, s.arena.Count())
}

func (s *ArenaSuite) TestGeneratorRunsOutsideArenaLock() {
	s.create("AAAAAA")

	gen := func() model.RoomCode {
		// Reading the arena from the generator must not deadlock
		s.True(s.arena.Exists("AAAAAA"))
		return "BBBBBB"
	}
	room, err := s.arena.Create(gen, func(code model.RoomCode) *model.Room {
		return roomWith(code, "c2")
	})

	s.Require().NoError(err)
	s.Equal(model.RoomCode("BBBBBB"), room.Code)
}

func (s *ArenaSuite) TestCreateGivesUp() {
	s.create("AAAAAA")

	gen := func() model.RoomCode { return "AAAAAA" }
	_, err := s.arena.Create(gen, func(code model.RoomCode) *model.Room {
		s.Fail("init should not run")
		return nil
	})

	s.ErrorIs(err, ErrNoFreeCode)
	s.Equal(1, s.arena.Count())
}

func (s *ArenaSuite) TestWithRoomUnknown() {
	err := s.arena.WithRoom("NOPE00", func(*model.Room) error { return nil })
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *ArenaSuite) TestEmptyRoomIsRemoved() {
	s.create("AAAAAA")

	err := s.arena.WithRoom("AAAAAA", func(room *model.Room) error {
		room.Participants = nil
		return nil
	})

	s.NoError(err)
	s.False(s.arena.Exists("AAAAAA"))
	s.Equal(0, s.arena.Count())
	s.ErrorIs(s.arena.WithRoom("AAAAAA", func(*model.Room) error { return nil }), model.ErrRoomNotFound)
}

func (s *ArenaSuite) TestDoSkipsMissingRoom() {
	ran := false
	s.arena.Do("NOPE00", func() { ran = true })
	s.False(ran)
}

func (s *ArenaSuite) TestSnapshotIsACopy() {
	s.create("AAAAAA")

	snap, err := s.arena.Snapshot("AAAAAA")
	s.Require().NoError(err)
	snap.Participants[0].ConnectionID = "changed"

	again, _ := s.arena.Snapshot("AAAAAA")
	s.Equal(model.ConnectionID("c1"), again.Participants[0].ConnectionID)
}

func (s *ArenaSuite) TestSameRoomIsSerialized() {
	s.create("AAAAAA")

	var inside, maxInside int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.arena.WithRoom("AAAAAA", func(*model.Room) error {
				n := atomic.AddInt32(&inside, 1)
				for {
					cur := atomic.LoadInt32(&maxInside)
					if n <= cur || atomic.CompareAndSwapInt32(&maxInside, cur, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	s.Equal(int32(1), maxInside)
}

func (s *ArenaSuite) TestDifferentRoomsRunInParallel() {
	s.create("AAAAAA")
	s.create("BBBBBB")

	entered := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = s.arena.WithRoom("AAAAAA", func(*model.Room) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	done := make(chan struct{})
	go func() {
		_ = s.arena.WithRoom("BBBBBB", func(*model.Room) error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		s.Fail("room B waited on room A")
	}
	close(release)
}
