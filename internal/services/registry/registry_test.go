package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/chessduel/internal/model"
)

type RegistrySuite struct {
	suite.Suite
	registry *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.registry = New()
}

func (s *RegistrySuite) TestAddAndMembersOfPreservesOrder() {
	s.registry.Add("ROOM01", "conn-a")
	s.registry.Add("ROOM01", "conn-b")

	s.Equal([]model.ConnectionID{"conn-a", "conn-b"}, s.registry.MembersOf("ROOM01"))
}

func (s *RegistrySuite) TestRoomOf() {
	s.registry.Add("ROOM01", "conn-a")

	room, ok := s.registry.RoomOf("conn-a")
	s.True(ok)
	s.Equal(model.RoomCode("ROOM01"), room)

	_, ok = s.registry.RoomOf("conn-unknown")
	s.False(ok)
}

func (s *RegistrySuite) TestAddTwiceIsIdempotent() {
	s.registry.Add("ROOM01", "conn-a")
	s.registry.Add("ROOM01", "conn-a")

	s.Len(s.registry.MembersOf("ROOM01"), 1)
}

func (s *RegistrySuite) TestAddToAnotherRoomMovesConnection() {
	s.registry.Add("ROOM01", "conn-a")
	s.registry.Add("ROOM02", "conn-a")

	s.Empty(s.registry.MembersOf("ROOM01"))
	s.Equal([]model.ConnectionID{"conn-a"}, s.registry.MembersOf("ROOM02"))
}

func (s *RegistrySuite) TestRemove() {
	s.registry.Add("ROOM01", "conn-a")
	s.registry.Add("ROOM01", "conn-b")

	room, ok := s.registry.Remove("conn-a")
	s.True(ok)
	s.Equal(model.RoomCode("ROOM01"), room)
	s.Equal([]model.ConnectionID{"conn-b"}, s.registry.MembersOf("ROOM01"))
}

func (s *RegistrySuite) TestRemoveUnknownIsNoop() {
	s.registry.Add("ROOM01", "conn-a")

	_, ok := s.registry.Remove("conn-unknown")
	s.False(ok)
	s.Equal([]model.ConnectionID{"conn-a"}, s.registry.MembersOf("ROOM01"))
}

func (s *RegistrySuite) TestEmptyRoomIsForgotten() {
	s.registry.Add("ROOM01", "conn-a")
	s.registry.Remove("conn-a")

	_, ok := s.registry.RoomOf("conn-a")
	s.False(ok)
	s.Empty(s.registry.MembersOf("ROOM01"))
	s.Equal(0, s.registry.RoomCount())
}

func (s *RegistrySuite) TestMembersOfReturnsCopy() {
	s.registry.Add("ROOM01", "conn-a")

	members := s.registry.MembersOf("ROOM01")
	members[0] = "mutated"

	s.Equal([]model.ConnectionID{"conn-a"}, s.registry.MembersOf("ROOM01"))
}

func (s *RegistrySuite) TestConcurrentAccess() {
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			room := model.RoomCode(fmt.Sprintf("ROOM%02d", i%5))
			conn := model.ConnectionID(fmt.Sprintf("conn-%d", i))
			s.registry.Add(room, conn)
			_ = s.registry.MembersOf(room)
			if i%2 == 0 {
				s.registry.Remove(conn)
			}
		}(i)
	}
	wg.Wait()

	total := 0
	for i := range 5 {
		total += len(s.registry.MembersOf(model.RoomCode(fmt.Sprintf("ROOM%02d", i))))
	}
	s.Equal(25, total)
}
