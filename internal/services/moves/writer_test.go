package moves

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/chessduel/internal/model"
	"github.com/mcoot/chessduel/internal/storage/memory"
	"github.com/mcoot/chessduel/internal/testutil"
)

// gatedLog blocks every append until release is closed
type gatedLog struct {
	*memory.Storage
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedLog() *gatedLog {
	return &gatedLog{
		Storage: memory.New(),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gatedLog) AppendMove(ctx context.Context, record *model.MoveRecord) error {
	g.once.Do(func() { close(g.started) })
	<-g.release
	return g.Storage.AppendMove(ctx, record)
}

// failingLog rejects the sequences in fail
type failingLog struct {
	*memory.Storage
	fail map[int]bool
}

func (f *failingLog) AppendMove(ctx context.Context, record *model.MoveRecord) error {
	if f.fail[record.Sequence] {
		return errors.New("connection reset")
	}
	return f.Storage.AppendMove(ctx, record)
}

type WriterSuite struct {
	suite.Suite
	ctx context.Context
}

func TestWriterSuite(t *testing.T) {
	suite.Run(t, new(WriterSuite))
}

func (s *WriterSuite) SetupTest() {
	s.ctx = context.Background()
}

func record(seq int) model.MoveRecord {
	return model.MoveRecord{
		RoomCode: "ROOM01",
		Sequence: seq,
		Role:     model.RoleFirst,
		Notation: "e4",
		PlayedAt: time.Date(2024, 1, 1, 12, 0, seq, 0, time.UTC),
	}
}

func (s *WriterSuite) TestWritesInOrder() {
	log := memory.New()
	w := NewWriter(log, 0, testutil.NopLogger())
	defer w.Close()

	for seq := 1; seq <= 5; seq++ {
		w.Enqueue(record(seq))
	}
	s.Require().NoError(w.Flush(s.ctx))

	records, err := log.ListMoves(s.ctx, "ROOM01")
	s.Require().NoError(err)
	s.Require().Len(records, 5)
	for i, r := range records {
		s.Equal(i+1, r.Sequence)
	}
}

func (s *WriterSuite) TestFailureIsLoggedAndSkipped() {
	log := &failingLog{Storage: memory.New(), fail: map[int]bool{2: true}}
	logger, buf := testutil.CaptureLogger()
	w := NewWriter(log, 0, logger)
	defer w.Close()

	w.Enqueue(record(1))
	w.Enqueue(record(2))
	w.Enqueue(record(3))
	s.Require().NoError(w.Flush(s.ctx))

	records, err := log.ListMoves(s.ctx, "ROOM01")
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal(1, records[0].Sequence)
	s.Equal(3, records[1].Sequence)
	s.Contains(buf.String(), "failed to persist move")
	s.Contains(buf.String(), "connection reset")
}

func (s *WriterSuite) TestEnqueueDoesNotWaitForStorage() {
	log := newGatedLog()
	w := NewWriter(log, 4, testutil.NopLogger())

	done := make(chan struct{})
	go func() {
		w.Enqueue(record(1))
		w.Enqueue(record(2))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		s.Fail("enqueue blocked on storage")
	}

	close(log.release)
	s.Require().NoError(w.Flush(s.ctx))
	w.Close()

	records, _ := log.ListMoves(s.ctx, "ROOM01")
	s.Len(records, 2)
}

func (s *WriterSuite) TestFullQueueDrops() {
	log := newGatedLog()
	logger, buf := testutil.CaptureLogger()
	w := NewWriter(log, 1, logger)

	w.Enqueue(record(1))
	<-log.started // record 1 is held in AppendMove, the queue is empty

	w.Enqueue(record(2)) // fills the queue
	w.Enqueue(record(3)) // dropped

	close(log.release)
	s.Require().NoError(w.Flush(s.ctx))
	w.Close()

	records, _ := log.ListMoves(s.ctx, "ROOM01")
	s.Require().Len(records, 2)
	s.Equal(2, records[1].Sequence)
	s.Contains(buf.String(), "queue full")
}

func (s *WriterSuite) TestCloseDrainsQueue() {
	log := memory.New()
	w := NewWriter(log, 0, testutil.NopLogger())

	w.Enqueue(record(1))
	w.Enqueue(record(2))
	w.Close()

	records, _ := log.ListMoves(s.ctx, "ROOM01")
	s.Len(records, 2)
}

func (s *WriterSuite) TestEnqueueAfterCloseIsDropped() {
	log := memory.New()
	logger, buf := testutil.CaptureLogger()
	w := NewWriter(log, 0, logger)
	w.Close()

	w.Enqueue(record(1))
	s.NoError(w.Flush(s.ctx))
	w.Close()

	records, _ := log.ListMoves(s.ctx, "ROOM01")
	s.Empty(records)
	s.Contains(buf.String(), "writer closed")
}

func (s *WriterSuite) TestFlushHonorsContext() {
	log := newGatedLog()
	w := NewWriter(log, 1, testutil.NopLogger())

	w.Enqueue(record(1))
	<-log.started

	ctx, cancel := context.WithTimeout(s.ctx, 20*time.Millisecond)
	defer cancel()
	s.ErrorIs(w.Flush(ctx), context.DeadlineExceeded)

	close(log.release)
	w.Close()
}
