package moves

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/chessduel/internal/model"
	"github.com/mcoot/chessduel/internal/storage"
)

const (
	// DefaultQueueSize is the number of records buffered ahead of the move log
	DefaultQueueSize = 1024
	// DefaultAppendTimeout bounds a single append
	DefaultAppendTimeout = 5 * time.Second
)

type job struct {
	record *model.MoveRecord
	flush  chan struct{}
}

// Writer appends move records on a single background goroutine so that
// accepted moves never wait on storage. Records are written in the order
// they were enqueued. Failures are logged and the record is skipped.
type Writer struct {
	log     storage.MoveLog
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan job
	done   chan struct{}
}

// NewWriter starts a Writer in front of log
func NewWriter(log storage.MoveLog, queueSize int, logger *slog.Logger) *Writer {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	w := &Writer{
		log:     log,
		logger:  logger.With(slog.String("component", "movelog")),
		timeout: DefaultAppendTimeout,
		queue:   make(chan job, queueSize),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// Enqueue hands a record to the background writer without blocking.
// If the queue is full the record is dropped and logged.
func (w *Writer) Enqueue(record model.MoveRecord) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		w.logger.Warn("move dropped - writer closed",
			slog.String("room", string(record.RoomCode)),
			slog.Int("sequence", record.Sequence))
		return
	}

	select {
	case w.queue <- job{record: &record}:
	default:
		w.logger.Warn("move dropped - queue full",
			slog.String("room", string(record.RoomCode)),
			slog.Int("sequence", record.Sequence))
	}
}

// Flush waits until every record enqueued before the call has been attempted
func (w *Writer) Flush(ctx context.Context) error {
	flushed := make(chan struct{})

	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return nil
	}
	select {
	case w.queue <- job{flush: flushed}:
	case <-ctx.Done():
		w.mu.RUnlock()
		return ctx.Err()
	}
	w.mu.RUnlock()

	select {
	case <-flushed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the queue and stops the writer
func (w *Writer) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.queue)
	w.mu.Unlock()

	<-w.done
}

func (w *Writer) run() {
	defer close(w.done)

	for j := range w.queue {
		if j.flush != nil {
			close(j.flush)
			continue
		}
		w.append(j.record)
	}
}

func (w *Writer) append(record *model.MoveRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	if err := w.log.AppendMove(ctx, record); err != nil {
		w.logger.Error("failed to persist move",
			slog.String("room", string(record.RoomCode)),
			slog.Int("sequence", record.Sequence),
			slog.String("error", err.Error()))
		return
	}
	w.logger.Debug("move persisted",
		slog.String("room", string(record.RoomCode)),
		slog.Int("sequence", record.Sequence))
}
