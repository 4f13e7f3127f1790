package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/chessduel/internal/model"
	"github.com/mcoot/chessduel/internal/storage"
)

// Storage is a Redis-backed implementation of the move log
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %w", model.ErrMoveLogUnavailable, err)
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient wraps an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.MoveLog = (*Storage)(nil)

// AppendMove stores a record in its room's hash. HSETNX keeps records
// immutable; the TTL refresh rides in the same transaction.
func (s *Storage) AppendMove(ctx context.Context, record *model.MoveRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	key := movesKey(s.cfg.KeyPrefix, record.RoomCode)

	var added *redis.BoolCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		added = pipe.HSetNX(ctx, key, sequenceField(record.Sequence), data)
		if s.cfg.MoveTTL > 0 {
			pipe.Expire(ctx, key, s.cfg.MoveTTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrMoveLogUnavailable, err)
	}
	if !added.Val() {
		return fmt.Errorf("room %s sequence %d: %w", record.RoomCode, record.Sequence, storage.ErrDuplicateMove)
	}
	return nil
}

// ListMoves returns a room's records in sequence order
func (s *Storage) ListMoves(ctx context.Context, room model.RoomCode) ([]model.MoveRecord, error) {
	values, err := s.client.HVals(ctx, movesKey(s.cfg.KeyPrefix, room)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrMoveLogUnavailable, err)
	}

	records := make([]model.MoveRecord, 0, len(values))
	for _, v := range values {
		var record model.MoveRecord
		if err := json.Unmarshal([]byte(v), &record); err != nil {
			return nil, fmt.Errorf("room %s: corrupt move record: %w", room, err)
		}
		records = append(records, record)
	}

	slices.SortFunc(records, func(a, b model.MoveRecord) int {
		return a.Sequence - b.Sequence
	})
	return records, nil
}
