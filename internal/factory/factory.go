package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/mcoot/chessduel/internal/bus"
	"github.com/mcoot/chessduel/internal/dependencies/clock"
	"github.com/mcoot/chessduel/internal/dependencies/random"
	"github.com/mcoot/chessduel/internal/model"
	"github.com/mcoot/chessduel/internal/services/moves"
	"github.com/mcoot/chessduel/internal/services/outbox"
	"github.com/mcoot/chessduel/internal/services/phase"
	"github.com/mcoot/chessduel/internal/services/registry"
	"github.com/mcoot/chessduel/internal/services/rules"
	"github.com/mcoot/chessduel/internal/services/scheduler"
	"github.com/mcoot/chessduel/internal/services/session"
	"github.com/mcoot/chessduel/internal/services/signal"
	"github.com/mcoot/chessduel/internal/storage"
	"github.com/mcoot/chessduel/internal/storage/memory"
	pgstorage "github.com/mcoot/chessduel/internal/storage/postgres"
	redisstorage "github.com/mcoot/chessduel/internal/storage/redis"
	"github.com/mcoot/chessduel/internal/web/ws"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypePostgres = "postgres"
)

// App contains all wired application components
type App struct {
	// Move log and lifecycle bus
	Storage storage.MoveLog
	Events  bus.Publisher

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	Rules  rules.Engine

	// Services
	Registry   *registry.Registry
	Arena      *session.Arena
	Scheduler  *scheduler.Scheduler
	Machine    *phase.Machine
	MoveWriter *moves.Writer
	Moves      *moves.Relay
	Signals    *signal.Relay
	Manager    *session.Manager

	// Transport
	Hub       *ws.Hub
	WebSocket *ws.Handler

	logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the move log backend ("memory", "redis" or "postgres")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// PostgresConfig holds database settings (required if StorageType is "postgres")
	PostgresConfig *pgstorage.Config
	// NATSURL enables the lifecycle bus when set
	NATSURL string
	// PhaseConfig holds phase timings
	// If zero value, defaults to phase.DefaultConfig()
	PhaseConfig phase.Config
	// AllowedOrigins restricts browser websocket origins; empty allows any
	AllowedOrigins []string
	// MoveQueueSize bounds the move log write queue (optional)
	MoveQueueSize int
}

// dependencies are the swappable parts of an App
type dependencies struct {
	store     storage.MoveLog
	events    bus.Publisher
	clock     clock.Clock
	random    random.Random
	emitter   model.Emitter // nil means the websocket hub
	phase     phase.Config
	origins   []string
	queueSize int
	logger    *slog.Logger
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := newStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var events bus.Publisher = bus.Nop{}
	if cfg.NATSURL != "" {
		nats, err := bus.NewNATS(cfg.NATSURL, logger)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		events = nats
	}

	phaseCfg := withPhaseDefaults(cfg.PhaseConfig)

	return newWithDependencies(dependencies{
		store:     store,
		events:    events,
		clock:     clock.New(),
		random:    random.New(),
		phase:     phaseCfg,
		origins:   cfg.AllowedOrigins,
		queueSize: cfg.MoveQueueSize,
		logger:    logger,
	}), nil
}

func newStorage(ctx context.Context, cfg Config) (storage.MoveLog, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		store, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StorageTypePostgres:
		if cfg.PostgresConfig == nil {
			return nil, errors.New("PostgresConfig required when StorageType is postgres")
		}
		store, err := pgstorage.New(ctx, *cfg.PostgresConfig)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'redis' or 'postgres'")
	}
}

// newWithDependencies wires an App around the given dependencies (useful for testing)
func newWithDependencies(deps dependencies) *App {
	logger := deps.logger
	engine := rules.NewChessEngine()
	hub := ws.NewHub(logger)

	emitter := deps.emitter
	if emitter == nil {
		emitter = hub
	}

	reg := registry.New()
	ob := outbox.New(emitter, reg)
	arena := session.NewArena(logger)
	sched := scheduler.New(deps.clock, arena, logger)
	machine := phase.NewMachine(deps.phase, sched, engine, ob, reg, deps.events, deps.clock, deps.random, logger)
	writer := moves.NewWriter(deps.store, deps.queueSize, logger)
	moveRelay := moves.NewRelay(engine, writer, machine, ob, deps.clock, logger)
	signals := signal.NewRelay(ob, logger)
	manager := session.NewManager(arena, reg, machine, moveRelay, signals, ob, deps.store, logger)

	return &App{
		Storage:    deps.store,
		Events:     deps.events,
		Clock:      deps.clock,
		Random:     deps.random,
		Rules:      engine,
		Registry:   reg,
		Arena:      arena,
		Scheduler:  sched,
		Machine:    machine,
		MoveWriter: writer,
		Moves:      moveRelay,
		Signals:    signals,
		Manager:    manager,
		Hub:        hub,
		WebSocket:  ws.NewHandler(hub, manager, deps.origins, logger),
		logger:     logger,
	}
}

// Close disconnects clients, stops timers, drains the move log queue and
// releases backends
func (a *App) Close() error {
	a.Hub.Close()
	a.Scheduler.Stop()
	a.MoveWriter.Close()

	return errors.Join(a.Events.Close(), a.Storage.Close())
}

// withPhaseDefaults fills each unset duration on its own
func withPhaseDefaults(cfg phase.Config) phase.Config {
	defaults := phase.DefaultConfig()
	if cfg.PreGameDuration <= 0 {
		cfg.PreGameDuration = defaults.PreGameDuration
	}
	if cfg.PostGameDuration <= 0 {
		cfg.PostGameDuration = defaults.PostGameDuration
	}
	return cfg
}
