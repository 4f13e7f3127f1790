package factory

import (
	"time"

	"github.com/mcoot/chessduel/internal/dependencies/mocks"
	"github.com/mcoot/chessduel/internal/services/phase"
	"github.com/mcoot/chessduel/internal/storage/memory"
	"github.com/mcoot/chessduel/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock     *mocks.MockClock
	MockRandom    *mocks.MockRandom
	MockPublisher *mocks.MockPublisher
	Emitter       *testutil.RecordingEmitter
	MoveLog       *memory.Storage
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// Outbound events are recorded instead of sent over websockets.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockPublisher := mocks.NewMockPublisher()
	emitter := testutil.NewRecordingEmitter()

	app := newWithDependencies(dependencies{
		store:   store,
		events:  mockPublisher,
		clock:   mockClock,
		random:  mockRandom,
		emitter: emitter,
		phase:   phase.DefaultConfig(),
		logger:  testutil.NopLogger(),
	})

	return &TestApp{
		App:           app,
		MockClock:     mockClock,
		MockRandom:    mockRandom,
		MockPublisher: mockPublisher,
		Emitter:       emitter,
		MoveLog:       store,
	}
}
