package factory

import (
	"time"

	"github.com/mcoot/fleetgame-go/internal/dependencies/mocks"
	"github.com/mcoot/fleetgame-go/internal/dependencies/random"
	"github.com/mcoot/fleetgame-go/internal/services/auth"
	"github.com/mcoot/fleetgame-go/internal/storage"
	"github.com/mcoot/fleetgame-go/internal/storage/memory"
	"github.com/mcoot/fleetgame-go/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	MockIDs    *mocks.SequentialIDs
}

// NewTestApp creates an App on in-memory storage with mocked dependencies.
// Random values not queued on MockRandom come from a fixed seed.
func NewTestApp() *TestApp {
	return NewTestAppWithStorage(memory.New(), "id")
}

// NewTestAppWithStorage is NewTestApp on the given store. Generated IDs start
// with idPrefix, so several apps can share one store.
func NewTestAppWithStorage(store storage.Storage, idPrefix string) *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockRandom.Fallback = random.NewSeeded(1)
	mockIDs := mocks.NewSequentialIDs(idPrefix)

	app := newWithDependencies(store, mockClock, mockRandom, mockIDs, auth.DefaultConfig(), testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		MockIDs:    mockIDs,
	}
}
