package factory

import (
	"sync"
	"time"

	"github.com/openbnet/presence/internal/dependencies/mocks"
	"github.com/openbnet/presence/internal/model"
	"github.com/openbnet/presence/internal/services/online"
	"github.com/openbnet/presence/internal/storage/memory"
	"github.com/openbnet/presence/internal/testutil"
)

// RecordedDelivery is one notification captured by the test notifier
type RecordedDelivery struct {
	Session *online.Session
	Target  model.EntityID
	Op      model.FieldOperation
}

// RecordingNotifier captures deliveries for assertions
type RecordingNotifier struct {
	mu         sync.Mutex
	deliveries []RecordedDelivery
}

// DeliverTargeted records the delivery
func (n *RecordingNotifier) DeliverTargeted(session *online.Session, target model.EntityID, op model.FieldOperation) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deliveries = append(n.deliveries, RecordedDelivery{Session: session, Target: target, Op: op})
	return nil
}

// Deliveries returns a copy of everything delivered so far
func (n *RecordingNotifier) Deliveries() []RecordedDelivery {
	n.mu.Lock()
	defer n.mu.Unlock()
	result := make([]RecordedDelivery, len(n.deliveries))
	copy(result, n.deliveries)
	return result
}

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom

	// MemoryFriends is the concrete friend registry for test setup
	MemoryFriends *online.MemoryFriends

	// Notifier records every presence delivery
	Notifier *RecordingNotifier
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	friends := online.NewMemoryFriends()
	notifier := &RecordingNotifier{}

	app := newWithDependencies(store, mockClock, mockRandom, friends, notifier, testutil.NopLogger())

	return &TestApp{
		App:           app,
		MockClock:     mockClock,
		MockRandom:    mockRandom,
		MemoryFriends: friends,
		Notifier:      notifier,
	}
}
