package auction

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock for driving phase transitions.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type mintCall struct {
	collection Collection
	winners    []Account
}

// mockIssuance records issuance calls and fails on demand.
type mockIssuance struct {
	editionSizes map[Collection]uint64
	mints        []mintCall

	failSetSize error
	failMint    error
}

func newMockIssuance() *mockIssuance {
	return &mockIssuance{editionSizes: make(map[Collection]uint64)}
}

func (m *mockIssuance) SetEditionSize(ctx context.Context, collection Collection, size uint64) error {
	if m.failSetSize != nil {
		return m.failSetSize
	}
	m.editionSizes[collection] = size
	return nil
}

func (m *mockIssuance) MintTo(ctx context.Context, collection Collection, winners []Account) error {
	if m.failMint != nil {
		return m.failMint
	}
	m.mints = append(m.mints, mintCall{collection: collection, winners: winners})
	return nil
}

type transferCall struct {
	recipient Account
	amount    uint64
	currency  CurrencyID
}

// mockPayout records transfers and fails on demand. onTransfer, when set,
// runs during the external call to probe reentrancy.
type mockPayout struct {
	transfers []transferCall

	failTransfer error
	onTransfer   func()
}

func (m *mockPayout) Transfer(ctx context.Context, recipient Account, amount uint64, currency CurrencyID) error {
	if m.onTransfer != nil {
		m.onTransfer()
	}
	if m.failTransfer != nil {
		return m.failTransfer
	}
	m.transfers = append(m.transfers, transferCall{recipient: recipient, amount: amount, currency: currency})
	return nil
}

// recordingSink captures emitted events in order.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Append(ctx context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSink) types() []EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]EventType, len(s.events))
	for i, ev := range s.events {
		types[i] = ev.Type
	}
	return types
}

// testEnv wires an engine against mocks with a controllable clock.
type testEnv struct {
	engine   *Engine
	clock    *fakeClock
	issuance *mockIssuance
	payout   *mockPayout
	sink     *recordingSink
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	clock := newFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	issuance := newMockIssuance()
	payout := &mockPayout{}
	sink := &recordingSink{}

	engine, err := NewEngine(&EngineConfig{
		Issuance: issuance,
		Payout:   payout,
		Clock:    clock,
		Events:   sink,
	})
	require.NoError(t, err)

	return &testEnv{engine: engine, clock: clock, issuance: issuance, payout: payout, sink: sink}
}

// createDefaultAuction opens a 1h/1h/1h auction starting at the clock's
// current time.
func (env *testEnv) createDefaultAuction(t *testing.T, collection Collection) Auction {
	t.Helper()

	a, err := env.engine.CreateAuction(context.Background(), collection, "seller",
		10, "recipient", env.clock.Now(), time.Hour, time.Hour, time.Hour)
	require.NoError(t, err)
	return a
}
