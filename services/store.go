package services

import (
	"context"
	"sync"

	"github.com/neodaoist/v3/auction"
)

// EventStore persists the records emitted by the auction engine. It is an
// auction.EventSink with a query side for callers inspecting an auction's
// history.
type EventStore interface {
	auction.EventSink

	// ListByCollection returns all records for a collection in append order.
	ListByCollection(ctx context.Context, collection auction.Collection) ([]auction.Event, error)
}

// MemoryEventStore implements EventStore without a database, for tests and
// standalone runs.
type MemoryEventStore struct {
	mu     sync.Mutex
	events []auction.Event
}

// NewMemoryEventStore creates an in-memory event store.
func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{}
}

// Append stores a record in memory.
func (s *MemoryEventStore) Append(ctx context.Context, ev auction.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

// ListByCollection returns all stored records for a collection in append order.
func (s *MemoryEventStore) ListByCollection(ctx context.Context, collection auction.Collection) ([]auction.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]auction.Event, 0)
	for _, ev := range s.events {
		if ev.Collection == collection {
			result = append(result, ev)
		}
	}
	return result, nil
}
