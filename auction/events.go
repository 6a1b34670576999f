package auction

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType names the record emitted by each engine operation.
type EventType string

const (
	EventCreated       EventType = "auction_created"
	EventCanceled      EventType = "auction_canceled"
	EventBidPlaced     EventType = "bid_placed"
	EventBidRevealed   EventType = "bid_revealed"
	EventSettled       EventType = "auction_settled"
	EventRefundClaimed EventType = "refund_claimed"
)

// Event is the record emitted once per successful operation. It carries the
// collection, the acting account, the amount moved (where one moved), and a
// snapshot of the auction after the operation.
type Event struct {
	ID         uuid.UUID  `json:"id"`
	Type       EventType  `json:"type"`
	Collection Collection `json:"collection"`
	Actor      Account    `json:"actor,omitempty"`
	Amount     uint64     `json:"amount,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
	Auction    Auction    `json:"auction"`
}

// EventSink receives emitted records. Implementations persist or forward
// them; sink failures are logged by the engine and never fail the operation
// that produced the record.
type EventSink interface {
	Append(ctx context.Context, ev Event) error
}

// emit publishes an operation record to the configured sink. Called after
// the operation's mutations have committed and the engine lock is released.
func (e *Engine) emit(ctx context.Context, typ EventType, actor Account, amount uint64, snapshot Auction) {
	if e.sink == nil {
		return
	}

	ev := Event{
		ID:         uuid.New(),
		Type:       typ,
		Collection: snapshot.Collection,
		Actor:      actor,
		Amount:     amount,
		Timestamp:  e.clock.Now(),
		Auction:    snapshot,
	}

	if err := e.sink.Append(ctx, ev); err != nil {
		e.log.Error("failed to append auction event",
			"type", string(typ), "collection", string(snapshot.Collection), "err", err)
	}
}
