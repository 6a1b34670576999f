package auction

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// IssuanceService mints edition units to auction winners. It is consumed,
// not owned, by the engine; implementations live outside this package.
type IssuanceService interface {
	// SetEditionSize fixes the collection's edition size to the true winner
	// count before minting.
	SetEditionSize(ctx context.Context, collection Collection, size uint64) error

	// MintTo mints one unit to each winner, in reveal order. A failure
	// partway must not persist any units; the engine treats any error as
	// aborting the whole settlement.
	MintTo(ctx context.Context, collection Collection, winners []Account) error
}

// PayoutService moves funds out of escrow. Implementations apply royalty and
// protocol-fee deductions before transferring; the engine only tracks the
// gross amount leaving escrow.
type PayoutService interface {
	Transfer(ctx context.Context, recipient Account, amount uint64, currency CurrencyID) error
}

// EngineConfig carries the engine's collaborators and environment.
type EngineConfig struct {
	// Issuance mints editions at settlement. Required.
	Issuance IssuanceService

	// Payout transfers settlement revenue and refunds. Required.
	Payout PayoutService

	// Currency selects the payout backend. Defaults to "native".
	Currency CurrencyID

	// Clock supplies the current time. Defaults to the system clock.
	Clock Clock

	// Events receives one record per successful operation. Optional.
	Events EventSink

	// Log is the structured logger. Defaults to slog.Default().
	Log *slog.Logger
}

// DefaultCurrency is used when no currency is configured.
const DefaultCurrency CurrencyID = "native"

// Engine is the sealed-bid auction engine: the auction registry, per-auction
// bid ledgers, and the settlement and refund logic over them. All public
// operations are safe for concurrent use.
type Engine struct {
	issuance IssuanceService
	payout   PayoutService
	currency CurrencyID
	clock    Clock
	sink     EventSink
	log      *slog.Logger

	mu       sync.Mutex
	auctions map[Collection]*auctionState
}

// NewEngine creates an auction engine with the provided collaborators.
func NewEngine(cfg *EngineConfig) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Issuance == nil {
		return nil, errors.New("issuance service cannot be nil")
	}
	if cfg.Payout == nil {
		return nil, errors.New("payout service cannot be nil")
	}

	currency := cfg.Currency
	if currency == "" {
		currency = DefaultCurrency
	}

	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock{}
	}

	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	return &Engine{
		issuance: cfg.Issuance,
		payout:   cfg.Payout,
		currency: currency,
		clock:    clock,
		sink:     cfg.Events,
		log:      log,
		auctions: make(map[Collection]*auctionState),
	}, nil
}

// CreateAuction opens a sealed-bid auction for a collection. Phase
// boundaries are derived additively from the start time, so they are
// ordered by construction. Fails if the collection already has an auction.
func (e *Engine) CreateAuction(ctx context.Context, collection Collection, seller Account,
	minViableRevenue uint64, fundsRecipient Account, startTime time.Time,
	bidDuration, revealDuration, settleDuration time.Duration) (Auction, error) {

	if fundsRecipient == "" {
		return Auction{}, ErrNoFundsRecipient
	}
	if bidDuration < 0 || revealDuration < 0 || settleDuration < 0 {
		return Auction{}, ErrNegativeDuration
	}

	endOfBid := startTime.Add(bidDuration)
	endOfReveal := endOfBid.Add(revealDuration)
	endOfSettle := endOfReveal.Add(settleDuration)

	a := Auction{
		Collection:       collection,
		Seller:           seller,
		MinViableRevenue: minViableRevenue,
		FundsRecipient:   fundsRecipient,
		StartTime:        startTime,
		EndOfBidPhase:    endOfBid,
		EndOfRevealPhase: endOfReveal,
		EndOfSettlePhase: endOfSettle,
	}

	e.mu.Lock()
	if _, exists := e.auctions[collection]; exists {
		e.mu.Unlock()
		return Auction{}, ErrAuctionExists
	}
	e.auctions[collection] = &auctionState{
		auction: a,
		bids:    make(map[Account]*Bid),
	}
	e.mu.Unlock()

	e.emit(ctx, EventCreated, seller, 0, a)
	return a, nil
}

// CancelAuction removes an auction and its bid ledger atomically. Only the
// seller may cancel, and only while no escrow is held.
func (e *Engine) CancelAuction(ctx context.Context, collection Collection, caller Account) error {
	e.mu.Lock()

	st, ok := e.auctions[collection]
	if !ok {
		e.mu.Unlock()
		return ErrAuctionNotFound
	}
	if st.busy {
		e.mu.Unlock()
		return ErrAuctionBusy
	}
	if caller != st.auction.Seller {
		e.mu.Unlock()
		return ErrNotSeller
	}
	if st.auction.TotalBalance > 0 {
		e.mu.Unlock()
		return ErrEscrowHeld
	}

	snapshot := st.auction
	delete(e.auctions, collection)
	e.mu.Unlock()

	e.emit(ctx, EventCanceled, caller, 0, snapshot)
	return nil
}

// GetAuction returns a snapshot of the auction for a collection.
func (e *Engine) GetAuction(collection Collection) (Auction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.auctions[collection]
	if !ok {
		return Auction{}, ErrAuctionNotFound
	}
	return st.auction, nil
}

// GetBid returns a snapshot of a participant's bid in an auction.
func (e *Engine) GetBid(collection Collection, bidder Account) (Bid, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.auctions[collection]
	if !ok {
		return Bid{}, ErrAuctionNotFound
	}
	bid, ok := st.bids[bidder]
	if !ok {
		return Bid{}, ErrNoBid
	}
	return *bid, nil
}
