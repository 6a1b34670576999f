package auction

import (
	"context"

	"github.com/neodaoist/v3/crypto"
)

// PlaceBid escrows a payment and records the bidder's commitment. The
// payment bounds the hidden bid from above; the commitment binds the hidden
// amount to the bidder's secret salt. Each participant places at most one
// bid per auction, and the commitment is immutable once stored.
func (e *Engine) PlaceBid(ctx context.Context, collection Collection, bidder Account,
	commitment crypto.Commitment, payment uint64) (Bid, error) {

	e.mu.Lock()

	st, ok := e.auctions[collection]
	if !ok {
		e.mu.Unlock()
		return Bid{}, ErrAuctionNotFound
	}
	if st.busy {
		e.mu.Unlock()
		return Bid{}, ErrAuctionBusy
	}
	if !e.clock.Now().Before(st.auction.EndOfBidPhase) {
		e.mu.Unlock()
		return Bid{}, ErrWrongPhase
	}
	if _, exists := st.bids[bidder]; exists {
		e.mu.Unlock()
		return Bid{}, ErrDuplicateBid
	}
	if payment == 0 {
		e.mu.Unlock()
		return Bid{}, ErrZeroPayment
	}

	total, err := checkedAdd(st.auction.TotalBalance, payment)
	if err != nil {
		e.mu.Unlock()
		return Bid{}, err
	}

	bid := &Bid{
		Commitment: commitment,
		Balance:    payment,
	}
	st.bids[bidder] = bid
	st.auction.TotalBalance = total

	snapshot := st.auction
	placed := *bid
	e.mu.Unlock()

	e.emit(ctx, EventBidPlaced, bidder, payment, snapshot)
	return placed, nil
}

// RevealBid opens a commitment during the reveal phase. The revealed amount
// must fit within the escrowed balance and, together with the salt, must
// reproduce the stored commitment. On success the bidder is appended to the
// reveal-order index; a bid reveals at most once.
func (e *Engine) RevealBid(ctx context.Context, collection Collection, bidder Account,
	amount uint64, salt []byte) (Bid, error) {

	e.mu.Lock()

	st, ok := e.auctions[collection]
	if !ok {
		e.mu.Unlock()
		return Bid{}, ErrAuctionNotFound
	}
	if st.busy {
		e.mu.Unlock()
		return Bid{}, ErrAuctionBusy
	}
	if st.auction.PhaseAt(e.clock.Now()) != PhaseReveal {
		e.mu.Unlock()
		return Bid{}, ErrWrongPhase
	}

	bid, exists := st.bids[bidder]
	if !exists {
		e.mu.Unlock()
		return Bid{}, ErrNoBid
	}
	if bid.Revealed {
		e.mu.Unlock()
		return Bid{}, ErrAlreadyRevealed
	}
	if amount > bid.Balance {
		e.mu.Unlock()
		return Bid{}, ErrAmountExceedsEscrow
	}
	if !crypto.Verify(bid.Commitment, amount, salt) {
		e.mu.Unlock()
		return Bid{}, ErrCommitmentMismatch
	}

	bid.RevealedAmount = amount
	bid.Revealed = true
	st.revealOrder = append(st.revealOrder, bidder)

	snapshot := st.auction
	revealed := *bid
	e.mu.Unlock()

	e.emit(ctx, EventBidRevealed, bidder, amount, snapshot)
	return revealed, nil
}
