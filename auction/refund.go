package auction

import "context"

// CheckAvailableRefund returns the caller's current escrowed balance for an
// auction. Read-only; a participant with no bid has nothing refundable.
func (e *Engine) CheckAvailableRefund(collection Collection, caller Account) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.auctions[collection]
	if !ok {
		return 0, ErrAuctionNotFound
	}
	bid, ok := st.bids[caller]
	if !ok {
		return 0, nil
	}
	return bid.Balance, nil
}

// ClaimRefund pays out the caller's remaining escrowed balance. Refunds open
// only once the auction has settled or its settle phase has lapsed, so
// settlement always finds the balances that backed the revealed bids. The
// balance is zeroed before the external transfer, so a reentrant claim during
// the transfer cannot double-pay; if the transfer itself fails, the zeroing
// is rolled back and the claim can be retried. A second claim after a
// successful one fails with ErrNothingToClaim and moves no funds.
func (e *Engine) ClaimRefund(ctx context.Context, collection Collection, caller Account) (uint64, error) {
	e.mu.Lock()

	st, ok := e.auctions[collection]
	if !ok {
		e.mu.Unlock()
		return 0, ErrAuctionNotFound
	}
	if st.busy {
		e.mu.Unlock()
		return 0, ErrAuctionBusy
	}
	if !st.auction.Settled && st.auction.PhaseAt(e.clock.Now()) != PhaseClosed {
		e.mu.Unlock()
		return 0, ErrWrongPhase
	}

	bid, ok := st.bids[caller]
	if !ok || bid.Balance == 0 {
		e.mu.Unlock()
		return 0, ErrNothingToClaim
	}

	amount := bid.Balance
	prevTotal := st.auction.TotalBalance
	total, err := checkedSub(prevTotal, amount)
	if err != nil {
		e.mu.Unlock()
		return 0, err
	}

	bid.Balance = 0
	st.auction.TotalBalance = total
	st.busy = true
	snapshot := st.auction
	e.mu.Unlock()

	extErr := e.payout.Transfer(ctx, caller, amount, e.currency)

	e.mu.Lock()
	st.busy = false
	if extErr != nil {
		bid.Balance = amount
		st.auction.TotalBalance = prevTotal
		e.mu.Unlock()
		return 0, externalFailure("refund transfer failed", extErr)
	}
	e.mu.Unlock()

	e.emit(ctx, EventRefundClaimed, caller, amount, snapshot)
	return amount, nil
}
