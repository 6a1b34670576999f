package auction

import (
	"context"
	"sort"
)

// SettleOption is one point on the price/edition-size tradeoff curve: the
// outcome of settling at a given price.
type SettleOption struct {
	PricePoint  uint64 `json:"price_point"`
	EditionSize uint64 `json:"edition_size"`
	Revenue     uint64 `json:"revenue"`
}

// CalculateSettleOptions computes, for each distinct revealed amount in
// descending order, the (price, edition size, revenue) triple that settling
// at that price would produce. The seller uses the table to trade unit price
// against edition size after observing the revealed distribution.
func (e *Engine) CalculateSettleOptions(collection Collection) ([]SettleOption, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.auctions[collection]
	if !ok {
		return nil, ErrAuctionNotFound
	}

	seen := make(map[uint64]bool, len(st.revealOrder))
	prices := make([]uint64, 0, len(st.revealOrder))
	for _, bidder := range st.revealOrder {
		amount := st.bids[bidder].RevealedAmount
		if !seen[amount] {
			seen[amount] = true
			prices = append(prices, amount)
		}
	}
	sort.Slice(prices, func(i, j int) bool { return prices[i] > prices[j] })

	options := make([]SettleOption, 0, len(prices))
	for _, price := range prices {
		var size uint64
		for _, bidder := range st.revealOrder {
			if st.bids[bidder].RevealedAmount >= price {
				size++
			}
		}
		revenue, err := checkedMul(price, size)
		if err != nil {
			return nil, err
		}
		options = append(options, SettleOption{
			PricePoint:  price,
			EditionSize: size,
			Revenue:     revenue,
		})
	}
	return options, nil
}

// settlementPlan captures the pre-settlement values needed to roll the
// ledger back if a collaborator call fails.
type settlementPlan struct {
	winners      []Account
	prevBalances []uint64
	prevAuction  Auction
}

// SettleAuction clears the auction at the seller-chosen price point during
// the settlement phase. Every revealed bid at or above the price wins one
// unit, in reveal order; winners pay the price point out of escrow and the
// edition size is exactly the winner count. The ledger mutations commit
// before the issuance and payout collaborators are called; if either fails,
// the mutations are rolled back and the call reports an external failure.
func (e *Engine) SettleAuction(ctx context.Context, collection Collection, pricePoint uint64) (Auction, error) {
	e.mu.Lock()

	st, ok := e.auctions[collection]
	if !ok {
		e.mu.Unlock()
		return Auction{}, ErrAuctionNotFound
	}
	if st.busy {
		e.mu.Unlock()
		return Auction{}, ErrAuctionBusy
	}
	if st.auction.PhaseAt(e.clock.Now()) != PhaseSettlement {
		e.mu.Unlock()
		return Auction{}, ErrWrongPhase
	}
	if st.auction.Settled {
		e.mu.Unlock()
		return Auction{}, ErrAlreadySettled
	}

	plan := settlementPlan{prevAuction: st.auction}
	for _, bidder := range st.revealOrder {
		if st.bids[bidder].RevealedAmount >= pricePoint {
			plan.winners = append(plan.winners, bidder)
			plan.prevBalances = append(plan.prevBalances, st.bids[bidder].Balance)
		}
	}

	editionSize := uint64(len(plan.winners))
	revenue, err := checkedMul(pricePoint, editionSize)
	if err != nil {
		e.mu.Unlock()
		return Auction{}, err
	}
	total, err := checkedSub(st.auction.TotalBalance, revenue)
	if err != nil {
		e.mu.Unlock()
		return Auction{}, err
	}

	// Commit the ledger first, then call out. The busy flag keeps reentrant
	// operations off this auction while the collaborators run.
	for _, winner := range plan.winners {
		bid := st.bids[winner]
		remaining, err := checkedSub(bid.Balance, pricePoint)
		if err != nil {
			e.rollbackSettlement(st, plan)
			e.mu.Unlock()
			return Auction{}, err
		}
		bid.Balance = remaining
	}
	st.auction.TotalBalance = total
	st.auction.Settled = true
	st.auction.SettledRevenue = revenue
	st.auction.SettledPricePoint = pricePoint
	st.auction.SettledEditionSize = editionSize

	st.busy = true
	recipient := st.auction.FundsRecipient
	snapshot := st.auction
	e.mu.Unlock()

	extErr := e.issuance.SetEditionSize(ctx, collection, editionSize)
	if extErr == nil {
		extErr = e.issuance.MintTo(ctx, collection, plan.winners)
	}
	if extErr == nil && revenue > 0 {
		extErr = e.payout.Transfer(ctx, recipient, revenue, e.currency)
	}

	e.mu.Lock()
	st.busy = false
	if extErr != nil {
		e.rollbackSettlement(st, plan)
		e.mu.Unlock()
		return Auction{}, externalFailure("settlement aborted", extErr)
	}
	e.mu.Unlock()

	e.emit(ctx, EventSettled, snapshot.Seller, revenue, snapshot)
	return snapshot, nil
}

// rollbackSettlement restores winner balances and the auction record to
// their pre-settlement values. Caller holds the engine lock.
func (e *Engine) rollbackSettlement(st *auctionState, plan settlementPlan) {
	for i, winner := range plan.winners {
		st.bids[winner].Balance = plan.prevBalances[i]
	}
	st.auction = plan.prevAuction
}
