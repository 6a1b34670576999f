package auction

import (
	"math/bits"
	"time"

	"github.com/neodaoist/v3/crypto"
)

// Collection identifies the item-issuance endpoint being auctioned over.
// At most one auction exists per collection at any time.
type Collection string

// Account identifies an auction participant: a seller, bidder, or funds
// recipient.
type Account string

// CurrencyID selects the currency backend used by the payout collaborator.
// Native-unit and token-style transfers are both valid; the engine treats
// the identifier as opaque.
type CurrencyID string

// Auction is the per-collection auction record. The engine hands out copies;
// mutation happens only inside engine operations.
type Auction struct {
	Collection Collection `json:"collection"`
	Seller     Account    `json:"seller"`

	// MinViableRevenue is the seller-declared revenue threshold. It is
	// advisory: settlement never enforces it, the seller consults it when
	// choosing a price point.
	MinViableRevenue uint64  `json:"min_viable_revenue"`
	FundsRecipient   Account `json:"funds_recipient"`

	StartTime        time.Time `json:"start_time"`
	EndOfBidPhase    time.Time `json:"end_of_bid_phase"`
	EndOfRevealPhase time.Time `json:"end_of_reveal_phase"`
	EndOfSettlePhase time.Time `json:"end_of_settle_phase"`

	// TotalBalance is the sum of all escrowed bid balances.
	TotalBalance uint64 `json:"total_balance"`

	Settled            bool   `json:"settled"`
	SettledRevenue     uint64 `json:"settled_revenue"`
	SettledPricePoint  uint64 `json:"settled_price_point"`
	SettledEditionSize uint64 `json:"settled_edition_size"`
}

// Bid is a participant's sealed bid: the published commitment, the escrowed
// balance backing it, and the revealed amount once opened. The commitment is
// immutable once set. The balance is decremented at most once, during
// settlement, and only for winners.
type Bid struct {
	Commitment     crypto.Commitment `json:"commitment"`
	Balance        uint64            `json:"balance"`
	RevealedAmount uint64            `json:"revealed_amount"`

	// Revealed distinguishes a zero-valued reveal from no reveal at all,
	// and prevents duplicate entries in the reveal-order index.
	Revealed bool `json:"revealed"`
}

// auctionState is the engine-internal record: the auction, its bid ledger,
// and the append-only reveal-order index. The three are owned jointly and
// discarded together on cancellation.
type auctionState struct {
	auction Auction
	bids    map[Account]*Bid

	// revealOrder lists accounts in the order they successfully revealed.
	// Settlement walks it to select winners deterministically.
	revealOrder []Account

	// busy is set for the duration of an external collaborator call, after
	// the operation's own mutations have committed. Operations on a busy
	// auction fail with ErrAuctionBusy instead of interleaving.
	busy bool
}

// checkedAdd returns a+b, failing instead of wrapping on overflow.
func checkedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrAmountOverflow
	}
	return sum, nil
}

// checkedSub returns a-b, failing instead of wrapping on underflow.
func checkedSub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, ErrAmountOverflow
	}
	return diff, nil
}

// checkedMul returns a*b, failing instead of wrapping on overflow.
func checkedMul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrAmountOverflow
	}
	return lo, nil
}
