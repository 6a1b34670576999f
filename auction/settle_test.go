package auction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neodaoist/v3/crypto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// placeAndReveal escrows payment and opens the commitment for amount, using
// the bidder name as salt. The clock must be in the corresponding phase.
func placeAndReveal(t *testing.T, env *testEnv, collection Collection, bidders []Account,
	payments, amounts map[Account]uint64) {
	t.Helper()

	for _, bidder := range bidders {
		salt := []byte(bidder)
		_, err := env.engine.PlaceBid(context.Background(), collection, bidder,
			crypto.Compute(amounts[bidder], salt), payments[bidder])
		require.NoError(t, err)
	}

	env.clock.Advance(time.Hour)
	for _, bidder := range bidders {
		_, err := env.engine.RevealBid(context.Background(), collection, bidder,
			amounts[bidder], []byte(bidder))
		require.NoError(t, err)
	}
}

func TestSettleAuction_TwoBidderScenario(t *testing.T) {
	env := newTestEnv(t)
	env.createDefaultAuction(t, "col-1")

	placeAndReveal(t, env, "col-1", []Account{"bidder-x", "bidder-y"},
		map[Account]uint64{"bidder-x": 3, "bidder-y": 1},
		map[Account]uint64{"bidder-x": 3, "bidder-y": 1})

	env.clock.Advance(time.Hour)
	a, err := env.engine.SettleAuction(context.Background(), "col-1", 2)
	require.NoError(t, err)

	assert.True(t, a.Settled)
	assert.Equal(t, uint64(2), a.SettledPricePoint)
	assert.Equal(t, uint64(1), a.SettledEditionSize)
	assert.Equal(t, uint64(2), a.SettledRevenue)
	assert.Equal(t, uint64(2), a.TotalBalance)

	x, err := env.engine.GetBid("col-1", "bidder-x")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), x.Balance)

	y, err := env.engine.GetBid("col-1", "bidder-y")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), y.Balance)

	// The issuance collaborator saw the true winner count and the winners
	// in reveal order; the payout collaborator saw the settled revenue.
	assert.Equal(t, uint64(1), env.issuance.editionSizes["col-1"])
	require.Len(t, env.issuance.mints, 1)
	assert.Equal(t, []Account{"bidder-x"}, env.issuance.mints[0].winners)

	require.Len(t, env.payout.transfers, 1)
	assert.Equal(t, Account("recipient"), env.payout.transfers[0].recipient)
	assert.Equal(t, uint64(2), env.payout.transfers[0].amount)
	assert.Equal(t, DefaultCurrency, env.payout.transfers[0].currency)
}

func TestSettleAuction_WinnersInRevealOrder(t *testing.T) {
	env := newTestEnv(t)
	env.createDefaultAuction(t, "col-1")

	bidders := []Account{"bidder-c", "bidder-a", "bidder-b", "bidder-d"}
	payments := map[Account]uint64{"bidder-c": 5, "bidder-a": 5, "bidder-b": 5, "bidder-d": 5}
	amounts := map[Account]uint64{"bidder-c": 4, "bidder-a": 3, "bidder-b": 2, "bidder-d": 5}
	placeAndReveal(t, env, "col-1", bidders, payments, amounts)

	env.clock.Advance(time.Hour)
	a, err := env.engine.SettleAuction(context.Background(), "col-1", 3)
	require.NoError(t, err)

	// Qualifiers are exactly the revealed bids >= 3, in reveal order, and
	// the edition size is their true count.
	require.Len(t, env.issuance.mints, 1)
	assert.Equal(t, []Account{"bidder-c", "bidder-a", "bidder-d"}, env.issuance.mints[0].winners)
	assert.Equal(t, uint64(3), a.SettledEditionSize)
	assert.Equal(t, uint64(9), a.SettledRevenue)

	for _, winner := range []Account{"bidder-c", "bidder-a", "bidder-d"} {
		bid, err := env.engine.GetBid("col-1", winner)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), bid.Balance)
	}
	loser, err := env.engine.GetBid("col-1", "bidder-b")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), loser.Balance)
}

func TestSettleAuction_NoQualifiers(t *testing.T) {
	env := newTestEnv(t)
	env.createDefaultAuction(t, "col-1")

	placeAndReveal(t, env, "col-1", []Account{"bidder-x"},
		map[Account]uint64{"bidder-x": 3},
		map[Account]uint64{"bidder-x": 3})

	env.clock.Advance(time.Hour)
	a, err := env.engine.SettleAuction(context.Background(), "col-1", 10)
	require.NoError(t, err)

	assert.True(t, a.Settled)
	assert.Zero(t, a.SettledEditionSize)
	assert.Zero(t, a.SettledRevenue)
	assert.Equal(t, uint64(3), a.TotalBalance)

	// An empty edition still gets reported; no revenue transfer happens.
	assert.Equal(t, uint64(0), env.issuance.editionSizes["col-1"])
	assert.Empty(t, env.payout.transfers)
}

func TestSettleAuction_PhaseAndRepeatGuards(t *testing.T) {
	env := newTestEnv(t)
	env.createDefaultAuction(t, "col-1")

	placeAndReveal(t, env, "col-1", []Account{"bidder-x"},
		map[Account]uint64{"bidder-x": 3},
		map[Account]uint64{"bidder-x": 3})

	// Still in the reveal phase.
	_, err := env.engine.SettleAuction(context.Background(), "col-1", 2)
	require.ErrorIs(t, err, ErrWrongPhase)

	env.clock.Advance(time.Hour)
	_, err = env.engine.SettleAuction(context.Background(), "col-1", 2)
	require.NoError(t, err)

	_, err = env.engine.SettleAuction(context.Background(), "col-1", 1)
	require.ErrorIs(t, err, ErrAlreadySettled)

	// Past the settle phase on a fresh auction.
	env.createDefaultAuction(t, "col-2")
	env.clock.Advance(3 * time.Hour)
	_, err = env.engine.SettleAuction(context.Background(), "col-2", 2)
	require.ErrorIs(t, err, ErrWrongPhase)
}

func TestSettleAuction_RollbackOnMintFailure(t *testing.T) {
	env := newTestEnv(t)
	env.createDefaultAuction(t, "col-1")

	placeAndReveal(t, env, "col-1", []Account{"bidder-x", "bidder-y"},
		map[Account]uint64{"bidder-x": 3, "bidder-y": 2},
		map[Account]uint64{"bidder-x": 3, "bidder-y": 2})

	env.clock.Advance(time.Hour)
	env.issuance.failMint = errors.New("mint rejected")

	_, err := env.engine.SettleAuction(context.Background(), "col-1", 2)
	require.Error(t, err)
	assert.Equal(t, KindExternal, KindOf(err))
	assert.ErrorContains(t, err, "mint rejected")

	// The ledger rolled back completely.
	a, err := env.engine.GetAuction("col-1")
	require.NoError(t, err)
	assert.False(t, a.Settled)
	assert.Zero(t, a.SettledRevenue)
	assert.Equal(t, uint64(5), a.TotalBalance)

	for bidder, want := range map[Account]uint64{"bidder-x": 3, "bidder-y": 2} {
		bid, err := env.engine.GetBid("col-1", bidder)
		require.NoError(t, err)
		assert.Equal(t, want, bid.Balance)
	}
	assert.Empty(t, env.payout.transfers)

	// Settlement can be retried once the collaborator recovers.
	env.issuance.failMint = nil
	a, err = env.engine.SettleAuction(context.Background(), "col-1", 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), a.SettledRevenue)
}

func TestSettleAuction_RollbackOnPayoutFailure(t *testing.T) {
	env := newTestEnv(t)
	env.createDefaultAuction(t, "col-1")

	placeAndReveal(t, env, "col-1", []Account{"bidder-x"},
		map[Account]uint64{"bidder-x": 3},
		map[Account]uint64{"bidder-x": 3})

	env.clock.Advance(time.Hour)
	env.payout.failTransfer = errors.New("transfer rejected")

	_, err := env.engine.SettleAuction(context.Background(), "col-1", 2)
	require.Error(t, err)
	assert.Equal(t, KindExternal, KindOf(err))

	bid, err := env.engine.GetBid("col-1", "bidder-x")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), bid.Balance)
}

func TestSettleAuction_ReentrancyBlocked(t *testing.T) {
	env := newTestEnv(t)
	env.createDefaultAuction(t, "col-1")

	placeAndReveal(t, env, "col-1", []Account{"bidder-x"},
		map[Account]uint64{"bidder-x": 3},
		map[Account]uint64{"bidder-x": 3})

	env.clock.Advance(time.Hour)

	// A refund claim arriving while the settlement's payout call is in
	// flight must be refused, not interleaved.
	var reentrantErr error
	env.payout.onTransfer = func() {
		env.payout.onTransfer = nil
		_, reentrantErr = env.engine.ClaimRefund(context.Background(), "col-1", "bidder-x")
	}

	_, err := env.engine.SettleAuction(context.Background(), "col-1", 2)
	require.NoError(t, err)
	require.ErrorIs(t, reentrantErr, ErrAuctionBusy)
}

func TestCalculateSettleOptions(t *testing.T) {
	env := newTestEnv(t)
	env.createDefaultAuction(t, "col-1")

	bidders := []Account{"bidder-a", "bidder-b", "bidder-c", "bidder-d"}
	payments := map[Account]uint64{"bidder-a": 5, "bidder-b": 3, "bidder-c": 3, "bidder-d": 1}
	amounts := map[Account]uint64{"bidder-a": 5, "bidder-b": 3, "bidder-c": 3, "bidder-d": 1}
	placeAndReveal(t, env, "col-1", bidders, payments, amounts)

	options, err := env.engine.CalculateSettleOptions("col-1")
	require.NoError(t, err)

	assert.Equal(t, []SettleOption{
		{PricePoint: 5, EditionSize: 1, Revenue: 5},
		{PricePoint: 3, EditionSize: 3, Revenue: 9},
		{PricePoint: 1, EditionSize: 4, Revenue: 4},
	}, options)
}

func TestCalculateSettleOptions_NoReveals(t *testing.T) {
	env := newTestEnv(t)
	env.createDefaultAuction(t, "col-1")

	options, err := env.engine.CalculateSettleOptions("col-1")
	require.NoError(t, err)
	assert.Empty(t, options)

	_, err = env.engine.CalculateSettleOptions("missing")
	require.ErrorIs(t, err, ErrAuctionNotFound)
}

func TestClaimRefund_PaysExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	env.createDefaultAuction(t, "col-1")

	placeAndReveal(t, env, "col-1", []Account{"bidder-x", "bidder-y"},
		map[Account]uint64{"bidder-x": 3, "bidder-y": 1},
		map[Account]uint64{"bidder-x": 3, "bidder-y": 1})

	env.clock.Advance(time.Hour)
	_, err := env.engine.SettleAuction(context.Background(), "col-1", 2)
	require.NoError(t, err)

	balance, err := env.engine.CheckAvailableRefund("col-1", "bidder-x")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), balance)

	amount, err := env.engine.ClaimRefund(context.Background(), "col-1", "bidder-x")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), amount)

	_, err = env.engine.ClaimRefund(context.Background(), "col-1", "bidder-x")
	require.ErrorIs(t, err, ErrNothingToClaim)

	// The settlement transfer plus exactly one refund transfer.
	require.Len(t, env.payout.transfers, 2)
	assert.Equal(t, Account("bidder-x"), env.payout.transfers[1].recipient)
	assert.Equal(t, uint64(1), env.payout.transfers[1].amount)

	balance, err = env.engine.CheckAvailableRefund("col-1", "bidder-x")
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestClaimRefund_NothingToClaim(t *testing.T) {
	env := newTestEnv(t)
	env.createDefaultAuction(t, "col-1")
	env.clock.Advance(3 * time.Hour)

	_, err := env.engine.ClaimRefund(context.Background(), "col-1", "stranger")
	require.ErrorIs(t, err, ErrNothingToClaim)

	_, err = env.engine.ClaimRefund(context.Background(), "missing", "stranger")
	require.ErrorIs(t, err, ErrAuctionNotFound)

	balance, err := env.engine.CheckAvailableRefund("col-1", "stranger")
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestClaimRefund_BlockedBeforeSettlement(t *testing.T) {
	env := newTestEnv(t)
	env.createDefaultAuction(t, "col-1")

	placeAndReveal(t, env, "col-1", []Account{"bidder-x"},
		map[Account]uint64{"bidder-x": 3},
		map[Account]uint64{"bidder-x": 3})

	// Reveal phase: the escrow backing the revealed bid must stay put.
	_, err := env.engine.ClaimRefund(context.Background(), "col-1", "bidder-x")
	require.ErrorIs(t, err, ErrWrongPhase)

	// Settlement phase, not yet settled: still refused.
	env.clock.Advance(time.Hour)
	_, err = env.engine.ClaimRefund(context.Background(), "col-1", "bidder-x")
	require.ErrorIs(t, err, ErrWrongPhase)
	assert.Empty(t, env.payout.transfers)

	// Settlement finds the escrow intact and clears at a price the revealed
	// bid qualifies for.
	a, err := env.engine.SettleAuction(context.Background(), "col-1", 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), a.SettledRevenue)
	assert.Equal(t, uint64(1), a.SettledEditionSize)

	// The excess over the price point is now claimable.
	amount, err := env.engine.ClaimRefund(context.Background(), "col-1", "bidder-x")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), amount)
}

func TestClaimRefund_OpenAfterSettlePhaseLapses(t *testing.T) {
	env := newTestEnv(t)
	env.createDefaultAuction(t, "col-1")

	_, err := env.engine.PlaceBid(context.Background(), "col-1", "bidder-x", crypto.Compute(3, []byte("s1")), 3)
	require.NoError(t, err)

	// The auction was never settled; once the settle phase lapses the
	// escrow becomes claimable anyway.
	env.clock.Advance(3 * time.Hour)
	amount, err := env.engine.ClaimRefund(context.Background(), "col-1", "bidder-x")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), amount)
}

func TestClaimRefund_RollbackOnTransferFailure(t *testing.T) {
	env := newTestEnv(t)
	env.createDefaultAuction(t, "col-1")

	_, err := env.engine.PlaceBid(context.Background(), "col-1", "bidder-x", crypto.Compute(3, []byte("s1")), 3)
	require.NoError(t, err)
	env.clock.Advance(3 * time.Hour)

	env.payout.failTransfer = errors.New("transfer rejected")
	_, err = env.engine.ClaimRefund(context.Background(), "col-1", "bidder-x")
	require.Error(t, err)
	assert.Equal(t, KindExternal, KindOf(err))

	// The balance is restored and remains claimable.
	balance, err := env.engine.CheckAvailableRefund("col-1", "bidder-x")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), balance)

	env.payout.failTransfer = nil
	amount, err := env.engine.ClaimRefund(context.Background(), "col-1", "bidder-x")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), amount)
}
