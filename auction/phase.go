package auction

import "time"

// Clock supplies the current time to the engine. The engine runs no timers
// of its own: every phase check compares stored boundaries to the clock at
// the moment of the call.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the host wall clock.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time { return time.Now() }

// Phase is the auction lifecycle phase derived from the stored boundaries.
type Phase int

const (
	// PhasePending is before the auction's start time. Bids are already
	// accepted; the start time only anchors the phase boundaries.
	PhasePending Phase = iota
	// PhaseBidding accepts sealed bids with escrowed payments.
	PhaseBidding
	// PhaseReveal accepts commitment openings.
	PhaseReveal
	// PhaseSettlement accepts the seller's settlement call.
	PhaseSettlement
	// PhaseClosed is past the end of the settle phase.
	PhaseClosed
)

// String returns a stable name for the phase.
func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseBidding:
		return "bidding"
	case PhaseReveal:
		return "reveal"
	case PhaseSettlement:
		return "settlement"
	case PhaseClosed:
		return "closed"
	}
	return "unknown"
}

// PhaseAt resolves the auction phase at the given instant.
func (a *Auction) PhaseAt(now time.Time) Phase {
	switch {
	case now.Before(a.StartTime):
		return PhasePending
	case now.Before(a.EndOfBidPhase):
		return PhaseBidding
	case now.Before(a.EndOfRevealPhase):
		return PhaseReveal
	case now.Before(a.EndOfSettlePhase):
		return PhaseSettlement
	default:
		return PhaseClosed
	}
}
