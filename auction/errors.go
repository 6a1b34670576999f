package auction

import "errors"

// Kind classifies engine errors for callers that map them onto a transport
// (HTTP status codes, exit codes) without matching every sentinel.
type Kind int

const (
	// KindValidation covers malformed or out-of-range arguments.
	KindValidation Kind = iota + 1
	// KindState covers operations that are valid in general but not against
	// the current auction state: wrong phase, duplicates, missing records.
	KindState
	// KindIntegrity covers reveal failures: commitment mismatches and
	// amounts exceeding escrow.
	KindIntegrity
	// KindAuthorization covers callers acting on auctions they do not own.
	KindAuthorization
	// KindExternal covers issuance/payout collaborator failures.
	KindExternal
)

// String returns a stable name for the error kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindState:
		return "state"
	case KindIntegrity:
		return "integrity"
	case KindAuthorization:
		return "authorization"
	case KindExternal:
		return "external"
	}
	return "unknown"
}

// Error is the engine error type. Every failed operation returns an *Error
// (possibly wrapping a collaborator error) and leaves state unchanged.
type Error struct {
	kind  Kind
	msg   string
	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

// Unwrap returns the wrapped collaborator error, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Kind returns the error classification.
func (e *Error) Kind() Kind {
	return e.kind
}

// KindOf returns the classification of err, or zero if err did not
// originate in this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return 0
}

var (
	// ErrAuctionExists is returned when creating an auction for a
	// collection that already has one.
	ErrAuctionExists = &Error{kind: KindState, msg: "auction already exists for collection"}

	// ErrAuctionNotFound is returned when no auction exists for the collection.
	ErrAuctionNotFound = &Error{kind: KindState, msg: "no auction for collection"}

	// ErrNoFundsRecipient is returned when an auction is created without a
	// funds recipient.
	ErrNoFundsRecipient = &Error{kind: KindValidation, msg: "funds recipient must be set"}

	// ErrNegativeDuration is returned when a phase duration is negative.
	ErrNegativeDuration = &Error{kind: KindValidation, msg: "phase duration must not be negative"}

	// ErrWrongPhase is returned when the operation is not allowed in the
	// auction's current phase.
	ErrWrongPhase = &Error{kind: KindState, msg: "operation not allowed in current phase"}

	// ErrDuplicateBid is returned when the caller already holds a bid in
	// this auction.
	ErrDuplicateBid = &Error{kind: KindState, msg: "bid already placed"}

	// ErrZeroPayment is returned when a bid escrows no payment.
	ErrZeroPayment = &Error{kind: KindValidation, msg: "payment must be positive"}

	// ErrNoBid is returned when the caller has no bid to reveal.
	ErrNoBid = &Error{kind: KindState, msg: "no bid placed"}

	// ErrAlreadyRevealed is returned when the caller's bid was already revealed.
	ErrAlreadyRevealed = &Error{kind: KindState, msg: "bid already revealed"}

	// ErrAmountExceedsEscrow is returned when a revealed amount is larger
	// than the escrowed balance backing it.
	ErrAmountExceedsEscrow = &Error{kind: KindIntegrity, msg: "revealed amount exceeds escrowed balance"}

	// ErrCommitmentMismatch is returned when the revealed amount and salt
	// do not open the stored commitment.
	ErrCommitmentMismatch = &Error{kind: KindIntegrity, msg: "revealed bid does not match commitment"}

	// ErrAlreadySettled is returned when the auction was already settled.
	ErrAlreadySettled = &Error{kind: KindState, msg: "auction already settled"}

	// ErrNotSeller is returned when a seller-only operation is called by
	// another account.
	ErrNotSeller = &Error{kind: KindAuthorization, msg: "caller is not the auction seller"}

	// ErrEscrowHeld is returned when cancellation is attempted while any
	// escrow remains in the auction.
	ErrEscrowHeld = &Error{kind: KindState, msg: "auction holds escrowed funds"}

	// ErrNothingToClaim is returned when the caller has no refundable balance.
	ErrNothingToClaim = &Error{kind: KindState, msg: "no refundable balance"}

	// ErrAuctionBusy is returned when another operation on the same auction
	// is mid-flight through an external collaborator call.
	ErrAuctionBusy = &Error{kind: KindState, msg: "auction operation in progress"}

	// ErrAmountOverflow is returned when a monetary operation would
	// overflow the bounded-width accounting fields.
	ErrAmountOverflow = &Error{kind: KindValidation, msg: "amount overflows accounting range"}
)

// externalFailure wraps a collaborator error so settlement and refund
// failures carry the external classification.
func externalFailure(msg string, cause error) *Error {
	return &Error{kind: KindExternal, msg: msg, cause: cause}
}
