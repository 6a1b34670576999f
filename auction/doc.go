// Package auction implements a sealed-bid, variable-supply auction engine
// for extensible digital editions.
//
// # Auction Lifecycle
//
// A seller opens an auction over a collection. The auction moves through
// phases derived purely from stored time boundaries; there are no timers,
// and every phase check compares the boundaries against a caller-supplied
// clock at the moment of the call:
//
//  1. Bidding: participants escrow a payment and publish a commitment,
//     a one-way digest binding their true bid amount to a secret salt.
//     The true amount stays hidden; the escrow only bounds it from above.
//
//  2. Reveal: participants open their commitments. The engine verifies the
//     digest and that the revealed amount fits within the escrowed balance,
//     then records the bidder in an append-only reveal-order index.
//
//  3. Settlement: after observing the revealed distribution, the seller
//     picks a price point. Every revealed bid at or above the price wins
//     one unit; the edition size is exactly the winner count. Winners pay
//     the price point out of their escrow, the remainder stays refundable.
//     The engine drives the external issuance (minting) and payout
//     collaborators; any collaborator failure rolls the ledger back.
//
//  4. Refund: non-winners and winners with excess escrow claim their
//     remaining balance. Balances are zeroed before the external transfer
//     and every claim pays at most once.
//
// # Concurrency
//
// Each public operation executes as a single atomic step under the engine
// mutex. Operations that call out to a collaborator commit their own state
// first and hold a per-auction busy flag for the duration of the external
// call, so reentrant operations on the same auction fail fast instead of
// observing partial state.
//
// # Accounting
//
// All monetary fields are uint64 with overflow-checked arithmetic; an
// operation that would overflow fails instead of wrapping. At every point,
// the sum of bid balances plus the revenue and refunds already paid out
// equals the sum of all payments ever escrowed into the auction.
package auction
