// Package crypto provides the commitment primitives for the sealed-bid
// auction engine.
//
// A bidder publishes a commitment at bid time: a one-way digest binding the
// true bid amount to a secret salt. The engine stores only the digest; the
// amount and salt stay with the bidder until the reveal phase, when the
// engine recomputes the digest and compares.
//
// Commitments use SHA3-256 over the big-endian encoded amount followed by
// the raw salt bytes. The salt is an arbitrary caller-chosen byte string and
// is never persisted by the engine.
package crypto
