// Package services provides the external collaborators consumed by the
// auction engine and persistence for its emitted records.
//
// The engine core owns the escrow ledger and settlement algorithm; this
// package supplies everything around it for real deployments:
//
//   - HTTPIssuanceClient: drives a remote item-issuance service that fixes
//     edition sizes and mints units to winners.
//   - HTTPPayoutClient: drives a remote payout service that applies fee and
//     royalty deductions and performs the currency transfer (native or
//     token, selected by currency id).
//   - MemoryEventStore and PostgresEventStore: event sinks persisting one
//     record per engine operation, queryable by collection.
//
// All collaborators speak JSON over HTTP and treat any non-OK response as
// a failure, which the engine maps to a full settlement rollback.
package services
