// Package governanceengine implements the proposal registry and the voting
// and execution engine inside the governance-core context.
//
// The module owns the proposal lifecycle (create, weighted vote, admin
// finalize), the one-vote-per-account-per-proposal rule, and the outbox-backed
// notification stream. Vote weight is the voter's ledger balance read at vote
// time. Business rules live in application/domain layers; infrastructure sits
// behind ports and adapters.
package governanceengine
