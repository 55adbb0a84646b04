// Package ledger defines the storage capability contract for the
// Time-Absence State Machine, and provides the in-memory reference
// implementation.
//
// The Registry interface decouples the absence engine from any specific
// backing store. Two implementations exist:
//   - MemoryRegistry (this package): process-resident maps, used for
//     simulation and as the default backend in tests
//   - store.Store (internal/store): SQLite-backed, used by the CLI
//
// # Slash Policy
//
// Slashing deducts an intent's full collateral from its creator's balance.
// Unsigned underflow would be a fund-creation bug, so every backend applies
// one uniform, explicit policy chosen at construction:
//   - SlashSaturate: clamp the balance at zero
//   - SlashStrict: fail with InsufficientBalanceError, mutating nothing
//
// # Duplicate Detection
//
// Intent identity is content-addressed, so re-submission of a byte-identical
// commitment is indistinguishable from a duplicate. AddIntent rejects an ID
// that is already active or already crystallized: re-registration must never
// reset or duplicate slashing liability.
package ledger
