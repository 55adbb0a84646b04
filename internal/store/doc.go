// Package store provides the SQLite-backed implementation of the ledger
// registry, used by the CLI and any host binding that needs durable state.
//
// The store holds:
//   - accounts: account balances (slashing and seeding are the only writers)
//   - intents: every intent ever registered, with status active|crystallized
//   - absences: crystallized absence records keyed by intent ID
//   - engine_state: the persisted current slot and slash policy, so a CLI
//     invocation resumes exactly where the previous one stopped, under the
//     policy the ledger was initialized with
//
// Crystallized intents are never deleted, only marked: the primary key on
// intents(id) is what makes duplicate detection cover both the active set
// and already-crystallized commitments, and the archived rows let the host
// binding enrich absence notifications with creator and collateral.
//
// # Atomicity
//
// Crystallize runs remove + slash + record in a single transaction. A crash
// mid-sweep can therefore never leave an intent removed from the active set
// without its balance slashed, or slashed without the absence recorded.
//
// # Determinism
//
// All list queries order by intent ID (ORDER BY id ASC) so sweeps and
// traces are reproducible across runs.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
package store
