// Package engine implements the absence engine: the catch-up state machine
// that advances logical time and crystallizes overdue intents.
//
// The engine is the heart of TASM. It owns one ledger registry and one
// current-slot counter, and exposes a single mutating operation,
// AdvanceTime, which moves the machine from its current slot to an
// arbitrary later slot.
//
// ARCHITECTURE:
//
// Gap-Independent Sweep:
// AdvanceTime never iterates over intermediate slots. The sweep predicate
// (deadline < target) is evaluated once, directly against the destination
// slot, so a single call from slot 100 to slot 10100 produces exactly the
// state that 10000 one-slot advances would have produced collectively.
// The cost of a call is proportional to the size of the active set, not to
// the width of the time gap.
//
// Exactly-Once Crystallization:
// Crystallization removes the intent from the active set as part of the
// same transactional unit that slashes and records the absence. A later
// sweep can therefore never observe the intent again: no intent appears in
// two result batches across the engine's lifetime.
//
// Failure Semantics:
// On any storage failure the current-slot counter is NOT advanced. A retry
// re-evaluates the same, still-correct sweep; intents crystallized before
// the failure are already out of the active set, so the retry completes the
// remainder without double-slashing.
//
// Sequential State Machine:
// Exactly one AdvanceTime call is in flight at a time against a given
// engine, driven by a single external clock source (a host runtime's tick
// loop or a test harness). Registrations performed between calls must be
// serialized against in-flight sweeps by the caller; internal/host does
// this with a single-writer lock.
package engine
