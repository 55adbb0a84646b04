// Package host implements the host-binding side of the machine: the
// runtime that drives the absence engine once per host time-step and turns
// its results into notification events.
//
// The core engine is deliberately agnostic about two host concerns, and
// both surface here as configuration rather than being silently picked:
//
//   - What "now" is. The runtime consumes a trusted slot per tick; deriving
//     it (directly from block height, or through the attestation epochs in
//     internal/epoch) is the caller's choice.
//   - Whether registration rejects deadlines already in the past. Host
//     integrations of this machine have historically disagreed on this
//     check, so Config.RejectPastDeadlines makes it explicit.
//
// The runtime serializes registrations against in-flight sweeps with a
// single-writer lock, so an intent can neither be registered with an
// already-elapsed deadline mid-sweep nor observed half-written.
package host
