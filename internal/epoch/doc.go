// Package epoch provides a host-side trusted-time tracker: validator
// attestations converge on a single agreed-upon timestamp per epoch, with
// a challenge window before that timestamp is treated as final.
//
// This is one way a host integration can derive the trusted slot it feeds
// into host.Runtime.Tick. The absence engine itself never sees epochs or
// attestations; it consumes a slot number and nothing else.
//
// An epoch moves through three states:
//
//	Pending ──(challenge window elapses, Finalize)──> Finalized
//	   │
//	   └──(Challenge before the window closes)──> Challenged
//
// Challenged epochs never finalize here; dispute resolution is a concern
// of the surrounding protocol. The tracker's trusted slot only advances
// when an epoch finalizes, and it advances monotonically.
//
// Signature verification over attestations is deliberately out of scope;
// a validator is trusted by virtue of the caller submitting on its behalf.
package epoch
