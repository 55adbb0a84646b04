package epoch

import (
	"errors"
	"fmt"

	"github.com/phoenix-ledger/tasm/internal/model"
)

// UnknownEpochError reports an operation against an epoch index that was
// never opened.
type UnknownEpochError struct {
	Index uint64
}

func (e *UnknownEpochError) Error() string {
	return fmt.Sprintf("unknown epoch: %d was never opened", e.Index)
}

// IsUnknownEpoch reports whether err is an UnknownEpochError.
func IsUnknownEpoch(err error) bool {
	var ue *UnknownEpochError
	return errors.As(err, &ue)
}

// EpochNotPendingError reports a mutation of an epoch that has left the
// Pending state.
type EpochNotPendingError struct {
	Index  uint64
	Status Status
}

func (e *EpochNotPendingError) Error() string {
	return fmt.Sprintf("epoch not pending: %d is %s", e.Index, e.Status)
}

// IsEpochNotPending reports whether err is an EpochNotPendingError.
func IsEpochNotPending(err error) bool {
	var ne *EpochNotPendingError
	return errors.As(err, &ne)
}

// DuplicateAttestationError reports a second attestation from the same
// validator for one epoch.
type DuplicateAttestationError struct {
	Index     uint64
	Validator string
}

func (e *DuplicateAttestationError) Error() string {
	return fmt.Sprintf("duplicate attestation: validator %s already attested for epoch %d", e.Validator, e.Index)
}

// IsDuplicateAttestation reports whether err is a DuplicateAttestationError.
func IsDuplicateAttestation(err error) bool {
	var de *DuplicateAttestationError
	return errors.As(err, &de)
}

// ChallengeWindowOpenError reports a finalization attempted before the
// epoch's challenge window closed.
type ChallengeWindowOpenError struct {
	Index        uint64
	ChallengeEnd model.Slot
	At           model.Slot
}

func (e *ChallengeWindowOpenError) Error() string {
	return fmt.Sprintf("challenge window open: epoch %d cannot finalize at slot %d, window closes at slot %d",
		e.Index, e.At, e.ChallengeEnd)
}

// IsChallengeWindowOpen reports whether err is a ChallengeWindowOpenError.
func IsChallengeWindowOpen(err error) bool {
	var ce *ChallengeWindowOpenError
	return errors.As(err, &ce)
}

// NoAttestationsError reports a finalization of an epoch with no
// attestations to take a median over.
type NoAttestationsError struct {
	Index uint64
}

func (e *NoAttestationsError) Error() string {
	return fmt.Sprintf("no attestations: epoch %d has nothing to finalize", e.Index)
}

// IsNoAttestations reports whether err is a NoAttestationsError.
func IsNoAttestations(err error) bool {
	var ne *NoAttestationsError
	return errors.As(err, &ne)
}
