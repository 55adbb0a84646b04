package epoch

import (
	"fmt"
	"sort"
	"sync"

	"github.com/phoenix-ledger/tasm/internal/model"
)

// Status is an epoch's position in its lifecycle.
type Status string

const (
	// StatusPending: gathering attestations.
	StatusPending Status = "pending"
	// StatusChallenged: under dispute; excluded from trusted time.
	StatusChallenged Status = "challenged"
	// StatusFinalized: accepted as truth.
	StatusFinalized Status = "finalized"
)

// Attestation is one validator's claim about the current time.
type Attestation struct {
	Validator string     `json:"validator"`
	Timestamp model.Slot `json:"timestamp"`
}

// Epoch is one round of time agreement.
type Epoch struct {
	Index        uint64        `json:"index"`
	Status       Status        `json:"status"`
	Attestations []Attestation `json:"attestations"`
	MedianTime   model.Slot    `json:"median_time"` // set on finalization
	ChallengeEnd model.Slot    `json:"challenge_end"`
}

// Tracker runs the epoch state machine and derives a monotonic trusted
// slot from finalized epochs.
//
// Thread-safety: all methods are safe for concurrent use via an internal
// mutex; validators attest from independent goroutines in a live host.
type Tracker struct {
	mu              sync.Mutex
	challengeWindow model.Slot
	epochs          map[uint64]*Epoch
	trustedSlot     model.Slot
	hasTrusted      bool
}

// NewTracker creates a tracker whose epochs finalize no earlier than
// challengeWindow slots after they open.
func NewTracker(challengeWindow model.Slot) *Tracker {
	return &Tracker{
		challengeWindow: challengeWindow,
		epochs:          make(map[uint64]*Epoch),
	}
}

// Open starts a new pending epoch at startSlot.
// The challenge window closes at startSlot + challengeWindow.
func (t *Tracker) Open(index uint64, startSlot model.Slot) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.epochs[index]; ok {
		return fmt.Errorf("epoch %d already open", index)
	}
	t.epochs[index] = &Epoch{
		Index:        index,
		Status:       StatusPending,
		ChallengeEnd: startSlot + t.challengeWindow,
	}
	return nil
}

// SubmitAttestation records one validator's timestamp claim for a pending
// epoch. A validator attests at most once per epoch.
func (t *Tracker) SubmitAttestation(index uint64, validator string, timestamp model.Slot) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	epoch, ok := t.epochs[index]
	if !ok {
		return &UnknownEpochError{Index: index}
	}
	if epoch.Status != StatusPending {
		return &EpochNotPendingError{Index: index, Status: epoch.Status}
	}
	for _, a := range epoch.Attestations {
		if a.Validator == validator {
			return &DuplicateAttestationError{Index: index, Validator: validator}
		}
	}

	epoch.Attestations = append(epoch.Attestations, Attestation{
		Validator: validator,
		Timestamp: timestamp,
	})
	return nil
}

// Challenge marks a pending epoch as disputed. A challenged epoch never
// contributes to trusted time.
func (t *Tracker) Challenge(index uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	epoch, ok := t.epochs[index]
	if !ok {
		return &UnknownEpochError{Index: index}
	}
	if epoch.Status != StatusPending {
		return &EpochNotPendingError{Index: index, Status: epoch.Status}
	}
	epoch.Status = StatusChallenged
	return nil
}

// Finalize accepts a pending epoch's attested time as truth.
//
// Requires the challenge window to have closed (at >= ChallengeEnd) and at
// least one attestation. The agreed time is the lower median of the
// attested timestamps, which bounds the influence of any single outlier.
// The tracker's trusted slot advances monotonically: a finalized median
// behind an earlier epoch's median does not move it backward.
func (t *Tracker) Finalize(index uint64, at model.Slot) (model.Slot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	epoch, ok := t.epochs[index]
	if !ok {
		return 0, &UnknownEpochError{Index: index}
	}
	if epoch.Status != StatusPending {
		return 0, &EpochNotPendingError{Index: index, Status: epoch.Status}
	}
	if at < epoch.ChallengeEnd {
		return 0, &ChallengeWindowOpenError{Index: index, ChallengeEnd: epoch.ChallengeEnd, At: at}
	}
	if len(epoch.Attestations) == 0 {
		return 0, &NoAttestationsError{Index: index}
	}

	timestamps := make([]model.Slot, len(epoch.Attestations))
	for i, a := range epoch.Attestations {
		timestamps[i] = a.Timestamp
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] < timestamps[j] })
	median := timestamps[(len(timestamps)-1)/2]

	epoch.MedianTime = median
	epoch.Status = StatusFinalized

	if !t.hasTrusted || median > t.trustedSlot {
		t.trustedSlot = median
	}
	t.hasTrusted = true
	return median, nil
}

// TrustedSlot returns the latest finalized median, with ok=false before
// any epoch has finalized.
func (t *Tracker) TrustedSlot() (slot model.Slot, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.trustedSlot, t.hasTrusted
}

// Epoch returns a copy of the epoch at index.
func (t *Tracker) Epoch(index uint64) (Epoch, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	epoch, ok := t.epochs[index]
	if !ok {
		return Epoch{}, &UnknownEpochError{Index: index}
	}
	out := *epoch
	out.Attestations = make([]Attestation, len(epoch.Attestations))
	copy(out.Attestations, epoch.Attestations)
	return out, nil
}
