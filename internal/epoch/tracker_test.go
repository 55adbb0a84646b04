package epoch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phoenix-ledger/tasm/internal/model"
)

func TestTracker_Lifecycle(t *testing.T) {
	tracker := NewTracker(50)

	require.NoError(t, tracker.Open(1, 100))
	require.NoError(t, tracker.SubmitAttestation(1, "val-a", 198))
	require.NoError(t, tracker.SubmitAttestation(1, "val-b", 200))
	require.NoError(t, tracker.SubmitAttestation(1, "val-c", 204))

	median, err := tracker.Finalize(1, 150)
	require.NoError(t, err)
	assert.Equal(t, model.Slot(200), median)

	epoch, err := tracker.Epoch(1)
	require.NoError(t, err)
	assert.Equal(t, StatusFinalized, epoch.Status)
	assert.Equal(t, model.Slot(200), epoch.MedianTime)

	trusted, ok := tracker.TrustedSlot()
	assert.True(t, ok)
	assert.Equal(t, model.Slot(200), trusted)
}

func TestTracker_NoTrustedSlotBeforeFinalization(t *testing.T) {
	tracker := NewTracker(50)

	_, ok := tracker.TrustedSlot()
	assert.False(t, ok)
}

func TestTracker_Open_DuplicateIndex(t *testing.T) {
	tracker := NewTracker(50)

	require.NoError(t, tracker.Open(1, 100))
	assert.Error(t, tracker.Open(1, 100))
}

func TestTracker_SubmitAttestation_Duplicate(t *testing.T) {
	tracker := NewTracker(50)
	require.NoError(t, tracker.Open(1, 100))

	require.NoError(t, tracker.SubmitAttestation(1, "val-a", 200))
	err := tracker.SubmitAttestation(1, "val-a", 201)
	assert.True(t, IsDuplicateAttestation(err))

	epoch, gerr := tracker.Epoch(1)
	require.NoError(t, gerr)
	assert.Len(t, epoch.Attestations, 1)
}

func TestTracker_SubmitAttestation_UnknownEpoch(t *testing.T) {
	tracker := NewTracker(50)

	err := tracker.SubmitAttestation(9, "val-a", 200)
	assert.True(t, IsUnknownEpoch(err))
}

func TestTracker_Finalize_WindowStillOpen(t *testing.T) {
	tracker := NewTracker(50)
	require.NoError(t, tracker.Open(1, 100))
	require.NoError(t, tracker.SubmitAttestation(1, "val-a", 200))

	_, err := tracker.Finalize(1, 149)
	assert.True(t, IsChallengeWindowOpen(err))

	epoch, gerr := tracker.Epoch(1)
	require.NoError(t, gerr)
	assert.Equal(t, StatusPending, epoch.Status, "failed finalization leaves the epoch pending")
}

func TestTracker_Finalize_NoAttestations(t *testing.T) {
	tracker := NewTracker(50)
	require.NoError(t, tracker.Open(1, 100))

	_, err := tracker.Finalize(1, 150)
	assert.True(t, IsNoAttestations(err))
}

func TestTracker_Finalize_LowerMedianOfEvenCount(t *testing.T) {
	tracker := NewTracker(0)
	require.NoError(t, tracker.Open(1, 0))
	require.NoError(t, tracker.SubmitAttestation(1, "val-a", 100))
	require.NoError(t, tracker.SubmitAttestation(1, "val-b", 500))

	median, err := tracker.Finalize(1, 0)
	require.NoError(t, err)
	assert.Equal(t, model.Slot(100), median, "even count takes the lower median")
}

func TestTracker_Challenge_BlocksFinalization(t *testing.T) {
	tracker := NewTracker(50)
	require.NoError(t, tracker.Open(1, 100))
	require.NoError(t, tracker.SubmitAttestation(1, "val-a", 200))
	require.NoError(t, tracker.Challenge(1))

	_, err := tracker.Finalize(1, 150)
	assert.True(t, IsEpochNotPending(err))

	err = tracker.SubmitAttestation(1, "val-b", 201)
	assert.True(t, IsEpochNotPending(err))

	_, ok := tracker.TrustedSlot()
	assert.False(t, ok, "challenged epoch contributes nothing to trusted time")
}

func TestTracker_TrustedSlot_Monotonic(t *testing.T) {
	tracker := NewTracker(0)

	require.NoError(t, tracker.Open(1, 0))
	require.NoError(t, tracker.SubmitAttestation(1, "val-a", 500))
	_, err := tracker.Finalize(1, 0)
	require.NoError(t, err)

	// A later epoch finalizing with an earlier median must not pull the
	// trusted slot backward.
	require.NoError(t, tracker.Open(2, 0))
	require.NoError(t, tracker.SubmitAttestation(2, "val-a", 300))
	_, err = tracker.Finalize(2, 0)
	require.NoError(t, err)

	trusted, ok := tracker.TrustedSlot()
	assert.True(t, ok)
	assert.Equal(t, model.Slot(500), trusted)
}
