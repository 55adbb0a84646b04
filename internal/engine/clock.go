package engine

import (
	"sync/atomic"

	"github.com/phoenix-ledger/tasm/internal/model"
)

// SlotClock is the engine's monotonic notion of current logical time.
//
// Unlike a wall clock it only moves when the engine is told to move it,
// and it never moves backward. All deadline comparisons are made against
// this counter, never against wall time.
//
// Thread-safety: SlotClock is safe for concurrent reads (atomic load).
// AdvanceTo is called only from the engine's sweep path.
type SlotClock struct {
	slot atomic.Uint64
}

// NewSlotClock creates a clock positioned at start.
func NewSlotClock(start model.Slot) *SlotClock {
	c := &SlotClock{}
	c.slot.Store(start)
	return c
}

// Current returns the clock's position without moving it.
func (c *SlotClock) Current() model.Slot {
	return c.slot.Load()
}

// AdvanceTo moves the clock forward to target.
// Returns NonMonotonicTimeError if target is behind the current position;
// the clock is not moved. Advancing to the current position is a no-op.
func (c *SlotClock) AdvanceTo(target model.Slot) error {
	current := c.slot.Load()
	if target < current {
		return &NonMonotonicTimeError{Current: current, Target: target}
	}
	c.slot.Store(target)
	return nil
}
