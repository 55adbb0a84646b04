package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phoenix-ledger/tasm/internal/model"
)

func TestSlotClock_NewSlotClock(t *testing.T) {
	c := NewSlotClock(100)
	assert.Equal(t, model.Slot(100), c.Current(), "clock should start at the given slot")
}

func TestSlotClock_AdvanceTo_Forward(t *testing.T) {
	c := NewSlotClock(0)

	assert.NoError(t, c.AdvanceTo(5))
	assert.Equal(t, model.Slot(5), c.Current())

	assert.NoError(t, c.AdvanceTo(10100))
	assert.Equal(t, model.Slot(10100), c.Current())
}

func TestSlotClock_AdvanceTo_SameSlotIsNoop(t *testing.T) {
	c := NewSlotClock(7)

	assert.NoError(t, c.AdvanceTo(7))
	assert.Equal(t, model.Slot(7), c.Current())
}

func TestSlotClock_AdvanceTo_BackwardRejected(t *testing.T) {
	c := NewSlotClock(10)

	err := c.AdvanceTo(9)
	assert.True(t, IsNonMonotonicTime(err))
	assert.Equal(t, model.Slot(10), c.Current(), "rejected advance must not move the clock")
}

func TestSlotClock_Current_DoesNotMove(t *testing.T) {
	c := NewSlotClock(3)

	assert.Equal(t, model.Slot(3), c.Current())
	assert.Equal(t, model.Slot(3), c.Current())
}
