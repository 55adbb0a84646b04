package engine

import (
	"errors"
	"fmt"

	"github.com/phoenix-ledger/tasm/internal/model"
)

// NonMonotonicTimeError reports an AdvanceTime call with a target slot
// behind the engine's current slot. Recoverable; no state was mutated.
type NonMonotonicTimeError struct {
	Current model.Slot
	Target  model.Slot
}

func (e *NonMonotonicTimeError) Error() string {
	return fmt.Sprintf("non-monotonic time: target slot %d is behind current slot %d", e.Target, e.Current)
}

// IsNonMonotonicTime reports whether err is a NonMonotonicTimeError.
// Uses errors.As to handle wrapped errors.
func IsNonMonotonicTime(err error) bool {
	var ne *NonMonotonicTimeError
	return errors.As(err, &ne)
}
