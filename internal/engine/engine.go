package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phoenix-ledger/tasm/internal/ledger"
	"github.com/phoenix-ledger/tasm/internal/model"
)

// Engine is the absence engine: a sequential catch-up state machine over
// one ledger registry and one current-slot counter.
//
// All persistent facts live in the registry; the only engine-internal
// state is the slot clock.
//
// INVARIANTS (hold after every AdvanceTime call):
//   - Every intent with deadline < target at entry is either already a
//     recorded absence or appears in this call's result batch
//   - No intent appears in two result batches across the engine's lifetime
//   - The active set contains precisely the intents with deadline >= target
//     that were active at entry
//   - AdvanceTime(CurrentSlot()) is a no-op: empty batch, nothing mutated
type Engine struct {
	registry ledger.Registry
	clock    *SlotClock
}

// New creates an engine that takes ownership of the given registry,
// positioned at startSlot.
//
// The registry has no independent lifecycle after this point: it is
// mutated only through engine-mediated sweeps or registration calls made
// between AdvanceTime invocations.
func New(registry ledger.Registry, startSlot model.Slot) *Engine {
	return &Engine{
		registry: registry,
		clock:    NewSlotClock(startSlot),
	}
}

// CurrentSlot returns the engine's current slot.
func (e *Engine) CurrentSlot() model.Slot {
	return e.clock.Current()
}

// Registry returns the engine's ledger registry.
// Used by the registration path and by diagnostics; sweeps remain the
// engine's exclusive responsibility.
func (e *Engine) Registry() ledger.Registry {
	return e.registry
}

// AdvanceTime advances the engine's clock to target and crystallizes every
// active intent whose deadline has elapsed.
//
// The sweep predicate (deadline < target) is evaluated against the
// destination slot only. No per-slot iteration occurs: a single call
// across a gap of any width is equivalent to the same advances made one
// slot at a time.
//
// The returned batch contains every newly crystallized absence, ordered by
// ascending intent ID, each exactly once. Advancing to the current slot
// returns an empty batch and mutates nothing.
//
// On NonMonotonicTimeError or any storage failure the current slot is not
// advanced, so the caller may retry safely: intents crystallized before
// the failure are already out of the active set, and the retry sweeps the
// remainder.
func (e *Engine) AdvanceTime(ctx context.Context, target model.Slot) ([]model.Absence, error) {
	current := e.clock.Current()
	if target < current {
		return nil, &NonMonotonicTimeError{Current: current, Target: target}
	}

	batch := []model.Absence{}
	if target == current {
		// Fixed point: nothing can have become overdue.
		return batch, nil
	}

	active, err := e.registry.ActiveIntents(ctx)
	if err != nil {
		return nil, fmt.Errorf("advance to slot %d: query active set: %w", target, err)
	}

	for _, intent := range active {
		if intent.Deadline >= target {
			continue
		}

		absence, err := e.registry.Crystallize(ctx, intent, target)
		if err != nil {
			// Slot not advanced: a retry re-evaluates the same sweep.
			return nil, fmt.Errorf("advance to slot %d: crystallize intent %s: %w", target, intent.ID, err)
		}

		slog.Debug("absence crystallized",
			"intent_id", absence.IntentID,
			"creator", intent.Creator,
			"deadline", intent.Deadline,
			"collateral", intent.Collateral,
			"declared_at", absence.DeclaredAt,
		)
		batch = append(batch, absence)
	}

	if err := e.clock.AdvanceTo(target); err != nil {
		return nil, err
	}

	slog.Info("time advanced",
		"from_slot", current,
		"to_slot", target,
		"crystallized", len(batch),
		"active_remaining", len(active)-len(batch),
	)
	return batch, nil
}
