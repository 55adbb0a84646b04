package host

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/phoenix-ledger/tasm/internal/engine"
	"github.com/phoenix-ledger/tasm/internal/ledger"
	"github.com/phoenix-ledger/tasm/internal/model"
)

// DeadlineInPastError reports a registration whose deadline is not ahead of
// the engine's current slot, under Config.RejectPastDeadlines.
type DeadlineInPastError struct {
	Deadline model.Slot
	Current  model.Slot
}

func (e *DeadlineInPastError) Error() string {
	return fmt.Sprintf("deadline in past: slot %d is not ahead of current slot %d", e.Deadline, e.Current)
}

// IsDeadlineInPast reports whether err is a DeadlineInPastError.
func IsDeadlineInPast(err error) bool {
	var de *DeadlineInPastError
	return errors.As(err, &de)
}

// Config holds host-side policy choices the core engine stays agnostic to.
type Config struct {
	// RejectPastDeadlines makes Declare fail with DeadlineInPastError
	// when the deadline is not strictly ahead of the current slot.
	// Off by default; such intents then crystallize on the next tick.
	RejectPastDeadlines bool
}

// Runtime drives one absence engine from a host clock.
//
// It owns the engine and its registry behind a single-writer mutex:
// registrations from external actors are serialized against in-flight
// sweeps, so a sweep can neither miss a freshly registered overdue intent
// nor observe a half-written registration.
type Runtime struct {
	mu       sync.Mutex
	engine   *engine.Engine
	registry ledger.Registry
	notifier Notifier
	tokens   TokenGenerator
	config   Config
}

// NewRuntime creates a runtime around an engine.
// A nil notifier defaults to SlogNotifier; a nil generator defaults to
// UUIDv7Generator.
func NewRuntime(eng *engine.Engine, notifier Notifier, tokens TokenGenerator, config Config) *Runtime {
	if notifier == nil {
		notifier = SlogNotifier{}
	}
	if tokens == nil {
		tokens = UUIDv7Generator{}
	}
	return &Runtime{
		engine:   eng,
		registry: eng.Registry(),
		notifier: notifier,
		tokens:   tokens,
		config:   config,
	}
}

// CurrentSlot returns the engine's current slot.
func (r *Runtime) CurrentSlot() model.Slot {
	return r.engine.CurrentSlot()
}

// Declare registers a new intent and emits one IntentDeclared event.
//
// A failed registration leaves no partial record and emits nothing.
func (r *Runtime) Declare(ctx context.Context, creator model.AccountRef, description string, deadline model.Slot, collateral uint64) (model.Intent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.config.RejectPastDeadlines {
		if current := r.engine.CurrentSlot(); deadline <= current {
			return model.Intent{}, &DeadlineInPastError{Deadline: deadline, Current: current}
		}
	}

	intent := model.NewIntent(creator, description, deadline, collateral)
	if err := r.registry.AddIntent(ctx, intent); err != nil {
		return model.Intent{}, fmt.Errorf("declare intent: %w", err)
	}

	r.notifier.IntentDeclared(IntentDeclared{
		EventID:  r.tokens.Generate(),
		IntentID: intent.ID,
		Account:  intent.Creator,
		Deadline: intent.Deadline,
	})
	return intent, nil
}

// Tick advances the engine to trustedSlot and emits one
// AbsenceCrystallized event per newly crystallized absence.
//
// Called once per host time-step (e.g., once per block). The trusted slot
// is whatever the host has established as "now"; see internal/epoch for
// one way to derive it.
func (r *Runtime) Tick(ctx context.Context, trustedSlot model.Slot) ([]model.Absence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	batch, err := r.engine.AdvanceTime(ctx, trustedSlot)
	if err != nil {
		return nil, fmt.Errorf("tick to slot %d: %w", trustedSlot, err)
	}

	for _, absence := range batch {
		intent, err := r.registry.Intent(ctx, absence.IntentID)
		if err != nil {
			// The intent was crystallized in this very sweep, so it must
			// be addressable; a miss means the backing store is broken.
			return batch, fmt.Errorf("tick to slot %d: lookup crystallized intent %s: %w", trustedSlot, absence.IntentID, err)
		}
		r.notifier.AbsenceCrystallized(AbsenceCrystallized{
			EventID:       r.tokens.Generate(),
			IntentID:      absence.IntentID,
			Account:       intent.Creator,
			SlashedAmount: intent.Collateral,
			DeclaredAt:    absence.DeclaredAt,
		})
	}
	return batch, nil
}
