package ledger

import (
	"context"
	"sort"
	"sync"

	"github.com/phoenix-ledger/tasm/internal/model"
)

// MemoryRegistry is the in-memory reference implementation of Registry.
//
// Backed by process-resident maps; state does not survive the process.
// Used standalone for simulation and as the default backend in tests.
//
// Thread-safety: all methods are safe for concurrent use via an internal
// mutex. Crystallize holds the mutex across the whole remove + slash +
// record transition, so a concurrent reader never observes a half-applied
// crystallization.
type MemoryRegistry struct {
	mu       sync.Mutex
	policy   SlashPolicy
	balances map[model.AccountRef]uint64
	active   map[model.IntentID]model.Intent
	archived map[model.IntentID]model.Intent // crystallized intents, kept for lookups
	absences map[model.IntentID]model.Absence
}

// NewMemoryRegistry creates an empty in-memory registry with the
// SlashSaturate policy.
func NewMemoryRegistry() *MemoryRegistry {
	return NewMemoryRegistryWithPolicy(SlashSaturate)
}

// NewMemoryRegistryWithPolicy creates an empty in-memory registry with an
// explicit slash policy.
func NewMemoryRegistryWithPolicy(policy SlashPolicy) *MemoryRegistry {
	return &MemoryRegistry{
		policy:   policy,
		balances: make(map[model.AccountRef]uint64),
		active:   make(map[model.IntentID]model.Intent),
		archived: make(map[model.IntentID]model.Intent),
		absences: make(map[model.IntentID]model.Absence),
	}
}

// Policy returns the registry's slash policy.
func (r *MemoryRegistry) Policy() SlashPolicy {
	return r.policy
}

// AddIntent registers an intent into the active set.
// Rejects IDs already active or already crystallized: content-addressed
// identity means a byte-identical re-submission must not create a second
// slashing liability.
func (r *MemoryRegistry) AddIntent(ctx context.Context, intent model.Intent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.active[intent.ID]; ok {
		return &DuplicateIntentError{ID: intent.ID}
	}
	if _, ok := r.absences[intent.ID]; ok {
		return &DuplicateIntentError{ID: intent.ID}
	}

	r.active[intent.ID] = intent
	return nil
}

// ActiveIntents returns every active intent ordered by ascending ID.
func (r *MemoryRegistry) ActiveIntents(ctx context.Context) ([]model.Intent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	intents := make([]model.Intent, 0, len(r.active))
	for _, intent := range r.active {
		intents = append(intents, intent)
	}
	sort.Slice(intents, func(i, j int) bool { return intents[i].ID < intents[j].ID })
	return intents, nil
}

// Intent returns an intent whether active or crystallized.
func (r *MemoryRegistry) Intent(ctx context.Context, id model.IntentID) (model.Intent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if intent, ok := r.active[id]; ok {
		return intent, nil
	}
	if intent, ok := r.archived[id]; ok {
		return intent, nil
	}
	return model.Intent{}, &NotFoundError{ID: id}
}

// RemoveActive removes an intent from the active set.
func (r *MemoryRegistry) RemoveActive(ctx context.Context, id model.IntentID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeActiveLocked(id)
}

func (r *MemoryRegistry) removeActiveLocked(id model.IntentID) error {
	intent, ok := r.active[id]
	if !ok {
		return &NotFoundError{ID: id}
	}
	delete(r.active, id)
	r.archived[id] = intent
	return nil
}

// RecordAbsence stores a crystallized absence keyed by intent ID.
func (r *MemoryRegistry) RecordAbsence(ctx context.Context, absence model.Absence) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.absences[absence.IntentID] = absence
	return nil
}

// Absences returns every recorded absence ordered by ascending intent ID.
func (r *MemoryRegistry) Absences(ctx context.Context) ([]model.Absence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	absences := make([]model.Absence, 0, len(r.absences))
	for _, a := range r.absences {
		absences = append(absences, a)
	}
	sort.Slice(absences, func(i, j int) bool { return absences[i].IntentID < absences[j].IntentID })
	return absences, nil
}

// Balance returns the account's balance, zero for unseeded accounts.
func (r *MemoryRegistry) Balance(ctx context.Context, account model.AccountRef) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balances[account], nil
}

// SetBalance overwrites an account balance. Seeding only.
func (r *MemoryRegistry) SetBalance(ctx context.Context, account model.AccountRef, amount uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[account] = amount
	return nil
}

// Slash deducts amount from the account's balance under the registry's
// slash policy. The balance never underflows.
func (r *MemoryRegistry) Slash(ctx context.Context, account model.AccountRef, amount uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slashLocked(account, amount)
}

func (r *MemoryRegistry) slashLocked(account model.AccountRef, amount uint64) error {
	balance := r.balances[account]
	if amount > balance {
		if r.policy == SlashStrict {
			return &InsufficientBalanceError{Account: account, Balance: balance, Amount: amount}
		}
		r.balances[account] = 0
		return nil
	}
	r.balances[account] = balance - amount
	return nil
}

// Crystallize performs remove + slash + record as one unit under the
// registry mutex. Under SlashStrict a refused slash leaves the intent
// active and nothing recorded.
func (r *MemoryRegistry) Crystallize(ctx context.Context, intent model.Intent, declaredAt model.Slot) (model.Absence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.active[intent.ID]; !ok {
		return model.Absence{}, &NotFoundError{ID: intent.ID}
	}
	if err := r.slashLocked(intent.Creator, intent.Collateral); err != nil {
		return model.Absence{}, err
	}
	if err := r.removeActiveLocked(intent.ID); err != nil {
		return model.Absence{}, err
	}

	absence := model.Absence{IntentID: intent.ID, DeclaredAt: declaredAt}
	r.absences[intent.ID] = absence
	return absence, nil
}
