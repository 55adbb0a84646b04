package ledger

import (
	"context"

	"github.com/phoenix-ledger/tasm/internal/model"
)

// SlashPolicy controls how a backend behaves when an intent's collateral
// exceeds the creator's current balance.
type SlashPolicy int

const (
	// SlashSaturate clamps the balance at zero. This is the default:
	// a sweep is never blocked by an underfunded account.
	SlashSaturate SlashPolicy = iota

	// SlashStrict fails the deduction with InsufficientBalanceError and
	// mutates nothing. A sweep over an underfunded intent surfaces the
	// error to the caller.
	SlashStrict
)

// String returns the policy name for logging and diagnostics.
func (p SlashPolicy) String() string {
	switch p {
	case SlashSaturate:
		return "saturate"
	case SlashStrict:
		return "strict"
	default:
		return "unknown"
	}
}

// Registry is the ledger capability: the storage contract any backend must
// satisfy to host accounts, active intents, and crystallized absences.
//
// Implementations must guarantee:
//   - AddIntent rejects IDs already active or already crystallized
//   - ActiveIntents reflects all registrations and removals made strictly
//     before the call, in deterministic order (ascending intent ID)
//   - Slash applies the backend's SlashPolicy uniformly and never underflows
//   - Crystallize performs remove + slash + record as one transactional
//     unit: a crash cannot leave an intent removed but not slashed, or
//     slashed without its absence recorded
//
// Read methods have no side effects. All methods may return StorageError
// when the backing store fails; callers treat that as retryable.
type Registry interface {
	// AddIntent registers an intent into the active set, keyed by its
	// content-addressed ID. Returns DuplicateIntentError if the ID is
	// already active or already recorded as an absence. On failure no
	// partial record exists.
	AddIntent(ctx context.Context, intent model.Intent) error

	// ActiveIntents returns every intent currently in the active set,
	// ordered by ascending intent ID.
	ActiveIntents(ctx context.Context) ([]model.Intent, error)

	// Intent returns an intent by ID whether it is still active or has
	// already crystallized. Returns NotFoundError for unknown IDs.
	Intent(ctx context.Context, id model.IntentID) (model.Intent, error)

	// RemoveActive removes an intent from the active set. Removal is
	// idempotent: removing an absent ID returns NotFoundError but leaves
	// state untouched.
	RemoveActive(ctx context.Context, id model.IntentID) error

	// RecordAbsence durably stores a crystallized absence keyed by its
	// intent ID.
	RecordAbsence(ctx context.Context, absence model.Absence) error

	// Absences returns every recorded absence, ordered by ascending
	// intent ID.
	Absences(ctx context.Context) ([]model.Absence, error)

	// Balance returns the account's balance, zero for unseeded accounts.
	Balance(ctx context.Context, account model.AccountRef) (uint64, error)

	// SetBalance overwrites an account balance. Administrative seeding
	// only; never part of the slashing path.
	SetBalance(ctx context.Context, account model.AccountRef, amount uint64) error

	// Slash deducts amount from the account's balance under the backend's
	// SlashPolicy. Checked arithmetic: the balance never underflows.
	Slash(ctx context.Context, account model.AccountRef, amount uint64) error

	// Crystallize performs the terminal transition for an overdue intent:
	// remove from the active set, slash the creator's collateral, and
	// record the absence, atomically with respect to crashes. Returns the
	// recorded absence.
	Crystallize(ctx context.Context, intent model.Intent, declaredAt model.Slot) (model.Absence, error)
}
