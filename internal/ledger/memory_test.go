package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phoenix-ledger/tasm/internal/model"
)

func TestMemoryRegistry_AddIntent(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry()

	intent := model.NewIntent("alice", "Alice pays Bob 100", 10, 1000)
	require.NoError(t, r.AddIntent(ctx, intent))

	active, err := r.ActiveIntents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Intent{intent}, active)
}

func TestMemoryRegistry_AddIntent_DuplicateActive(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry()

	intent := model.NewIntent("alice", "Alice pays Bob 100", 10, 1000)
	require.NoError(t, r.AddIntent(ctx, intent))

	// Identical fields hash to the same ID.
	err := r.AddIntent(ctx, model.NewIntent("alice", "Alice pays Bob 100", 10, 1000))
	assert.True(t, IsDuplicateIntent(err))

	active, err := r.ActiveIntents(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1, "failed registration must not create a second entry")
}

func TestMemoryRegistry_AddIntent_DuplicateCrystallized(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry()

	intent := model.NewIntent("alice", "Alice pays Bob 100", 10, 1000)
	require.NoError(t, r.SetBalance(ctx, "alice", 2000))
	require.NoError(t, r.AddIntent(ctx, intent))

	_, err := r.Crystallize(ctx, intent, 12)
	require.NoError(t, err)

	// Re-submission after crystallization must not reset slashing liability.
	err = r.AddIntent(ctx, intent)
	assert.True(t, IsDuplicateIntent(err))
}

func TestMemoryRegistry_ActiveIntents_OrderedByID(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry()

	a := model.NewIntent("alice", "first", 10, 100)
	b := model.NewIntent("bob", "second", 20, 200)
	c := model.NewIntent("carol", "third", 30, 300)
	for _, intent := range []model.Intent{c, a, b} {
		require.NoError(t, r.AddIntent(ctx, intent))
	}

	active, err := r.ActiveIntents(ctx)
	require.NoError(t, err)
	require.Len(t, active, 3)
	assert.Less(t, active[0].ID, active[1].ID)
	assert.Less(t, active[1].ID, active[2].ID)
}

func TestMemoryRegistry_Intent_ActiveAndArchived(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry()

	intent := model.NewIntent("alice", "Alice pays Bob 100", 10, 1000)
	require.NoError(t, r.AddIntent(ctx, intent))

	got, err := r.Intent(ctx, intent.ID)
	require.NoError(t, err)
	assert.Equal(t, intent, got)

	_, err = r.Crystallize(ctx, intent, 12)
	require.NoError(t, err)

	// Crystallized intents stay addressable for absence notifications.
	got, err = r.Intent(ctx, intent.ID)
	require.NoError(t, err)
	assert.Equal(t, intent, got)

	_, err = r.Intent(ctx, model.IntentID("deadbeef"))
	assert.True(t, IsNotFound(err))
}

func TestMemoryRegistry_RemoveActive_NotFound(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry()

	err := r.RemoveActive(ctx, model.IntentID("missing"))
	assert.True(t, IsNotFound(err))
}

func TestMemoryRegistry_Balance_UnseededIsZero(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry()

	balance, err := r.Balance(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), balance)
}

func TestMemoryRegistry_Slash_Deducts(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry()
	require.NoError(t, r.SetBalance(ctx, "alice", 2000))

	require.NoError(t, r.Slash(ctx, "alice", 1000))

	balance, err := r.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), balance)
}

func TestMemoryRegistry_Slash_SaturatesAtZero(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry()
	require.NoError(t, r.SetBalance(ctx, "alice", 500))

	require.NoError(t, r.Slash(ctx, "alice", 1000))

	balance, err := r.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), balance, "saturate policy clamps at zero, never wraps")
}

func TestMemoryRegistry_Slash_StrictRefuses(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistryWithPolicy(SlashStrict)
	require.NoError(t, r.SetBalance(ctx, "alice", 500))

	err := r.Slash(ctx, "alice", 1000)
	assert.True(t, IsInsufficientBalance(err))

	balance, berr := r.Balance(ctx, "alice")
	require.NoError(t, berr)
	assert.Equal(t, uint64(500), balance, "refused slash must not mutate the balance")
}

func TestMemoryRegistry_Crystallize(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry()

	intent := model.NewIntent("alice", "Alice pays Bob 100", 10, 1000)
	require.NoError(t, r.SetBalance(ctx, "alice", 2000))
	require.NoError(t, r.AddIntent(ctx, intent))

	absence, err := r.Crystallize(ctx, intent, 12)
	require.NoError(t, err)
	assert.Equal(t, intent.ID, absence.IntentID)
	assert.Equal(t, model.Slot(12), absence.DeclaredAt)

	active, err := r.ActiveIntents(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	balance, err := r.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), balance)

	absences, err := r.Absences(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Absence{absence}, absences)
}

func TestMemoryRegistry_Crystallize_NotActive(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry()

	intent := model.NewIntent("alice", "never registered", 10, 1000)
	_, err := r.Crystallize(ctx, intent, 12)
	assert.True(t, IsNotFound(err))
}

func TestMemoryRegistry_Crystallize_StrictRefusalLeavesIntentActive(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistryWithPolicy(SlashStrict)

	intent := model.NewIntent("alice", "underfunded", 10, 1000)
	require.NoError(t, r.SetBalance(ctx, "alice", 100))
	require.NoError(t, r.AddIntent(ctx, intent))

	_, err := r.Crystallize(ctx, intent, 12)
	assert.True(t, IsInsufficientBalance(err))

	// No partial transition: still active, balance intact, no absence.
	active, aerr := r.ActiveIntents(ctx)
	require.NoError(t, aerr)
	assert.Len(t, active, 1)

	balance, berr := r.Balance(ctx, "alice")
	require.NoError(t, berr)
	assert.Equal(t, uint64(100), balance)

	absences, oerr := r.Absences(ctx)
	require.NoError(t, oerr)
	assert.Empty(t, absences)
}
