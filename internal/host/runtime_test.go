package host

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phoenix-ledger/tasm/internal/engine"
	"github.com/phoenix-ledger/tasm/internal/ledger"
	"github.com/phoenix-ledger/tasm/internal/model"
)

func newTestRuntime(t *testing.T, startSlot model.Slot, config Config) (*Runtime, *ledger.MemoryRegistry, *CaptureNotifier) {
	t.Helper()
	r := ledger.NewMemoryRegistry()
	notifier := &CaptureNotifier{}
	tokens := NewFixedGenerator("evt-1", "evt-2", "evt-3", "evt-4", "evt-5")
	rt := NewRuntime(engine.New(r, startSlot), notifier, tokens, config)
	return rt, r, notifier
}

func TestRuntime_Declare_EmitsEvent(t *testing.T) {
	ctx := context.Background()
	rt, _, notifier := newTestRuntime(t, 0, Config{})

	intent, err := rt.Declare(ctx, "alice", "Alice pays Bob 100", 10, 1000)
	require.NoError(t, err)

	declared := notifier.Declared()
	require.Len(t, declared, 1)
	assert.Equal(t, "evt-1", declared[0].EventID)
	assert.Equal(t, intent.ID, declared[0].IntentID)
	assert.Equal(t, model.AccountRef("alice"), declared[0].Account)
	assert.Equal(t, model.Slot(10), declared[0].Deadline)
}

func TestRuntime_Declare_DuplicateEmitsNothing(t *testing.T) {
	ctx := context.Background()
	rt, _, notifier := newTestRuntime(t, 0, Config{})

	_, err := rt.Declare(ctx, "alice", "Alice pays Bob 100", 10, 1000)
	require.NoError(t, err)

	_, err = rt.Declare(ctx, "alice", "Alice pays Bob 100", 10, 1000)
	assert.True(t, ledger.IsDuplicateIntent(err))
	assert.Len(t, notifier.Declared(), 1, "failed registration must not emit")
}

func TestRuntime_Declare_PastDeadlinePolicy(t *testing.T) {
	ctx := context.Background()

	// Permissive host: past deadlines admitted, crystallized on next tick.
	permissive, preg, _ := newTestRuntime(t, 100, Config{})
	require.NoError(t, preg.SetBalance(ctx, "alice", 2000))
	intent, err := permissive.Declare(ctx, "alice", "already late", 50, 1000)
	require.NoError(t, err)

	batch, err := permissive.Tick(ctx, 101)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, intent.ID, batch[0].IntentID)

	// Strict host: registration refused outright.
	strict, _, notifier := newTestRuntime(t, 100, Config{RejectPastDeadlines: true})
	_, err = strict.Declare(ctx, "alice", "already late", 50, 1000)
	assert.True(t, IsDeadlineInPast(err))
	assert.Empty(t, notifier.Declared())

	// Deadline equal to the current slot is also not "ahead".
	_, err = strict.Declare(ctx, "alice", "due right now", 100, 1000)
	assert.True(t, IsDeadlineInPast(err))
}

func TestRuntime_Tick_EmitsEnrichedAbsenceEvents(t *testing.T) {
	ctx := context.Background()
	rt, reg, notifier := newTestRuntime(t, 0, Config{})

	require.NoError(t, reg.SetBalance(ctx, "alice", 2000))
	intent, err := rt.Declare(ctx, "alice", "Alice pays Bob 100", 10, 1000)
	require.NoError(t, err)

	batch, err := rt.Tick(ctx, 12)
	require.NoError(t, err)
	require.Len(t, batch, 1)

	events := notifier.Absences()
	require.Len(t, events, 1)
	assert.Equal(t, "evt-2", events[0].EventID)
	assert.Equal(t, intent.ID, events[0].IntentID)
	assert.Equal(t, model.AccountRef("alice"), events[0].Account)
	assert.Equal(t, uint64(1000), events[0].SlashedAmount)
	assert.Equal(t, model.Slot(12), events[0].DeclaredAt)
}

func TestRuntime_Tick_QuietTickEmitsNothing(t *testing.T) {
	ctx := context.Background()
	rt, _, notifier := newTestRuntime(t, 0, Config{})

	batch, err := rt.Tick(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, batch)
	assert.Empty(t, notifier.Absences())
	assert.Equal(t, model.Slot(5), rt.CurrentSlot())
}

func TestRuntime_Tick_NonMonotonicPropagates(t *testing.T) {
	ctx := context.Background()
	rt, _, _ := newTestRuntime(t, 100, Config{})

	_, err := rt.Tick(ctx, 99)
	assert.True(t, engine.IsNonMonotonicTime(err))
	assert.Equal(t, model.Slot(100), rt.CurrentSlot())
}

func TestFixedGenerator_PanicsWhenExhausted(t *testing.T) {
	g := NewFixedGenerator("only")
	assert.Equal(t, "only", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}

func TestUUIDv7Generator_UniqueTokens(t *testing.T) {
	g := UUIDv7Generator{}
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token := g.Generate()
		assert.Len(t, token, 36)
		assert.False(t, seen[token], "token %s generated twice", token)
		seen[token] = true
	}
}
