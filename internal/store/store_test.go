package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phoenix-ledger/tasm/internal/engine"
	"github.com/phoenix-ledger/tasm/internal/ledger"
	"github.com/phoenix-ledger/tasm/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "tasm.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasm.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	// Re-opening an existing database applies the schema as a no-op.
	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	var version int
	require.NoError(t, s2.DB().QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
}

func TestStore_AddIntent_Duplicate(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	intent := model.NewIntent("alice", "Alice pays Bob 100", 10, 1000)
	require.NoError(t, s.AddIntent(ctx, intent))

	err := s.AddIntent(ctx, model.NewIntent("alice", "Alice pays Bob 100", 10, 1000))
	assert.True(t, ledger.IsDuplicateIntent(err))

	active, err := s.ActiveIntents(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestStore_AddIntent_DuplicateAfterCrystallization(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	intent := model.NewIntent("alice", "Alice pays Bob 100", 10, 1000)
	require.NoError(t, s.SetBalance(ctx, "alice", 2000))
	require.NoError(t, s.AddIntent(ctx, intent))

	_, err := s.Crystallize(ctx, intent, 12)
	require.NoError(t, err)

	// The archived row keeps the primary key occupied.
	err = s.AddIntent(ctx, intent)
	assert.True(t, ledger.IsDuplicateIntent(err))
}

func TestStore_ActiveIntents_OrderedByID(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for _, intent := range []model.Intent{
		model.NewIntent("carol", "third", 30, 300),
		model.NewIntent("alice", "first", 10, 100),
		model.NewIntent("bob", "second", 20, 200),
	} {
		require.NoError(t, s.AddIntent(ctx, intent))
	}

	active, err := s.ActiveIntents(ctx)
	require.NoError(t, err)
	require.Len(t, active, 3)
	assert.Less(t, active[0].ID, active[1].ID)
	assert.Less(t, active[1].ID, active[2].ID)
}

func TestStore_Intent_CoversArchivedRows(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	intent := model.NewIntent("alice", "Alice pays Bob 100", 10, 1000)
	require.NoError(t, s.SetBalance(ctx, "alice", 2000))
	require.NoError(t, s.AddIntent(ctx, intent))

	_, err := s.Crystallize(ctx, intent, 12)
	require.NoError(t, err)

	got, err := s.Intent(ctx, intent.ID)
	require.NoError(t, err)
	assert.Equal(t, intent, got)

	_, err = s.Intent(ctx, model.IntentID("missing"))
	assert.True(t, ledger.IsNotFound(err))
}

func TestStore_Balances(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	balance, err := s.Balance(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), balance, "unseeded account reads as zero")

	require.NoError(t, s.SetBalance(ctx, "alice", 2000))
	require.NoError(t, s.Slash(ctx, "alice", 1500))

	balance, err = s.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(500), balance)
}

func TestStore_Slash_SaturatesAtZero(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.SetBalance(ctx, "alice", 500))
	require.NoError(t, s.Slash(ctx, "alice", 1000))

	balance, err := s.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), balance)
}

func TestStore_Slash_StrictRefuses(t *testing.T) {
	ctx := context.Background()
	s, err := OpenWithPolicy(filepath.Join(t.TempDir(), "tasm.db"), ledger.SlashStrict)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SetBalance(ctx, "alice", 500))

	err = s.Slash(ctx, "alice", 1000)
	assert.True(t, ledger.IsInsufficientBalance(err))

	balance, berr := s.Balance(ctx, "alice")
	require.NoError(t, berr)
	assert.Equal(t, uint64(500), balance)
}

func TestStore_Crystallize_Atomic(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	intent := model.NewIntent("alice", "Alice pays Bob 100", 10, 1000)
	require.NoError(t, s.SetBalance(ctx, "alice", 2000))
	require.NoError(t, s.AddIntent(ctx, intent))

	absence, err := s.Crystallize(ctx, intent, 12)
	require.NoError(t, err)
	assert.Equal(t, intent.ID, absence.IntentID)
	assert.Equal(t, model.Slot(12), absence.DeclaredAt)

	active, err := s.ActiveIntents(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	balance, err := s.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), balance)

	absences, err := s.Absences(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Absence{absence}, absences)

	// A second crystallization of the same intent finds nothing active.
	_, err = s.Crystallize(ctx, intent, 20)
	assert.True(t, ledger.IsNotFound(err))
}

func TestStore_Crystallize_StrictRefusalRollsBack(t *testing.T) {
	ctx := context.Background()
	s, err := OpenWithPolicy(filepath.Join(t.TempDir(), "tasm.db"), ledger.SlashStrict)
	require.NoError(t, err)
	defer s.Close()

	intent := model.NewIntent("alice", "underfunded", 10, 1000)
	require.NoError(t, s.SetBalance(ctx, "alice", 100))
	require.NoError(t, s.AddIntent(ctx, intent))

	_, err = s.Crystallize(ctx, intent, 12)
	assert.True(t, ledger.IsInsufficientBalance(err))

	// Whole transaction rolled back: still active, balance intact.
	active, aerr := s.ActiveIntents(ctx)
	require.NoError(t, aerr)
	assert.Len(t, active, 1)

	balance, berr := s.Balance(ctx, "alice")
	require.NoError(t, berr)
	assert.Equal(t, uint64(100), balance)

	absences, oerr := s.Absences(ctx)
	require.NoError(t, oerr)
	assert.Empty(t, absences)
}

func TestStore_CurrentSlot_Persistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tasm.db")

	s, err := Open(path)
	require.NoError(t, err)

	_, found, err := s.CurrentSlot(ctx)
	require.NoError(t, err)
	assert.False(t, found, "fresh database has no persisted slot")

	require.NoError(t, s.SetCurrentSlot(ctx, 10100))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	slot, found, err := s.CurrentSlot(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, model.Slot(10100), slot)
}

func TestStore_SlashPolicy_Persistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tasm.db")

	s, err := OpenWithPolicy(path, ledger.SlashStrict)
	require.NoError(t, err)
	require.NoError(t, s.SetSlashPolicy(ctx, ledger.SlashStrict))
	require.NoError(t, s.Close())

	// A later invocation opens with the default policy; the recorded one
	// takes over on load.
	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, ledger.SlashSaturate, s.Policy())

	policy, err := s.LoadSlashPolicy(ctx)
	require.NoError(t, err)
	assert.Equal(t, ledger.SlashStrict, policy)
	assert.Equal(t, ledger.SlashStrict, s.Policy())

	require.NoError(t, s.SetBalance(ctx, "alice", 300))
	assert.True(t, ledger.IsInsufficientBalance(s.Slash(ctx, "alice", 1000)))
}

func TestStore_LoadSlashPolicy_NothingRecorded(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	policy, err := s.LoadSlashPolicy(ctx)
	require.NoError(t, err)
	assert.Equal(t, ledger.SlashSaturate, policy)
}

func TestStore_DrivesEngine(t *testing.T) {
	// The SQLite registry is a drop-in backend for the engine.
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.SetBalance(ctx, "user1", 2000))
	require.NoError(t, s.SetBalance(ctx, "user2", 100000))

	intentA := model.NewIntent("user1", "Repay Loan", 150, 1000)
	intentB := model.NewIntent("user2", "Inheritance Lock", 5000, 50000)
	require.NoError(t, s.AddIntent(ctx, intentA))
	require.NoError(t, s.AddIntent(ctx, intentB))

	eng := engine.New(s, 100)
	batch, err := eng.AdvanceTime(ctx, 10100)
	require.NoError(t, err)
	assert.Len(t, batch, 2)

	active, err := s.ActiveIntents(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	balance1, err := s.Balance(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), balance1)
}
