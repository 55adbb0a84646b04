package genesis

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phoenix-ledger/tasm/internal/ledger"
	"github.com/phoenix-ledger/tasm/internal/model"
)

func compileString(t *testing.T, src string) (*Genesis, error) {
	t.Helper()
	cctx := cuecontext.New()
	value := cctx.CompileString(src)
	require.NoError(t, value.Err())
	return Compile(value.LookupPath(cue.ParsePath("genesis")))
}

const validGenesis = `
genesis: {
	start_slot: 100
	accounts: {
		alice: 2000
		bob:   800
	}
	intents: [
		{
			creator:     "alice"
			description: "Alice pays Bob 100"
			deadline:    150
			collateral:  1000
		},
	]
}
`

func TestCompile_Valid(t *testing.T) {
	g, err := compileString(t, validGenesis)
	require.NoError(t, err)

	assert.Equal(t, model.Slot(100), g.StartSlot)
	assert.Equal(t, map[model.AccountRef]uint64{"alice": 2000, "bob": 800}, g.Accounts)

	require.Len(t, g.Intents, 1)
	intent := g.Intents[0]
	assert.Equal(t, model.AccountRef("alice"), intent.Creator)
	assert.Equal(t, model.Slot(150), intent.Deadline)
	assert.Equal(t, uint64(1000), intent.Collateral)
	assert.Equal(t, model.NewIntent("alice", "Alice pays Bob 100", 150, 1000).ID, intent.ID,
		"genesis intents derive the same content-addressed ID as live registrations")
}

func TestCompile_Defaults(t *testing.T) {
	g, err := compileString(t, `genesis: {}`)
	require.NoError(t, err)

	assert.Equal(t, model.Slot(0), g.StartSlot)
	assert.Empty(t, g.Accounts)
	assert.Empty(t, g.Intents)
}

func TestCompile_MissingIntentField(t *testing.T) {
	_, err := compileString(t, `
genesis: intents: [{creator: "alice", description: "no deadline", collateral: 5}]
`)
	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "intents[0].deadline", ce.Field)
}

func TestCompile_NegativeBalance(t *testing.T) {
	_, err := compileString(t, `genesis: accounts: alice: -5`)
	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "accounts.alice", ce.Field)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.cue")
	require.NoError(t, os.WriteFile(path, []byte(validGenesis), 0o644))

	g, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, model.Slot(100), g.StartSlot)
	assert.Len(t, g.Intents, 1)
}

func TestLoadFile_MissingGenesisStruct(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.cue")
	require.NoError(t, os.WriteFile(path, []byte(`other: 1`), 0o644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestGenesis_Apply(t *testing.T) {
	ctx := context.Background()
	g, err := compileString(t, validGenesis)
	require.NoError(t, err)

	registry := ledger.NewMemoryRegistry()
	require.NoError(t, g.Apply(ctx, registry))

	balance, err := registry.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(2000), balance)

	active, err := registry.ActiveIntents(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}
