package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/phoenix-ledger/tasm/internal/genesis"
	"github.com/phoenix-ledger/tasm/internal/ledger"
	"github.com/phoenix-ledger/tasm/internal/store"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Database string
	Strict   bool
}

// InitSummary is the success payload of the init command.
type InitSummary struct {
	Database    string `json:"database"`
	StartSlot   uint64 `json:"start_slot"`
	Accounts    int    `json:"accounts"`
	Intents     int    `json:"intents"`
	SlashPolicy string `json:"slash_policy"`
}

func (s InitSummary) String() string {
	return fmt.Sprintf("Initialized %s at slot %d (%d accounts, %d intents, %s slashing)",
		s.Database, s.StartSlot, s.Accounts, s.Intents, s.SlashPolicy)
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init <genesis.cue>",
		Short: "Initialize a ledger database from a genesis file",
		Long: `Compile a CUE genesis file and seed a new ledger database with its
balances and intents. The engine's clock starts at the genesis start_slot.

The slash policy is fixed here for the lifetime of the database: every
later advance runs under the policy chosen at initialization.

Refuses to touch a database that is already initialized.

Example:
  tasm init --db ./tasm.db ./genesis.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "refuse sweeps that cannot seize full collateral")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runInit(opts *InitOptions, genesisPath string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	g, err := genesis.LoadFile(genesisPath)
	if err != nil {
		_ = out.Error(CodeGenesis, "failed to load genesis file", err.Error())
		return WrapExitError(ExitCommandError, "failed to load genesis file", err)
	}
	slog.Debug("genesis compiled",
		"start_slot", g.StartSlot,
		"accounts", len(g.Accounts),
		"intents", len(g.Intents),
	)

	policy := ledger.SlashSaturate
	if opts.Strict {
		policy = ledger.SlashStrict
	}
	st, err := store.OpenWithPolicy(opts.Database, policy)
	if err != nil {
		_ = out.Error(CodeDatabase, "failed to open database", err.Error())
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if _, found, err := st.CurrentSlot(ctx); err != nil {
		_ = out.Error(CodeDatabase, "failed to read engine state", err.Error())
		return WrapExitError(ExitCommandError, "failed to read engine state", err)
	} else if found {
		_ = out.Error(CodeDatabase, "database already initialized", opts.Database)
		return NewExitError(ExitCommandError, "database already initialized")
	}

	if err := g.Apply(ctx, st); err != nil {
		_ = out.Error(CodeDatabase, "failed to seed genesis state", err.Error())
		return WrapExitError(ExitCommandError, "failed to seed genesis state", err)
	}
	if err := st.SetSlashPolicy(ctx, policy); err != nil {
		_ = out.Error(CodeDatabase, "failed to persist slash policy", err.Error())
		return WrapExitError(ExitCommandError, "failed to persist slash policy", err)
	}
	if err := st.SetCurrentSlot(ctx, g.StartSlot); err != nil {
		_ = out.Error(CodeDatabase, "failed to persist start slot", err.Error())
		return WrapExitError(ExitCommandError, "failed to persist start slot", err)
	}

	return out.Success(InitSummary{
		Database:    opts.Database,
		StartSlot:   g.StartSlot,
		Accounts:    len(g.Accounts),
		Intents:     len(g.Intents),
		SlashPolicy: policy.String(),
	})
}
