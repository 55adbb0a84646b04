package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/phoenix-ledger/tasm/internal/engine"
	"github.com/phoenix-ledger/tasm/internal/host"
	"github.com/phoenix-ledger/tasm/internal/ledger"
	"github.com/phoenix-ledger/tasm/internal/model"
	"github.com/phoenix-ledger/tasm/internal/store"
)

// DeclareOptions holds flags for the declare command.
type DeclareOptions struct {
	*RootOptions
	Database    string
	Creator     string
	Description string
	Deadline    uint64
	Collateral  uint64
	AllowPast   bool
}

// DeclareSummary is the success payload of the declare command.
type DeclareSummary struct {
	IntentID   string `json:"intent_id"`
	Creator    string `json:"creator"`
	Deadline   uint64 `json:"deadline"`
	Collateral uint64 `json:"collateral"`
}

func (s DeclareSummary) String() string {
	return "Declared intent " + s.IntentID
}

// NewDeclareCommand creates the declare command.
func NewDeclareCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeclareOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "declare",
		Short: "Declare an intent",
		Long: `Register a new intent on the ledger. The intent's identity is derived
from its content, so declaring identical content twice is rejected.

By default a deadline at or behind the current slot is rejected;
--allow-past accepts it and lets the next advance crystallize it.

Example:
  tasm declare --db ./tasm.db --creator alice \
    --description "publish proof by slot 500" --deadline 500 --collateral 1000`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeclare(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Creator, "creator", "", "account declaring the intent (required)")
	cmd.Flags().StringVar(&opts.Description, "description", "", "commitment description (required)")
	cmd.Flags().Uint64Var(&opts.Deadline, "deadline", 0, "deadline slot (required)")
	cmd.Flags().Uint64Var(&opts.Collateral, "collateral", 0, "collateral at stake")
	cmd.Flags().BoolVar(&opts.AllowPast, "allow-past", false, "accept deadlines at or behind the current slot")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("creator")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("deadline")

	return cmd
}

func runDeclare(opts *DeclareOptions, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, slot, err := openInitialized(ctx, opts.Database)
	if err != nil {
		_ = out.Error(CodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot open ledger", err)
	}
	defer st.Close()

	eng := engine.New(st, slot)
	runtime := host.NewRuntime(eng, nil, nil, host.Config{
		RejectPastDeadlines: !opts.AllowPast,
	})

	intent, err := runtime.Declare(ctx, model.AccountRef(opts.Creator), opts.Description, opts.Deadline, opts.Collateral)
	if err != nil {
		switch {
		case ledger.IsDuplicateIntent(err):
			_ = out.Error(CodeDuplicate, "intent with identical content already declared", err.Error())
		case host.IsDeadlineInPast(err):
			_ = out.Error(CodeDeadlinePast, "deadline is not ahead of the current slot", err.Error())
		default:
			_ = out.Error(CodeDatabase, "failed to declare intent", err.Error())
		}
		return WrapExitError(ExitFailure, "declare rejected", err)
	}

	return out.Success(DeclareSummary{
		IntentID:   string(intent.ID),
		Creator:    string(intent.Creator),
		Deadline:   intent.Deadline,
		Collateral: intent.Collateral,
	})
}

// openInitialized opens the store, applies the slash policy recorded at
// initialization, and returns the persisted slot.
// An uninitialized database is a command error, not slot zero.
func openInitialized(ctx context.Context, path string) (*store.Store, uint64, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, 0, err
	}
	slot, found, err := st.CurrentSlot(ctx)
	if err != nil {
		st.Close()
		return nil, 0, err
	}
	if !found {
		st.Close()
		return nil, 0, errNotInitialized(path)
	}
	if _, err := st.LoadSlashPolicy(ctx); err != nil {
		st.Close()
		return nil, 0, err
	}
	return st, slot, nil
}

type notInitializedError string

func errNotInitialized(path string) error { return notInitializedError(path) }

func (e notInitializedError) Error() string {
	return "database not initialized (run tasm init first): " + string(e)
}
