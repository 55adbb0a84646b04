package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phoenix-ledger/tasm/internal/engine"
	"github.com/phoenix-ledger/tasm/internal/host"
	"github.com/phoenix-ledger/tasm/internal/ledger"
)

// AdvanceOptions holds flags for the advance command.
type AdvanceOptions struct {
	*RootOptions
	Database string
}

// AbsenceSummary describes one crystallized absence.
type AbsenceSummary struct {
	IntentID   string `json:"intent_id"`
	Account    string `json:"account"`
	Slashed    uint64 `json:"slashed"`
	DeclaredAt uint64 `json:"declared_at"`
}

// AdvanceSummary is the success payload of the advance command.
type AdvanceSummary struct {
	FromSlot uint64           `json:"from_slot"`
	ToSlot   uint64           `json:"to_slot"`
	Absences []AbsenceSummary `json:"absences"`
}

func (s AdvanceSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Advanced from slot %d to %d, crystallized %d absence(s)", s.FromSlot, s.ToSlot, len(s.Absences))
	for _, a := range s.Absences {
		fmt.Fprintf(&b, "\n  %s  account=%s slashed=%d", a.IntentID, a.Account, a.Slashed)
	}
	return b.String()
}

// NewAdvanceCommand creates the advance command.
func NewAdvanceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AdvanceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "advance <slot>",
		Short: "Advance time and crystallize overdue intents",
		Long: `Advance the engine to the target slot. Every active intent whose
deadline lies before the target crystallizes into an absence, and its
collateral is seized. The result is the same whether the ledger advances
one slot at a time or jumps the whole distance after an outage.

The sweep runs under the slash policy recorded at initialization.
Advancing to the current slot is a no-op; advancing backward is rejected.

Example:
  tasm advance --db ./tasm.db 10100`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid slot", err)
			}
			return runAdvance(opts, target, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runAdvance(opts *AdvanceOptions, target uint64, cmd *cobra.Command) error {
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
	capture := &host.CaptureNotifier{}
	runtime := host.NewRuntime(eng, capture, nil, host.Config{})

	if _, err := runtime.Tick(ctx, target); err != nil {
		switch {
		case engine.IsNonMonotonicTime(err):
			_ = out.Error(CodeNonMonotonic, "target slot is behind the current slot", err.Error())
		case ledger.IsInsufficientBalance(err):
			_ = out.Error(CodeInsufficient, "sweep refused: collateral exceeds balance", err.Error())
		default:
			_ = out.Error(CodeDatabase, "failed to advance time", err.Error())
		}
		return WrapExitError(ExitFailure, "advance failed", err)
	}

	if err := st.SetCurrentSlot(ctx, target); err != nil {
		_ = out.Error(CodeDatabase, "failed to persist slot", err.Error())
		return WrapExitError(ExitCommandError, "failed to persist slot", err)
	}

	summary := AdvanceSummary{FromSlot: slot, ToSlot: target, Absences: []AbsenceSummary{}}
	for _, event := range capture.Absences() {
		summary.Absences = append(summary.Absences, AbsenceSummary{
			IntentID:   string(event.IntentID),
			Account:    string(event.Account),
			Slashed:    event.SlashedAmount,
			DeclaredAt: uint64(event.DeclaredAt),
		})
	}
	return out.Success(summary)
}
