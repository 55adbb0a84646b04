package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phoenix-ledger/tasm/internal/model"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
	Database string
	Accounts []string
}

// IntentSummary describes one active intent.
type IntentSummary struct {
	IntentID   string `json:"intent_id"`
	Creator    string `json:"creator"`
	Deadline   uint64 `json:"deadline"`
	Collateral uint64 `json:"collateral"`
}

// StatusSummary is the success payload of the status command.
type StatusSummary struct {
	CurrentSlot uint64            `json:"current_slot"`
	Active      []IntentSummary   `json:"active"`
	Absences    []AbsenceSummary  `json:"absences"`
	Balances    map[string]uint64 `json:"balances,omitempty"`
}

func (s StatusSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Slot %d: %d active intent(s), %d absence(s)", s.CurrentSlot, len(s.Active), len(s.Absences))
	for _, intent := range s.Active {
		fmt.Fprintf(&b, "\n  active   %s  creator=%s deadline=%d collateral=%d",
			intent.IntentID, intent.Creator, intent.Deadline, intent.Collateral)
	}
	for _, absence := range s.Absences {
		fmt.Fprintf(&b, "\n  absence  %s  account=%s slashed=%d at=%d",
			absence.IntentID, absence.Account, absence.Slashed, absence.DeclaredAt)
	}
	accounts := make([]string, 0, len(s.Balances))
	for account := range s.Balances {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)
	for _, account := range accounts {
		fmt.Fprintf(&b, "\n  balance  %s=%d", account, s.Balances[account])
	}
	return b.String()
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show ledger state",
		Long: `Show the current slot, the active intent set, and recorded absences.
Pass --account to include specific balances.

Example:
  tasm status --db ./tasm.db --account alice --account bob`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringArrayVar(&opts.Accounts, "account", nil, "account balance to include (repeatable)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runStatus(opts *StatusOptions, cmd *cobra.Command) error {
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

	summary := StatusSummary{CurrentSlot: slot, Active: []IntentSummary{}, Absences: []AbsenceSummary{}}

	active, err := st.ActiveIntents(ctx)
	if err != nil {
		_ = out.Error(CodeDatabase, "failed to list active intents", err.Error())
		return WrapExitError(ExitCommandError, "failed to list active intents", err)
	}
	for _, intent := range active {
		summary.Active = append(summary.Active, IntentSummary{
			IntentID:   string(intent.ID),
			Creator:    string(intent.Creator),
			Deadline:   intent.Deadline,
			Collateral: intent.Collateral,
		})
	}

	absences, err := st.Absences(ctx)
	if err != nil {
		_ = out.Error(CodeDatabase, "failed to list absences", err.Error())
		return WrapExitError(ExitCommandError, "failed to list absences", err)
	}
	for _, absence := range absences {
		intent, err := st.Intent(ctx, absence.IntentID)
		if err != nil {
			_ = out.Error(CodeDatabase, "failed to resolve crystallized intent", err.Error())
			return WrapExitError(ExitCommandError, "failed to resolve crystallized intent", err)
		}
		summary.Absences = append(summary.Absences, AbsenceSummary{
			IntentID:   string(absence.IntentID),
			Account:    string(intent.Creator),
			Slashed:    intent.Collateral,
			DeclaredAt: uint64(absence.DeclaredAt),
		})
	}

	if len(opts.Accounts) > 0 {
		summary.Balances = make(map[string]uint64, len(opts.Accounts))
		for _, account := range opts.Accounts {
			balance, err := st.Balance(ctx, model.AccountRef(account))
			if err != nil {
				_ = out.Error(CodeDatabase, "failed to read balance", err.Error())
				return WrapExitError(ExitCommandError, "failed to read balance", err)
			}
			summary.Balances[account] = balance
		}
	}

	return out.Success(summary)
}
