package harness

import (
	"context"
	"fmt"
	"sort"

	"github.com/phoenix-ledger/tasm/internal/engine"
	"github.com/phoenix-ledger/tasm/internal/ledger"
	"github.com/phoenix-ledger/tasm/internal/model"
)

// rawOutcome captures the state a scenario's flow converges to,
// independent of notification plumbing.
//
// DeclaredAt is deliberately absent: a slot-by-slot replay crystallizes
// each absence at the first slot past its deadline, while a direct jump
// stamps the jump target. The converged set, balances, and active set
// must still agree.
type rawOutcome struct {
	crystallized []string
	active       []string
	balances     map[string]uint64
}

// VerifyGapIndependence replays the scenario twice, once advancing
// directly to each target and once advancing a single slot at a time,
// and returns an error if the two runs converge to different states.
func VerifyGapIndependence(ctx context.Context, scenario *Scenario) error {
	direct, err := runRaw(ctx, scenario, false)
	if err != nil {
		return fmt.Errorf("direct replay: %w", err)
	}
	stepped, err := runRaw(ctx, scenario, true)
	if err != nil {
		return fmt.Errorf("slot-by-slot replay: %w", err)
	}

	if !equalStrings(direct.crystallized, stepped.crystallized) {
		return fmt.Errorf("crystallized sets diverge: direct %v, slot-by-slot %v", direct.crystallized, stepped.crystallized)
	}
	if !equalStrings(direct.active, stepped.active) {
		return fmt.Errorf("active sets diverge: direct %v, slot-by-slot %v", direct.active, stepped.active)
	}
	for account, balance := range direct.balances {
		if stepped.balances[account] != balance {
			return fmt.Errorf("balance of %s diverges: direct %d, slot-by-slot %d", account, balance, stepped.balances[account])
		}
	}
	return nil
}

// runRaw executes the scenario's flow without expect validation or
// notifications. Step errors are swallowed: both replays hit the same
// errors on the same steps, and an errored step mutates nothing.
func runRaw(ctx context.Context, scenario *Scenario, slotBySlot bool) (*rawOutcome, error) {
	registry := newRegistry(scenario)
	if err := seed(ctx, registry, scenario); err != nil {
		return nil, err
	}
	eng := engine.New(registry, scenario.StartSlot)

	for _, step := range scenario.Steps {
		switch {
		case step.Declare != nil:
			decl := step.Declare
			if scenario.RejectPastDeadlines && decl.Deadline <= eng.CurrentSlot() {
				continue
			}
			intent := model.NewIntent(model.AccountRef(decl.Creator), decl.Description, decl.Deadline, decl.Collateral)
			_ = registry.AddIntent(ctx, intent)
		case step.Advance != nil:
			target := *step.Advance
			if !slotBySlot {
				_, _ = eng.AdvanceTime(ctx, target)
				continue
			}
			for slot := eng.CurrentSlot(); slot < target; slot++ {
				if _, err := eng.AdvanceTime(ctx, slot+1); err != nil {
					break
				}
			}
		}
	}

	return collectOutcome(ctx, registry, scenario)
}

func collectOutcome(ctx context.Context, registry ledger.Registry, scenario *Scenario) (*rawOutcome, error) {
	outcome := &rawOutcome{balances: make(map[string]uint64)}

	absences, err := registry.Absences(ctx)
	if err != nil {
		return nil, err
	}
	for _, absence := range absences {
		outcome.crystallized = append(outcome.crystallized, string(absence.IntentID))
	}
	sort.Strings(outcome.crystallized)

	active, err := registry.ActiveIntents(ctx)
	if err != nil {
		return nil, err
	}
	for _, intent := range active {
		outcome.active = append(outcome.active, string(intent.ID))
	}
	sort.Strings(outcome.active)

	for _, account := range sortedAccounts(scenario.Accounts) {
		balance, err := registry.Balance(ctx, model.AccountRef(account))
		if err != nil {
			return nil, err
		}
		outcome.balances[account] = balance
	}
	return outcome, nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
