// Package harness provides a conformance testing framework for the absence
// engine.
//
// Scenarios are YAML files that seed a fresh in-memory ledger, drive the
// engine through declarations and time advances, and assert on the trace
// and final state. Every run also replays the same flow one slot at a
// time and compares outcomes, so a scenario cannot pass while the sweep
// depends on which slots were visited.
package harness

import (
	"context"
	"fmt"
	"sort"

	"github.com/phoenix-ledger/tasm/internal/engine"
	"github.com/phoenix-ledger/tasm/internal/host"
	"github.com/phoenix-ledger/tasm/internal/ledger"
	"github.com/phoenix-ledger/tasm/internal/model"
	"github.com/phoenix-ledger/tasm/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios with deterministic event tokens against a fresh
// in-memory registry.
type Harness struct {
	registry ledger.Registry
	runtime  *host.Runtime
	capture  *host.CaptureNotifier
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory registry for isolation.
// The sequence token generator makes event IDs reproducible, which golden
// trace comparison relies on.
//
// Execution flow:
//  1. Create fresh in-memory registry with the scenario's slash policy
//  2. Seed accounts and initial intents
//  3. Execute steps with expect validation
//  4. Replay slot-by-slot and compare outcomes (gap independence)
//  5. Evaluate assertions against the final state
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	registry := newRegistry(scenario)
	if err := seed(ctx, registry, scenario); err != nil {
		return nil, fmt.Errorf("failed to seed scenario: %w", err)
	}

	eng := engine.New(registry, scenario.StartSlot)
	capture := &host.CaptureNotifier{}
	tokens := testutil.NewSequenceGenerator("evt")
	runtime := host.NewRuntime(eng, capture, tokens, host.Config{
		RejectPastDeadlines: scenario.RejectPastDeadlines,
	})

	h := &Harness{
		registry: registry,
		runtime:  runtime,
		capture:  capture,
	}

	result := NewResult()
	h.executeSteps(ctx, scenario.Steps, result)

	// Strict slashing can refuse a sweep mid-advance, which makes a
	// partial slot-by-slot replay legitimately diverge from the direct
	// run. The replay check only applies under saturating policy.
	if scenario.SlashPolicy != PolicyStrict {
		if err := VerifyGapIndependence(ctx, scenario); err != nil {
			result.AddError(fmt.Sprintf("gap independence: %v", err))
		}
	}

	if err := h.collectBalances(ctx, scenario, result); err != nil {
		return nil, fmt.Errorf("failed to read final balances: %w", err)
	}

	actx := &AssertionContext{Registry: registry, Ctx: ctx}
	for _, errMsg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// newRegistry creates the scenario's registry with its slash policy.
func newRegistry(scenario *Scenario) *ledger.MemoryRegistry {
	if scenario.SlashPolicy == PolicyStrict {
		return ledger.NewMemoryRegistryWithPolicy(ledger.SlashStrict)
	}
	return ledger.NewMemoryRegistry()
}

// seed establishes initial balances and intents.
// Seeding is assumed to succeed; a failure is a scenario bug.
func seed(ctx context.Context, registry ledger.Registry, scenario *Scenario) error {
	for _, account := range sortedAccounts(scenario.Accounts) {
		if err := registry.SetBalance(ctx, model.AccountRef(account), scenario.Accounts[account]); err != nil {
			return fmt.Errorf("account %s: %w", account, err)
		}
	}
	for i, decl := range scenario.Intents {
		intent := model.NewIntent(model.AccountRef(decl.Creator), decl.Description, decl.Deadline, decl.Collateral)
		if err := registry.AddIntent(ctx, intent); err != nil {
			return fmt.Errorf("intents[%d]: %w", i, err)
		}
	}
	return nil
}

// executeSteps runs all steps and validates expect clauses.
//
// An expected failure is traced with its error name. An unexpected
// failure, or an expected failure that did not occur, marks the result
// failed but execution continues so the full trace stays available.
func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) {
	for i, step := range steps {
		if step.Declare != nil {
			h.executeDeclare(ctx, i, step, result)
			continue
		}
		h.executeAdvance(ctx, i, step, result)
	}
}

func (h *Harness) executeDeclare(ctx context.Context, i int, step Step, result *Result) {
	decl := step.Declare
	intent, err := h.runtime.Declare(ctx, model.AccountRef(decl.Creator), decl.Description, decl.Deadline, decl.Collateral)

	expected := ""
	if step.Expect != nil {
		expected = step.Expect.Error
	}

	if err != nil {
		name := classifyError(err)
		result.AddErrorTrace("declare", name)
		if name != expected {
			result.AddError(fmt.Sprintf("steps[%d]: declare failed with %s (expected %s): %v", i, name, orSuccess(expected), err))
		}
		return
	}

	result.AddDeclareTrace(string(intent.ID), string(intent.Creator), intent.Deadline, intent.Collateral)
	if expected != "" {
		result.AddError(fmt.Sprintf("steps[%d]: declare succeeded, expected error %s", i, expected))
	}
}

func (h *Harness) executeAdvance(ctx context.Context, i int, step Step, result *Result) {
	target := *step.Advance
	before := len(h.capture.Absences())
	batch, err := h.runtime.Tick(ctx, target)

	expected := ""
	if step.Expect != nil {
		expected = step.Expect.Error
	}

	if err != nil {
		name := classifyError(err)
		result.AddErrorTrace("advance", name)
		if name != expected {
			result.AddError(fmt.Sprintf("steps[%d]: advance to %d failed with %s (expected %s): %v", i, target, name, orSuccess(expected), err))
		}
		return
	}

	result.AddAdvanceTrace(target, len(batch))
	for _, event := range h.capture.Absences()[before:] {
		result.AddAbsenceTrace(event.EventID, string(event.IntentID), string(event.Account), event.SlashedAmount, uint64(event.DeclaredAt))
	}

	if expected != "" {
		result.AddError(fmt.Sprintf("steps[%d]: advance to %d succeeded, expected error %s", i, target, expected))
	}
	if step.Expect != nil && step.Expect.Crystallized != nil && len(batch) != *step.Expect.Crystallized {
		result.AddError(fmt.Sprintf("steps[%d]: advance to %d crystallized %d absences, expected %d", i, target, len(batch), *step.Expect.Crystallized))
	}
}

// collectBalances records the final balance of every seeded account.
func (h *Harness) collectBalances(ctx context.Context, scenario *Scenario, result *Result) error {
	for _, account := range sortedAccounts(scenario.Accounts) {
		balance, err := h.registry.Balance(ctx, model.AccountRef(account))
		if err != nil {
			return fmt.Errorf("account %s: %w", account, err)
		}
		result.Balances[account] = balance
	}
	return nil
}

// classifyError maps a step failure to its scenario error name.
func classifyError(err error) string {
	switch {
	case ledger.IsDuplicateIntent(err):
		return ErrorDuplicateIntent
	case engine.IsNonMonotonicTime(err):
		return ErrorNonMonotonicTime
	case host.IsDeadlineInPast(err):
		return ErrorDeadlineInPast
	case ledger.IsInsufficientBalance(err):
		return ErrorInsufficientBalance
	default:
		return "unexpected"
	}
}

func orSuccess(expected string) string {
	if expected == "" {
		return "success"
	}
	return expected
}

func sortedAccounts(accounts map[string]uint64) []string {
	names := make([]string, 0, len(accounts))
	for name := range accounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
