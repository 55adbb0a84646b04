package harness

import (
	"context"
	"fmt"

	"github.com/phoenix-ledger/tasm/internal/ledger"
	"github.com/phoenix-ledger/tasm/internal/model"
)

// AssertionError is returned when an assertion fails.
// It includes expected and actual outcomes to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("Assertion failed: %s\n  Expected: %s\n  Actual: %s", e.Type, e.Expected, e.Actual)
}

// AssertionContext provides ledger access for evaluating assertions.
type AssertionContext struct {
	Registry ledger.Registry
	Ctx      context.Context
}

// EvaluateAssertions evaluates all assertions against the final state.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertBalance:
			err = assertBalance(actx, assertion)
		case AssertActiveCount:
			err = assertActiveCount(actx, assertion)
		case AssertAbsenceCount:
			err = assertAbsenceCount(actx, assertion)
		case AssertAbsenceRecorded:
			err = assertAbsenceRecorded(actx, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}

// assertBalance checks that an account holds exactly the expected amount.
func assertBalance(actx *AssertionContext, assertion Assertion) error {
	balance, err := actx.Registry.Balance(actx.Ctx, model.AccountRef(assertion.Account))
	if err != nil {
		return fmt.Errorf("balance of %s: %w", assertion.Account, err)
	}
	if balance != assertion.Amount {
		return &AssertionError{
			Type:     AssertBalance,
			Expected: fmt.Sprintf("account %s holds %d", assertion.Account, assertion.Amount),
			Actual:   fmt.Sprintf("account %s holds %d", assertion.Account, balance),
		}
	}
	return nil
}

// assertActiveCount checks the size of the active set.
func assertActiveCount(actx *AssertionContext, assertion Assertion) error {
	active, err := actx.Registry.ActiveIntents(actx.Ctx)
	if err != nil {
		return fmt.Errorf("active intents: %w", err)
	}
	if len(active) != assertion.Count {
		return &AssertionError{
			Type:     AssertActiveCount,
			Expected: fmt.Sprintf("%d active intents", assertion.Count),
			Actual:   fmt.Sprintf("%d active intents", len(active)),
		}
	}
	return nil
}

// assertAbsenceCount checks the number of recorded absences.
func assertAbsenceCount(actx *AssertionContext, assertion Assertion) error {
	absences, err := actx.Registry.Absences(actx.Ctx)
	if err != nil {
		return fmt.Errorf("absences: %w", err)
	}
	if len(absences) != assertion.Count {
		return &AssertionError{
			Type:     AssertAbsenceCount,
			Expected: fmt.Sprintf("%d recorded absences", assertion.Count),
			Actual:   fmt.Sprintf("%d recorded absences", len(absences)),
		}
	}
	return nil
}

// assertAbsenceRecorded checks that an absence exists for the intent
// identified by its content fields, optionally at a specific slot.
func assertAbsenceRecorded(actx *AssertionContext, assertion Assertion) error {
	id := model.NewIntent(model.AccountRef(assertion.Creator), assertion.Description, assertion.Deadline, assertion.Collateral).ID

	absences, err := actx.Registry.Absences(actx.Ctx)
	if err != nil {
		return fmt.Errorf("absences: %w", err)
	}
	for _, absence := range absences {
		if absence.IntentID != id {
			continue
		}
		if assertion.DeclaredAt != nil && uint64(absence.DeclaredAt) != *assertion.DeclaredAt {
			return &AssertionError{
				Type:     AssertAbsenceRecorded,
				Expected: fmt.Sprintf("absence of %s declared at slot %d", id, *assertion.DeclaredAt),
				Actual:   fmt.Sprintf("declared at slot %d", absence.DeclaredAt),
			}
		}
		return nil
	}
	return &AssertionError{
		Type:     AssertAbsenceRecorded,
		Expected: fmt.Sprintf("absence of intent %s (creator %s)", id, assertion.Creator),
		Actual:   "not recorded",
	}
}
