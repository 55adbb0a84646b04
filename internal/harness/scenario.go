package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// Scenarios seed a fresh ledger, drive the engine through a sequence of
// registrations and time advances, and assert on the resulting trace and
// final state.
type Scenario struct {
	// Name uniquely identifies this scenario. It is also the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// StartSlot is the engine's initial slot.
	StartSlot uint64 `yaml:"start_slot"`

	// SlashPolicy selects the collateral seizure policy:
	// "saturate" (default) clamps at zero, "strict" refuses the sweep.
	SlashPolicy string `yaml:"slash_policy,omitempty"`

	// RejectPastDeadlines makes declare steps fail when the deadline is
	// not strictly ahead of the current slot.
	RejectPastDeadlines bool `yaml:"reject_past_deadlines,omitempty"`

	// Accounts seeds initial balances.
	Accounts map[string]uint64 `yaml:"accounts,omitempty"`

	// Intents seeds intents registered before the first step.
	// IDs are derived from content, exactly as for declare steps.
	Intents []IntentDecl `yaml:"intents,omitempty"`

	// Steps contains the main test flow. Each step either declares an
	// intent or advances time, with an optional expect clause.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final ledger state.
	Assertions []Assertion `yaml:"assertions"`
}

// IntentDecl describes one intent by its content fields.
// Used for seeding, declare steps, and absence_recorded assertions.
type IntentDecl struct {
	Creator     string `yaml:"creator"`
	Description string `yaml:"description"`
	Deadline    uint64 `yaml:"deadline"`
	Collateral  uint64 `yaml:"collateral"`
}

// Step is one action in the scenario flow.
// Exactly one of Advance or Declare must be set.
type Step struct {
	// Advance drives the engine to the given slot.
	Advance *uint64 `yaml:"advance,omitempty"`

	// Declare registers a new intent.
	Declare *IntentDecl `yaml:"declare,omitempty"`

	// Expect specifies the expected outcome.
	// If nil, the step is assumed to succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies expected step behavior.
type ExpectClause struct {
	// Crystallized is the expected number of absences crystallized by an
	// advance step. If nil, the count is not validated.
	Crystallized *int `yaml:"crystallized,omitempty"`

	// Error names the expected failure:
	// duplicate_intent, non_monotonic_time, deadline_in_past,
	// insufficient_balance. Empty means the step must succeed.
	Error string `yaml:"error,omitempty"`
}

// Expected error names.
const (
	ErrorDuplicateIntent     = "duplicate_intent"
	ErrorNonMonotonicTime    = "non_monotonic_time"
	ErrorDeadlineInPast      = "deadline_in_past"
	ErrorInsufficientBalance = "insufficient_balance"
)

// Assertion validates final ledger state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "balance": an account holds exactly Amount
	// - "active_count": the active set has exactly Count intents
	// - "absence_count": exactly Count absences are recorded
	// - "absence_recorded": an absence exists for the intent identified
	//   by Creator/Description/Deadline/Collateral
	Type string `yaml:"type"`

	// Account is the account to check (used by balance).
	Account string `yaml:"account,omitempty"`

	// Amount is the expected balance (used by balance).
	Amount uint64 `yaml:"amount"`

	// Count is the expected number of occurrences
	// (used by active_count and absence_count).
	Count int `yaml:"count"`

	// Intent content fields (used by absence_recorded). The intent's ID is
	// derived from these, so the assertion names the commitment, not a hash.
	Creator     string `yaml:"creator,omitempty"`
	Description string `yaml:"description,omitempty"`
	Deadline    uint64 `yaml:"deadline,omitempty"`
	Collateral  uint64 `yaml:"collateral,omitempty"`

	// DeclaredAt is the expected crystallization slot
	// (used by absence_recorded). If nil, the slot is not validated.
	DeclaredAt *uint64 `yaml:"declared_at,omitempty"`
}

// Assertion type constants.
const (
	AssertBalance         = "balance"
	AssertActiveCount     = "active_count"
	AssertAbsenceCount    = "absence_count"
	AssertAbsenceRecorded = "absence_recorded"
)

// Slash policy names accepted in scenario files.
const (
	PolicySaturate = "saturate"
	PolicyStrict   = "strict"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field validation
// (catches typos like "assertion:" vs "assertions:").
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch s.SlashPolicy {
	case "", PolicySaturate, PolicyStrict:
	default:
		return fmt.Errorf("unknown slash_policy %q (want %q or %q)", s.SlashPolicy, PolicySaturate, PolicyStrict)
	}

	for i, intent := range s.Intents {
		if err := validateIntentDecl(&intent); err != nil {
			return fmt.Errorf("intents[%d]: %w", i, err)
		}
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i, step := range s.Steps {
		if step.Advance == nil && step.Declare == nil {
			return fmt.Errorf("steps[%d]: one of advance or declare is required", i)
		}
		if step.Advance != nil && step.Declare != nil {
			return fmt.Errorf("steps[%d]: advance and declare are mutually exclusive", i)
		}
		if step.Declare != nil {
			if err := validateIntentDecl(step.Declare); err != nil {
				return fmt.Errorf("steps[%d].declare: %w", i, err)
			}
		}
		if step.Expect != nil {
			if err := validateExpect(step.Expect, step.Advance != nil); err != nil {
				return fmt.Errorf("steps[%d].expect: %w", i, err)
			}
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateIntentDecl(d *IntentDecl) error {
	if d.Creator == "" {
		return fmt.Errorf("creator is required")
	}
	if d.Description == "" {
		return fmt.Errorf("description is required")
	}
	return nil
}

func validateExpect(e *ExpectClause, isAdvance bool) error {
	switch e.Error {
	case "", ErrorDuplicateIntent, ErrorNonMonotonicTime, ErrorDeadlineInPast, ErrorInsufficientBalance:
	default:
		return fmt.Errorf("unknown error name %q", e.Error)
	}
	if e.Crystallized != nil && !isAdvance {
		return fmt.Errorf("crystallized only applies to advance steps")
	}
	if e.Crystallized != nil && *e.Crystallized < 0 {
		return fmt.Errorf("crystallized must be non-negative")
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertBalance:
		if a.Account == "" {
			return fmt.Errorf("assertions[%d]: account is required for balance", index)
		}
	case AssertActiveCount, AssertAbsenceCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertAbsenceRecorded:
		if a.Creator == "" || a.Description == "" {
			return fmt.Errorf("assertions[%d]: creator and description are required for absence_recorded", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
