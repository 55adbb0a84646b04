package harness

// TraceEvent is one entry in a scenario's execution trace.
// Depending on Type, only a subset of the fields is populated.
type TraceEvent struct {
	// Type is "declare", "advance", or "absence".
	Type string `json:"type"`

	// EventID is the notification token (absence events only).
	EventID string `json:"event_id,omitempty"`

	// IntentID is the content-addressed intent identity.
	IntentID string `json:"intent_id,omitempty"`

	// Account is the intent's creator.
	Account string `json:"account,omitempty"`

	Deadline   uint64 `json:"deadline,omitempty"`
	Collateral uint64 `json:"collateral,omitempty"`

	// Slot is the advance target (advance events only).
	Slot uint64 `json:"slot,omitempty"`

	// Crystallized is the sweep's batch size (advance events only).
	Crystallized int `json:"crystallized,omitempty"`

	// Slashed and DeclaredAt describe a crystallization (absence events only).
	Slashed    uint64 `json:"slashed,omitempty"`
	DeclaredAt uint64 `json:"declared_at,omitempty"`

	// Error names a rejected step ("duplicate_intent" etc.).
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses and assertions held.
	Pass bool `json:"pass"`

	// Trace contains all declare, advance, and absence events in order.
	// Used for golden comparison.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Balances contains the final balance of every seeded account.
	Balances map[string]uint64 `json:"balances,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Trace:    []TraceEvent{},
		Errors:   []string{},
		Balances: make(map[string]uint64),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddDeclareTrace records an intent registration.
func (r *Result) AddDeclareTrace(intentID, account string, deadline, collateral uint64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:       "declare",
		IntentID:   intentID,
		Account:    account,
		Deadline:   deadline,
		Collateral: collateral,
	})
}

// AddAdvanceTrace records a time advance and its sweep size.
func (r *Result) AddAdvanceTrace(slot uint64, crystallized int) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:         "advance",
		Slot:         slot,
		Crystallized: crystallized,
	})
}

// AddAbsenceTrace records one crystallization notification.
func (r *Result) AddAbsenceTrace(eventID, intentID, account string, slashed, declaredAt uint64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:       "absence",
		EventID:    eventID,
		IntentID:   intentID,
		Account:    account,
		Slashed:    slashed,
		DeclaredAt: declaredAt,
	})
}

// AddErrorTrace records a rejected step with its error name.
func (r *Result) AddErrorTrace(stepType, errorName string) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:  stepType,
		Error: errorName,
	})
}
