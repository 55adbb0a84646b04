package model

// Slot is a discrete unit of logical time (a block height or tick counter).
// Slots only ever increase for a given engine instance.
type Slot = uint64

// AccountRef identifies the account that posted collateral for an intent.
type AccountRef = string

// IntentID is the content-addressed identifier of an intent: the
// hex-encoded SHA-256 digest of the intent's canonical serialization.
// Two intents with identical fields collapse to the same IntentID.
type IntentID string

// Intent is a collateral-backed commitment to perform an act by a deadline.
// If the act is not observed by the deadline, the intent crystallizes into
// an Absence and the collateral is slashed.
type Intent struct {
	ID          IntentID   `json:"id"` // Content-addressed hash
	Creator     AccountRef `json:"creator"`
	Description string     `json:"description"`
	Deadline    Slot       `json:"deadline"`
	Collateral  uint64     `json:"collateral"`
}

// NewIntent constructs an intent and derives its content-addressed ID.
//
// No validation is performed here: a deadline already in the past is
// representable. Admission policy (e.g., rejecting past deadlines) belongs
// to the registration path, not the domain model.
func NewIntent(creator AccountRef, description string, deadline Slot, collateral uint64) Intent {
	intent := Intent{
		Creator:     creator,
		Description: description,
		Deadline:    deadline,
		Collateral:  collateral,
	}
	intent.ID = intent.calculateID()
	return intent
}

// Absence is the irrevocable record that an intent's deadline elapsed
// unfulfilled. DeclaredAt is the slot of the sweep that crystallized it,
// not the original deadline.
type Absence struct {
	IntentID   IntentID `json:"intent_id"`
	DeclaredAt Slot     `json:"declared_at"`
}
