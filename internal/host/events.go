package host

import (
	"sync"

	"github.com/google/uuid"

	"github.com/phoenix-ledger/tasm/internal/model"
)

// IntentDeclared is emitted once per successful registration.
type IntentDeclared struct {
	EventID  string           `json:"event_id"`
	IntentID model.IntentID   `json:"intent_id"`
	Account  model.AccountRef `json:"account"`
	Deadline model.Slot       `json:"deadline"`
}

// AbsenceCrystallized is emitted once per absence returned by a tick.
type AbsenceCrystallized struct {
	EventID       string           `json:"event_id"`
	IntentID      model.IntentID   `json:"intent_id"`
	Account       model.AccountRef `json:"account"`
	SlashedAmount uint64           `json:"slashed_amount"`
	DeclaredAt    model.Slot       `json:"declared_at"`
}

// TokenGenerator generates unique event IDs for emitted notifications.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 event IDs.
//
// UUIDv7 embeds a timestamp in the most significant bits, making event IDs
// sortable by emission time, which helps when correlating notifications
// downstream.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined event IDs for deterministic tests
// and golden trace comparison.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedGenerator creates a generator that returns tokens in order.
// Generate panics once all tokens are consumed; this fail-fast behavior
// catches tests that emit more events than they declared.
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

// Generate returns the next predetermined token.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.tokens) {
		panic("FixedGenerator: all tokens exhausted")
	}
	token := g.tokens[g.idx]
	g.idx++
	return token
}
