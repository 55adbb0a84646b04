package host

import (
	"log/slog"
	"sync"
)

// Notifier receives one call per notification event the runtime emits.
type Notifier interface {
	IntentDeclared(event IntentDeclared)
	AbsenceCrystallized(event AbsenceCrystallized)
}

// SlogNotifier logs each event through log/slog. The default notifier.
type SlogNotifier struct{}

func (SlogNotifier) IntentDeclared(event IntentDeclared) {
	slog.Info("intent declared",
		"event_id", event.EventID,
		"intent_id", event.IntentID,
		"account", event.Account,
		"deadline", event.Deadline,
	)
}

func (SlogNotifier) AbsenceCrystallized(event AbsenceCrystallized) {
	slog.Info("absence crystallized",
		"event_id", event.EventID,
		"intent_id", event.IntentID,
		"account", event.Account,
		"slashed", event.SlashedAmount,
		"declared_at", event.DeclaredAt,
	)
}

// CaptureNotifier records every event in order. Used by tests and the
// conformance harness to assert on emitted notifications.
//
// Thread-safety: safe for concurrent use via internal mutex.
type CaptureNotifier struct {
	mu       sync.Mutex
	declared []IntentDeclared
	absences []AbsenceCrystallized
}

func (n *CaptureNotifier) IntentDeclared(event IntentDeclared) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.declared = append(n.declared, event)
}

func (n *CaptureNotifier) AbsenceCrystallized(event AbsenceCrystallized) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.absences = append(n.absences, event)
}

// Declared returns a copy of the captured registration events.
func (n *CaptureNotifier) Declared() []IntentDeclared {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]IntentDeclared, len(n.declared))
	copy(out, n.declared)
	return out
}

// Absences returns a copy of the captured crystallization events.
func (n *CaptureNotifier) Absences() []AbsenceCrystallized {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]AbsenceCrystallized, len(n.absences))
	copy(out, n.absences)
	return out
}
