// Package testutil provides deterministic helpers shared by tests and the
// conformance harness.
package testutil

import (
	"fmt"
	"sync"
)

// SequenceGenerator generates numbered event tokens ("evt-000001",
// "evt-000002", ...).
//
// Unlike host.FixedGenerator, which requires the exact event count up
// front, SequenceGenerator never exhausts. The same scenario always
// produces the same token sequence, which is what golden trace
// comparison needs.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	seq    int64
}

// NewSequenceGenerator creates a generator with the given token prefix.
// An empty prefix defaults to "evt".
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	if prefix == "" {
		prefix = "evt"
	}
	return &SequenceGenerator{prefix: prefix}
}

// Generate returns the next token in the sequence.
// The first call returns "<prefix>-000001".
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%06d", g.prefix, g.seq)
}

// Reset rewinds the sequence to the beginning.
// After Reset, the next Generate returns "<prefix>-000001" again.
func (g *SequenceGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
