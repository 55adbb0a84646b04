package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceGenerator_NumbersFromOne(t *testing.T) {
	gen := NewSequenceGenerator("evt")

	assert.Equal(t, "evt-000001", gen.Generate())
	assert.Equal(t, "evt-000002", gen.Generate())
	assert.Equal(t, "evt-000003", gen.Generate())
}

func TestSequenceGenerator_EmptyPrefixDefault(t *testing.T) {
	gen := NewSequenceGenerator("")
	assert.Equal(t, "evt-000001", gen.Generate())
}

func TestSequenceGenerator_Reset(t *testing.T) {
	gen := NewSequenceGenerator("run")
	gen.Generate()
	gen.Generate()

	gen.Reset()
	assert.Equal(t, "run-000001", gen.Generate())
}

func TestSequenceGenerator_ThreadSafe(t *testing.T) {
	gen := NewSequenceGenerator("evt")
	const goroutines = 50
	const perGoroutine = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)
	results := make([][]string, goroutines)
	for i := 0; i < goroutines; i++ {
		results[i] = make([]string, perGoroutine)
		go func(idx int) {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				results[idx][j] = gen.Generate()
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i := range results {
		for _, token := range results[i] {
			require.False(t, seen[token], "duplicate token %s", token)
			seen[token] = true
		}
	}
	assert.Len(t, seen, goroutines*perGoroutine)
}
