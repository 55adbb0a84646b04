package ledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateIntent(t *testing.T) {
	err := &DuplicateIntentError{ID: "abc"}
	assert.True(t, IsDuplicateIntent(err))
	assert.True(t, IsDuplicateIntent(fmt.Errorf("register: %w", err)), "wrapped errors should match")
	assert.False(t, IsDuplicateIntent(errors.New("other")))
	assert.False(t, IsDuplicateIntent(nil))
}

func TestIsNotFound(t *testing.T) {
	err := &NotFoundError{ID: "abc"}
	assert.True(t, IsNotFound(err))
	assert.True(t, IsNotFound(fmt.Errorf("remove: %w", err)))
	assert.False(t, IsNotFound(errors.New("other")))
}

func TestIsInsufficientBalance(t *testing.T) {
	err := &InsufficientBalanceError{Account: "alice", Balance: 5, Amount: 10}
	assert.True(t, IsInsufficientBalance(err))
	assert.Contains(t, err.Error(), "alice")
	assert.False(t, IsInsufficientBalance(errors.New("other")))
}

func TestStorageError_Unwrap(t *testing.T) {
	cause := errors.New("disk on fire")
	err := &StorageError{Op: "add_intent", Err: cause}

	assert.True(t, IsStorageFailure(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "add_intent")
}

func TestSlashPolicy_String(t *testing.T) {
	assert.Equal(t, "saturate", SlashSaturate.String())
	assert.Equal(t, "strict", SlashStrict.String())
	assert.Equal(t, "unknown", SlashPolicy(42).String())
}
