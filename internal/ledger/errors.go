package ledger

import (
	"errors"
	"fmt"

	"github.com/phoenix-ledger/tasm/internal/model"
)

// DuplicateIntentError reports registration of an intent ID that is already
// active or already recorded as an absence. Recoverable; no state mutation
// occurred.
type DuplicateIntentError struct {
	ID model.IntentID
}

func (e *DuplicateIntentError) Error() string {
	return fmt.Sprintf("duplicate intent: %s already registered", e.ID)
}

// IsDuplicateIntent reports whether err is a DuplicateIntentError.
// Uses errors.As to handle wrapped errors.
func IsDuplicateIntent(err error) bool {
	var de *DuplicateIntentError
	return errors.As(err, &de)
}

// NotFoundError reports a lookup or removal of an ID the registry does not
// hold.
type NotFoundError struct {
	ID model.IntentID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("intent not found: %s", e.ID)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}

// InsufficientBalanceError reports a strict-policy slash whose amount
// exceeds the account's balance. The balance was not mutated.
type InsufficientBalanceError struct {
	Account model.AccountRef
	Balance uint64
	Amount  uint64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: account %s holds %d, slash of %d refused",
		e.Account, e.Balance, e.Amount)
}

// IsInsufficientBalance reports whether err is an InsufficientBalanceError.
func IsInsufficientBalance(err error) bool {
	var ie *InsufficientBalanceError
	return errors.As(err, &ie)
}

// StorageError wraps a failure of the backing store. Callers may retry:
// the operation that surfaced it left observable state unchanged.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageFailure reports whether err is a StorageError.
func IsStorageFailure(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
