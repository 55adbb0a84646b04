package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/phoenix-ledger/tasm/internal/ledger"
	"github.com/phoenix-ledger/tasm/internal/model"
)

const (
	currentSlotKey = "current_slot"
	slashPolicyKey = "slash_policy"
)

// CurrentSlot returns the persisted engine slot, with found=false on a
// fresh database that has never been advanced.
//
// The engine itself holds its slot in memory; this persistence exists so a
// CLI invocation resumes exactly where the previous one stopped.
func (s *Store) CurrentSlot(ctx context.Context) (slot model.Slot, found bool, err error) {
	var value int64
	qerr := s.db.QueryRowContext(ctx, `
		SELECT value FROM engine_state WHERE key = ?
	`, currentSlotKey).Scan(&value)
	if errors.Is(qerr, sql.ErrNoRows) {
		return 0, false, nil
	}
	if qerr != nil {
		return 0, false, &ledger.StorageError{Op: "current_slot", Err: qerr}
	}
	return model.Slot(value), true, nil
}

// SetCurrentSlot persists the engine slot after a successful sweep.
func (s *Store) SetCurrentSlot(ctx context.Context, slot model.Slot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO engine_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, currentSlotKey, int64(slot))
	if err != nil {
		return &ledger.StorageError{Op: "set_current_slot", Err: err}
	}
	return nil
}

// SetSlashPolicy records the slash policy in the database and applies it
// to this store. Called once at initialization: the policy is a property
// of the ledger, not of any later invocation.
func (s *Store) SetSlashPolicy(ctx context.Context, policy ledger.SlashPolicy) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO engine_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, slashPolicyKey, int64(policy))
	if err != nil {
		return &ledger.StorageError{Op: "set_slash_policy", Err: err}
	}
	s.policy = policy
	return nil
}

// LoadSlashPolicy reads the recorded slash policy and applies it to this
// store. A database with no recorded policy keeps the policy the store
// was opened with.
func (s *Store) LoadSlashPolicy(ctx context.Context) (ledger.SlashPolicy, error) {
	var value int64
	qerr := s.db.QueryRowContext(ctx, `
		SELECT value FROM engine_state WHERE key = ?
	`, slashPolicyKey).Scan(&value)
	if errors.Is(qerr, sql.ErrNoRows) {
		return s.policy, nil
	}
	if qerr != nil {
		return s.policy, &ledger.StorageError{Op: "load_slash_policy", Err: qerr}
	}
	s.policy = ledger.SlashPolicy(value)
	return s.policy, nil
}
