package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/phoenix-ledger/tasm/internal/ledger"
	"github.com/phoenix-ledger/tasm/internal/model"
)

// Store implements ledger.Registry; the assignment is a compile-time check.
var _ ledger.Registry = (*Store)(nil)

// AddIntent registers an intent, keyed by its content-addressed ID.
// Uses ON CONFLICT(id) DO NOTHING: the primary key covers both active and
// crystallized rows, so a zero-row insert means the commitment already
// exists in either state and registration fails with DuplicateIntentError.
func (s *Store) AddIntent(ctx context.Context, intent model.Intent) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO intents (id, creator, description, deadline, collateral, status)
		VALUES (?, ?, ?, ?, ?, 'active')
		ON CONFLICT(id) DO NOTHING
	`,
		string(intent.ID),
		string(intent.Creator),
		intent.Description,
		int64(intent.Deadline),
		int64(intent.Collateral),
	)
	if err != nil {
		return &ledger.StorageError{Op: "add_intent", Err: err}
	}

	n, err := result.RowsAffected()
	if err != nil {
		return &ledger.StorageError{Op: "add_intent", Err: err}
	}
	if n == 0 {
		return &ledger.DuplicateIntentError{ID: intent.ID}
	}
	return nil
}

// ActiveIntents returns every active intent ordered by ascending ID.
func (s *Store) ActiveIntents(ctx context.Context) ([]model.Intent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, creator, description, deadline, collateral
		FROM intents
		WHERE status = 'active'
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, &ledger.StorageError{Op: "get_active", Err: err}
	}
	defer rows.Close()

	intents := []model.Intent{}
	for rows.Next() {
		intent, err := scanIntent(rows)
		if err != nil {
			return nil, &ledger.StorageError{Op: "get_active", Err: err}
		}
		intents = append(intents, intent)
	}
	if err := rows.Err(); err != nil {
		return nil, &ledger.StorageError{Op: "get_active", Err: err}
	}
	return intents, nil
}

// Intent returns an intent by ID whether active or crystallized.
func (s *Store) Intent(ctx context.Context, id model.IntentID) (model.Intent, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, creator, description, deadline, collateral
		FROM intents
		WHERE id = ?
	`, string(id))

	intent, err := scanIntent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Intent{}, &ledger.NotFoundError{ID: id}
	}
	if err != nil {
		return model.Intent{}, &ledger.StorageError{Op: "get_intent", Err: err}
	}
	return intent, nil
}

// RemoveActive marks an active intent as crystallized.
// The row is kept (archived), never deleted: duplicate detection and
// absence notifications both need it.
func (s *Store) RemoveActive(ctx context.Context, id model.IntentID) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE intents SET status = 'crystallized'
		WHERE id = ? AND status = 'active'
	`, string(id))
	if err != nil {
		return &ledger.StorageError{Op: "remove_active", Err: err}
	}

	n, err := result.RowsAffected()
	if err != nil {
		return &ledger.StorageError{Op: "remove_active", Err: err}
	}
	if n == 0 {
		return &ledger.NotFoundError{ID: id}
	}
	return nil
}

// RecordAbsence stores a crystallized absence keyed by intent ID.
// Idempotent via ON CONFLICT DO NOTHING: re-recording the same absence is
// harmless.
func (s *Store) RecordAbsence(ctx context.Context, absence model.Absence) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO absences (intent_id, declared_at)
		VALUES (?, ?)
		ON CONFLICT(intent_id) DO NOTHING
	`, string(absence.IntentID), int64(absence.DeclaredAt))
	if err != nil {
		return &ledger.StorageError{Op: "record_absence", Err: err}
	}
	return nil
}

// Absences returns every recorded absence ordered by ascending intent ID.
func (s *Store) Absences(ctx context.Context) ([]model.Absence, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT intent_id, declared_at
		FROM absences
		ORDER BY intent_id ASC
	`)
	if err != nil {
		return nil, &ledger.StorageError{Op: "get_absences", Err: err}
	}
	defer rows.Close()

	absences := []model.Absence{}
	for rows.Next() {
		var (
			id         string
			declaredAt int64
		)
		if err := rows.Scan(&id, &declaredAt); err != nil {
			return nil, &ledger.StorageError{Op: "get_absences", Err: err}
		}
		absences = append(absences, model.Absence{
			IntentID:   model.IntentID(id),
			DeclaredAt: model.Slot(declaredAt),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &ledger.StorageError{Op: "get_absences", Err: err}
	}
	return absences, nil
}

// Balance returns the account's balance, zero for unseeded accounts.
func (s *Store) Balance(ctx context.Context, account model.AccountRef) (uint64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx, `
		SELECT balance FROM accounts WHERE account = ?
	`, string(account)).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, &ledger.StorageError{Op: "get_balance", Err: err}
	}
	return uint64(balance), nil
}

// SetBalance overwrites an account balance. Seeding only.
func (s *Store) SetBalance(ctx context.Context, account model.AccountRef, amount uint64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (account, balance) VALUES (?, ?)
		ON CONFLICT(account) DO UPDATE SET balance = excluded.balance
	`, string(account), int64(amount))
	if err != nil {
		return &ledger.StorageError{Op: "set_balance", Err: err}
	}
	return nil
}

// Slash deducts amount from the account's balance under the store's slash
// policy, inside its own transaction.
func (s *Store) Slash(ctx context.Context, account model.AccountRef, amount uint64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &ledger.StorageError{Op: "slash", Err: err}
	}
	defer tx.Rollback() // No-op if committed

	if err := slashInTx(ctx, tx, account, amount, s.policy); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return &ledger.StorageError{Op: "slash", Err: err}
	}
	return nil
}

// Crystallize performs remove + slash + record in a single transaction.
// Either the whole terminal transition commits or none of it does.
func (s *Store) Crystallize(ctx context.Context, intent model.Intent, declaredAt model.Slot) (model.Absence, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Absence{}, &ledger.StorageError{Op: "crystallize", Err: err}
	}
	defer tx.Rollback() // No-op if committed

	// Remove from the active set; zero rows means not active.
	result, err := tx.ExecContext(ctx, `
		UPDATE intents SET status = 'crystallized'
		WHERE id = ? AND status = 'active'
	`, string(intent.ID))
	if err != nil {
		return model.Absence{}, &ledger.StorageError{Op: "crystallize", Err: err}
	}
	n, err := result.RowsAffected()
	if err != nil {
		return model.Absence{}, &ledger.StorageError{Op: "crystallize", Err: err}
	}
	if n == 0 {
		return model.Absence{}, &ledger.NotFoundError{ID: intent.ID}
	}

	if err := slashInTx(ctx, tx, intent.Creator, intent.Collateral, s.policy); err != nil {
		return model.Absence{}, err
	}

	absence := model.Absence{IntentID: intent.ID, DeclaredAt: declaredAt}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO absences (intent_id, declared_at)
		VALUES (?, ?)
		ON CONFLICT(intent_id) DO NOTHING
	`, string(absence.IntentID), int64(absence.DeclaredAt)); err != nil {
		return model.Absence{}, &ledger.StorageError{Op: "crystallize", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return model.Absence{}, &ledger.StorageError{Op: "crystallize", Err: err}
	}
	return absence, nil
}

// slashInTx applies a checked deduction inside an open transaction.
func slashInTx(ctx context.Context, tx *sql.Tx, account model.AccountRef, amount uint64, policy ledger.SlashPolicy) error {
	var balance int64
	err := tx.QueryRowContext(ctx, `
		SELECT balance FROM accounts WHERE account = ?
	`, string(account)).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		balance = 0
	} else if err != nil {
		return &ledger.StorageError{Op: "slash", Err: err}
	}

	current := uint64(balance)
	var remaining uint64
	switch {
	case amount <= current:
		remaining = current - amount
	case policy == ledger.SlashStrict:
		return &ledger.InsufficientBalanceError{Account: account, Balance: current, Amount: amount}
	default:
		remaining = 0 // saturate
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO accounts (account, balance) VALUES (?, ?)
		ON CONFLICT(account) DO UPDATE SET balance = excluded.balance
	`, string(account), int64(remaining)); err != nil {
		return &ledger.StorageError{Op: "slash", Err: err}
	}
	return nil
}

// scanIntent reads an intent row from either *sql.Row or *sql.Rows.
func scanIntent(row interface{ Scan(...any) error }) (model.Intent, error) {
	var (
		id          string
		creator     string
		description string
		deadline    int64
		collateral  int64
	)
	if err := row.Scan(&id, &creator, &description, &deadline, &collateral); err != nil {
		return model.Intent{}, err
	}
	return model.Intent{
		ID:          model.IntentID(id),
		Creator:     model.AccountRef(creator),
		Description: description,
		Deadline:    model.Slot(deadline),
		Collateral:  uint64(collateral),
	}, nil
}
